package journal

// Nop discards everything.
type Nop struct{}

var _ Journal = Nop{}

func (Nop) RecordPurchase(PurchaseRecord) error { return nil }
func (Nop) RecordRun(RunRecord) error           { return nil }
func (Nop) Close() error                        { return nil }
