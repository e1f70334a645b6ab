package journal

import "fmt"

// Kinds accepted by Open.
const (
	KindSQLite = "sqlite"
	KindCSV    = "csv"
	KindNone   = "none"
)

// Options select and locate a journal backend.
type Options struct {
	Kind          string
	DBPath        string
	PurchasesFile string
	RunsFile      string
}

// Open builds the journal named by opts.Kind. An empty kind means none.
func Open(opts Options) (Journal, error) {
	switch opts.Kind {
	case KindSQLite:
		return NewSQLite(opts.DBPath)
	case KindCSV:
		return NewCSV(opts.PurchasesFile, opts.RunsFile)
	case KindNone, "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q (want sqlite|csv|none)", opts.Kind)
	}
}
