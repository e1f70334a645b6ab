package journal

import (
	"bytes"
	"strings"
	"text/template"
	"time"
)

var orgFuncs = template.FuncMap{
	"short": shortID,
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "(unknown)"
		}
		return t.UTC().Format("2006-01-02 Mon 15:04")
	},
	"seconds": func(a, b time.Time) string {
		if a.IsZero() || b.IsZero() {
			return "?"
		}
		return b.Sub(a).Round(time.Second).String()
	},
}

var runOrg = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

type runView struct {
	Run       RunRecord
	Purchases []PurchaseRecord
}

// FormatRunOrg renders a run and its purchases as an org-mode entry.
func FormatRunOrg(r RunRecord, purchases []PurchaseRecord) string {
	var buf bytes.Buffer
	if err := runOrg.Execute(&buf, runView{Run: r, Purchases: purchases}); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}

// FormatRunsOrg renders runs without purchase tables, separated by blank lines.
func FormatRunsOrg(runs []RunRecord) string {
	parts := make([]string, 0, len(runs))
	for _, r := range runs {
		parts = append(parts, FormatRunOrg(r, nil))
	}
	return strings.Join(parts, "\n\n\n")
}

func shortID(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}

const RunOrgTemplate = `** Run: account {{.Run.AccountID}} ({{short .Run.RunID}})
:PROPERTIES:
:RUN_ID:     {{.Run.RunID}}
:ACCOUNT:    {{.Run.AccountID}}
:STARTED:    [{{stamp .Run.Started}}]
:FINISHED:   [{{stamp .Run.Finished}}]
:DURATION:   {{seconds .Run.Started .Run.Finished}}
:REASON:     {{.Run.Reason}}
:CYCLES:     {{.Run.Cycles}}
:PURCHASED:  {{.Run.Purchased}}
:INVESTED:   {{.Run.Invested.StringFixed 2}}
:CASH_LEFT:  {{.Run.CashLeft.StringFixed 2}}
{{- if .Run.Error}}
:ERROR:      {{.Run.Error}}
{{- end}}
:END:
{{- if .Purchases}}

*** Purchases
| Loan | Amount | Rate | Grade | Region |
|------+--------+------+-------+--------|
{{- range .Purchases}}
| {{.LoanID}} | {{.Amount.StringFixed 2}} | {{printf "%.2f" .Rate}} | {{.Grade}} | {{.Region}} |
{{- end}}
{{- end}}
`
