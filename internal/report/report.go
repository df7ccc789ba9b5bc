// Package report renders a resolution batch into shareable summaries: JSON
// for downstream tooling, text for terminals, HTML for humans.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	texttemplate "text/template"
	"time"

	"github.com/FranksOps/forager/internal/product"
)

// Summary contains aggregated metrics about one resolution batch.
type Summary struct {
	BatchID         string
	TotalItems      int
	Resolved        int
	Failed          int
	TotalAttempts   int
	TotalCandidates int
	ByStatus        map[product.ResultStatus]int
	TotalCost       float64
	Budget          float64
	SuccessRate     float64
	Compliance      product.BudgetCompliance
	StartedAt       time.Time
	FinishedAt      time.Time
	Duration        time.Duration
}

// Build derives a Summary from a batch.
func Build(batch *product.ResolutionBatch) Summary {
	s := Summary{
		ByStatus: make(map[product.ResultStatus]int),
	}
	if batch == nil {
		return s
	}

	s.BatchID = batch.ID
	s.TotalItems = len(batch.Results)
	s.TotalCost = batch.TotalCost
	s.Budget = batch.Budget
	s.SuccessRate = batch.SuccessRate
	s.Compliance = batch.Compliance
	s.StartedAt = batch.StartedAt
	s.FinishedAt = batch.FinishedAt
	s.Duration = batch.FinishedAt.Sub(batch.StartedAt)

	for _, r := range batch.Results {
		if r.Success {
			s.Resolved++
		} else {
			s.Failed++
		}
		s.ByStatus[r.Status]++
		s.TotalAttempts += len(r.Attempts)
		s.TotalCandidates += len(r.Candidates)
	}

	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Forager Resolution Summary
--------------------------
Batch:        {{.BatchID}}
Time:         {{.StartedAt.Format "2006-01-02 15:04:05"}} - {{.FinishedAt.Format "2006-01-02 15:04:05"}}
Duration:     {{.Duration}}
Ingredients:  {{.TotalItems}} total, {{.Resolved}} resolved, {{.Failed}} failed
Attempts:     {{.TotalAttempts}} catalog searches, {{.TotalCandidates}} candidates kept

Status breakdown:
{{- range $status, $count := .ByStatus}}
  {{$status}}: {{$count}}
{{- else}}
  None
{{- end}}

Estimated cost: {{printf "%.2f" .TotalCost}} (budget {{printf "%.2f" .Budget}})
Compliance:     {{.Compliance}}
`

	t, err := texttemplate.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Forager Resolution Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Forager Resolution Report</h1>
  <p><strong>Batch:</strong> {{.BatchID}}</p>
  <p><strong>Time:</strong> {{.StartedAt.Format "2006-01-02 15:04:05"}} to {{.FinishedAt.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Ingredients</div>
    <div class="stat-val">{{.TotalItems}}</div>
  </div>
  <div class="stat-card">
    <div>Resolved</div>
    <div class="stat-val">{{.Resolved}}</div>
  </div>
  <div class="stat-card">
    <div>Failed</div>
    <div class="stat-val" style="color: {{if gt .Failed 0}}red{{else}}green{{end}};">{{.Failed}}</div>
  </div>
  <div class="stat-card">
    <div>Estimated Cost</div>
    <div class="stat-val">{{printf "%.2f" .TotalCost}}</div>
  </div>

  <h2>Budget</h2>
  <table>
    <tr><th>Budget</th><th>Total Cost</th><th>Compliance</th></tr>
    <tr><td>{{printf "%.2f" .Budget}}</td><td>{{printf "%.2f" .TotalCost}}</td><td>{{.Compliance}}</td></tr>
  </table>

  <h2>Status Breakdown</h2>
  <table>
    <tr><th>Status</th><th>Count</th></tr>
    {{- range $status, $count := .ByStatus}}
    <tr><td>{{$status}}</td><td>{{$count}}</td></tr>
    {{- end}}
  </table>
</body>
</html>
`

	t, err := template.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
