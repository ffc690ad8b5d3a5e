// Package report summarizes the run log for the history command.
package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/rigscout/internal/storage"
)

// Summary contains aggregated figures over a set of runs.
type Summary struct {
	TotalRuns      int
	Outcomes       map[storage.Outcome]int
	StoreFailures  map[string]int
	TotalListings  int
	TotalProducts  int
	Disqualified   int
	TotalResults   int
	BestScore      float64
	AverageLatency time.Duration
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	Recent         []*storage.Run
}

// RecentRuns is how many runs the text and HTML reports list individually.
const RecentRuns = 10

// GenerateSummary aggregates runs. Runs are expected newest first, as every
// backend returns them.
func GenerateSummary(runs []*storage.Run) Summary {
	s := Summary{
		Outcomes:      make(map[storage.Outcome]int),
		StoreFailures: make(map[string]int),
	}

	if len(runs) == 0 {
		return s
	}

	s.StartTime = runs[0].CreatedAt
	s.EndTime = runs[0].CreatedAt

	var latency time.Duration
	for _, r := range runs {
		s.TotalRuns++
		s.Outcomes[r.Outcome]++
		for _, name := range r.Failed {
			s.StoreFailures[name]++
		}
		s.TotalListings += r.Listings
		s.TotalProducts += r.Products
		s.Disqualified += r.Disqualified
		s.TotalResults += r.Results
		if r.TopScore > s.BestScore {
			s.BestScore = r.TopScore
		}
		latency += r.Duration

		if r.CreatedAt.Before(s.StartTime) {
			s.StartTime = r.CreatedAt
		}
		if r.CreatedAt.After(s.EndTime) {
			s.EndTime = r.CreatedAt
		}
	}

	s.AverageLatency = latency / time.Duration(s.TotalRuns)
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.Recent = runs
	if len(s.Recent) > RecentRuns {
		s.Recent = s.Recent[:RecentRuns]
	}
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

const textTmpl = `rigscout run history
--------------------
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Runs:          {{.TotalRuns}}
Avg latency:   {{.AverageLatency}}
Listings:      {{.TotalListings}} ({{.TotalProducts}} products, {{.Disqualified}} disqualified)
Results:       {{.TotalResults}}
Best score:    {{printf "%.3f" .BestScore}}

Outcomes:
{{- range $outcome, $count := .Outcomes}}
  {{$outcome}}: {{$count}}
{{- else}}
  None
{{- end}}

Store failures:
{{- range $store, $count := .StoreFailures}}
  {{$store}}: {{$count}}
{{- else}}
  None
{{- end}}

Recent:
{{- range .Recent}}
  {{.CreatedAt.Format "2006-01-02 15:04"}}  {{printf "%-18s" .Outcome}} {{printf "%2d" .Results}}  {{.Query}}
{{- else}}
  None
{{- end}}
`

var textReport = template.Must(template.New("textReport").Parse(textTmpl))

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	if err := textReport.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render text: %w", err)
	}
	return nil
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>rigscout run history</title>
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
  <h1>rigscout run history</h1>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Runs</div>
    <div class="stat-val">{{.TotalRuns}}</div>
  </div>
  <div class="stat-card">
    <div>Avg latency</div>
    <div class="stat-val">{{.AverageLatency}}</div>
  </div>
  <div class="stat-card">
    <div>Store failures</div>
    <div class="stat-val" style="color: {{if .StoreFailures}}red{{else}}green{{end}};">{{len .StoreFailures}}</div>
  </div>

  <h3>Outcomes</h3>
  <table>
    <tr><th>Outcome</th><th>Count</th></tr>
    {{- range $outcome, $count := .Outcomes}}
    <tr><td>{{$outcome}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Recent runs</h3>
  <table>
    <tr><th>Time</th><th>Query</th><th>Outcome</th><th>Results</th><th>Top score</th></tr>
    {{- range .Recent}}
    <tr><td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td><td>{{.Query}}</td><td>{{.Outcome}}</td><td>{{.Results}}</td><td>{{printf "%.3f" .TopScore}}</td></tr>
    {{- else}}
    <tr><td colspan="5">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`

var htmlReport = htmltemplate.Must(htmltemplate.New("htmlReport").Parse(htmlTmpl))

// WriteHTML writes an HTML report. Queries are user text and are escaped.
func WriteHTML(w io.Writer, summary Summary) error {
	if err := htmlReport.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}
