// Package report aggregates extraction results into run summaries and
// renders them as JSON, text, or HTML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/harrier/internal/product"
)

// Summary contains aggregated metrics about an extraction run.
type Summary struct {
	TotalRuns         int
	TotalErrors       int
	LowConfidence     int
	TotalProducts     int
	ProductsWithPrice int
	DuplicatesRemoved int
	StrategyCounts    map[string]int
	PlatformCounts    map[string]int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// PriceCoverage is the share of extracted products carrying a price.
func (s Summary) PriceCoverage() float64 {
	if s.TotalProducts == 0 {
		return 0
	}
	return float64(s.ProductsWithPrice) / float64(s.TotalProducts)
}

// GenerateSummary aggregates a slice of extraction results.
func GenerateSummary(results []*product.Result) Summary {
	s := Summary{
		StrategyCounts: make(map[string]int),
		PlatformCounts: make(map[string]int),
	}

	if len(results) == 0 {
		return s
	}

	s.StartTime = results[0].CreatedAt
	s.EndTime = results[0].CreatedAt

	for _, r := range results {
		s.TotalRuns++
		if r.Error != "" {
			s.TotalErrors++
		}
		if r.LowConfidence {
			s.LowConfidence++
		}
		if r.Strategy != "" {
			s.StrategyCounts[r.Strategy]++
		}

		s.TotalProducts += len(r.Products)
		s.DuplicatesRemoved += r.Duplicates
		s.PlatformCounts[r.Platform] += len(r.Products)
		for _, p := range r.Products {
			if p.Price != nil {
				s.ProductsWithPrice++
			}
		}

		if r.CreatedAt.Before(s.StartTime) {
			s.StartTime = r.CreatedAt
		}
		if r.CreatedAt.After(s.EndTime) {
			s.EndTime = r.CreatedAt
		}
	}

	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Harrier Extraction Summary
--------------------------
Time:            {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:        {{.Duration}}
Runs:            {{.TotalRuns}}
Errors:          {{.TotalErrors}}
Low Confidence:  {{.LowConfidence}}
Products:        {{.TotalProducts}} ({{.ProductsWithPrice}} with price)
Dupes Removed:   {{.DuplicatesRemoved}}

Strategies:
{{- range $strategy, $count := .StrategyCounts}}
  {{$strategy}}: {{$count}}
{{- else}}
  None
{{- end}}

Platforms:
{{- range $platform, $count := .PlatformCounts}}
  {{$platform}}: {{$count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse text template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render text summary: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Harrier Extraction Report</title>
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
  <h1>Harrier Extraction Report</h1>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Runs</div>
    <div class="stat-val">{{.TotalRuns}}</div>
  </div>
  <div class="stat-card">
    <div>Errors</div>
    <div class="stat-val">{{.TotalErrors}}</div>
  </div>
  <div class="stat-card">
    <div>Low Confidence</div>
    <div class="stat-val" style="color: {{if gt .LowConfidence 0}}orange{{else}}green{{end}};">{{.LowConfidence}}</div>
  </div>
  <div class="stat-card">
    <div>Products</div>
    <div class="stat-val">{{.TotalProducts}}</div>
  </div>
  <div class="stat-card">
    <div>Dupes Removed</div>
    <div class="stat-val">{{.DuplicatesRemoved}}</div>
  </div>

  <h3>Strategies</h3>
  <table>
    <tr><th>Strategy</th><th>Pages</th></tr>
    {{- range $strategy, $count := .StrategyCounts}}
    <tr><td>{{$strategy}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Platforms</h3>
  <table>
    <tr><th>Platform</th><th>Products</th></tr>
    {{- range $platform, $count := .PlatformCounts}}
    <tr><td>{{$platform}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := template.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse html template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	return nil
}
