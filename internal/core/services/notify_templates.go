package services

import (
	"html/template"
)

var successHTML = template.Must(template.New("success").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
<h2 style="color: #2e7d32;">Exchange Rate ETL Completed Successfully</h2>
{{range .Sections}}
<div style="margin-bottom: 16px;">
<h3>{{.Pair}}</h3>
<p><strong>{{.Headline}}</strong></p>
{{if .HasLatest}}<p>Latest rate: 1 {{.Base}} = {{.Latest}} {{.Target}} (observed {{.ObservedAt}})</p>{{end}}
</div>
{{end}}
<h3>Pipeline Summary</h3>
<ul>
{{if .RunID}}<li>Run ID: {{.RunID}}</li>{{end}}
<li>Fetch: raw rates staged</li>
<li>Transform: invalid rows removed</li>
<li>Load: {{if .HasLoad}}{{.Appended}} rows appended, {{.Merged}} current rates updated{{else}}completed{{end}}</li>
</ul>
<p>Execution time: {{.ExecutedAt}}</p>
<p>Status: <strong>SUCCESS</strong></p>
</body>
</html>`))

var failureHTML = template.Must(template.New("failure").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
<h2 style="color: #c62828;">Exchange Rate ETL Failed</h2>
<ul>
<li>Pair: {{.Pair}}</li>
<li>Run ID: {{.RunID}}</li>
<li>Failed stage: {{.Stage}}</li>
<li>Error kind: {{.Kind}}</li>
<li>Detail: {{.Detail}}</li>
<li>Failed at: {{.At}}</li>
</ul>
<p>Status: <strong>FAILED</strong></p>
</body>
</html>`))

type summarySection struct {
	Pair       string
	Base       string
	Target     string
	Headline   string
	HasLatest  bool
	Latest     string
	ObservedAt string
}

type successView struct {
	Sections   []summarySection
	RunID      string
	HasLoad    bool
	Appended   int
	Merged     int
	ExecutedAt string
}

type failureView struct {
	Pair   string
	RunID  string
	Stage  string
	Kind   string
	Detail string
	At     string
}
