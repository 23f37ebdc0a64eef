package server

import "html/template"

// Minimal page documents. The real UI is out of scope; these exist so
// the handlers have something to render.

const indexPage = `<!DOCTYPE html>
<html>
<head><title>Web Summarizer</title></head>
<body>
{{if .Flash}}<p class="flash flash-{{.Flash.Level}}">{{.Flash.Message}}</p>{{end}}
<form id="summarize-form" method="post" action="/summarize">
  <input type="url" name="url" placeholder="https://..." value="{{.PrefillURL}}">
  <button type="submit">Summarize</button>
</form>
</body>
</html>`

const summaryPage = `<!DOCTYPE html>
<html>
<head><title>Summary</title></head>
<body>
<p>Summary of <a href="{{.OriginalURL}}">{{.OriginalURL}}</a></p>
<div class="summary">{{.SummaryHTML}}</div>
{{if .BookmarksEnabled}}
<form method="post" action="/send_to_bookmark_service">
  <input type="hidden" name="original_url" value="{{.OriginalURL}}">
  <input type="hidden" name="summary_markdown" value="{{.SummaryMarkdown}}">
  <button type="submit">Save to bookmarks</button>
</form>
{{end}}
<p><a href="/">Summarize another</a></p>
</body>
</html>`

var (
	indexTmpl   = template.Must(template.New("index").Parse(indexPage))
	summaryTmpl = template.Must(template.New("summary").Parse(summaryPage))
)

type flashData struct {
	Level   string
	Message string
}

type indexData struct {
	Flash      *flashData
	PrefillURL string
}

type summaryData struct {
	OriginalURL      string
	SummaryHTML      template.HTML
	SummaryMarkdown  string
	BookmarksEnabled bool
}
