package render

import (
	"bytes"
	"html/template"

	"github.com/hyperjump/manabu/internal/models"
)

var htmlTemplates = template.Must(template.New("blocks").Funcs(template.FuncMap{
	"score":    FormatScore,
	"watchURL": WatchURL,
}).Parse(`
{{- define "record" -}}
<div class="sub-topic">
<h2>{{.SubTopic}}</h2>
<div class="content-results">
<h3>` + ContentHeading + `</h3>
<ul>
{{- range .Primary}}
<li>{{.Title}} (Relevance Score: {{score .Score}})</li>
{{- end}}
</ul>
</div>
<div class="video-results">
<h3>` + VideoHeading + `</h3>
<ul>
{{- range .Secondary}}
<li><a href="{{watchURL .VideoID}}" target="_blank" rel="noopener noreferrer">{{.Title}}</a></li>
{{- end}}
</ul>
</div>
</div>
{{end -}}
{{- define "failure" -}}
<div class="sub-topic sub-topic-failed">
<h2>{{.}}</h2>
<p class="error">Results are unavailable for this sub-topic.</p>
</div>
{{end -}}
{{- define "message" -}}
<p class="message message-{{.Kind}}">{{.Text}}</p>
{{end -}}
`))

// busyOff hides the loader element emitted by the page template.
const busyOff = "<style>#loader{display:none}</style>\n"
const busyOn = "<style>#loader{display:block}</style>\n"

// HTMLRenderer renders blocks as HTML fragments for the streamed results page.
type HTMLRenderer struct{}

// NewHTMLRenderer creates an HTML renderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

// Record implements Renderer.
func (h *HTMLRenderer) Record(rec *models.Record) []byte {
	return execute("record", rec)
}

// Failure implements Renderer. The error detail is logged by the caller, not shown.
func (h *HTMLRenderer) Failure(sub models.SubTopic, _ error) []byte {
	return execute("failure", sub)
}

// Message implements Renderer.
func (h *HTMLRenderer) Message(kind MessageKind, text string) []byte {
	return execute("message", struct {
		Kind MessageKind
		Text string
	}{kind, text})
}

// Busy implements Renderer by toggling the page's loader element.
func (h *HTMLRenderer) Busy(on bool) []byte {
	if on {
		return []byte(busyOn)
	}
	return []byte(busyOff)
}

func execute(name string, data interface{}) []byte {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		// Templates are fixed and data types are known; a failure here is a programming error.
		panic(err)
	}
	return buf.Bytes()
}
