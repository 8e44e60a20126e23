package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// MessageMeta is the header block stamped above the rendered body. All
// fields are escaped by the template; the body is not, since it is the
// message's own markup.
type MessageMeta struct {
	Subject   string
	From      string
	To        string
	Cc        string
	Date      time.Time
	MessageID string
}

const documentTemplate = `<html><head><meta charset="UTF-8" /><style>
@page { size: A4; margin: 18mm; }
body { font-family: Arial, sans-serif; font-size: 12px; color: #222; }
.meta { border-bottom: 1px solid #ddd; margin-bottom: 12px; padding-bottom: 8px; }
.meta div { margin: 2px 0; }
.subject { font-size: 16px; font-weight: 700; margin-bottom: 6px; }
img { max-width: 100%; height: auto; }
a { color: #1155cc; text-decoration: none; }
table { border-collapse: collapse; }
td, th { border: 1px solid #e5e5e5; padding: 4px 6px; vertical-align: top; }
.email-body, p, table, div { page-break-inside: avoid; }
</style></head>
<body><div class="meta"><div class="subject">{{.Subject}}</div>
<div><b>From:</b> {{.From}}</div>
<div><b>To:</b> {{.To}}</div>
{{if .Cc}}<div><b>CC:</b> {{.Cc}}</div>{{end}}
<div><b>Date:</b> {{.FormattedDate}}</div>
<div><b>Message ID:</b> {{.MessageID}}</div></div>
<div class="email-body">{{.Body}}</div></body></html>`

var documentTmpl = template.Must(template.New("document").Parse(documentTemplate))

// BuildDocument wraps the (already image-inlined) body markup and the
// escaped metadata header in the fixed A4 print layout.
func BuildDocument(meta MessageMeta, body string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}

	data := struct {
		MessageMeta
		FormattedDate string
		Body          template.HTML
	}{
		MessageMeta:   meta,
		FormattedDate: meta.Date.In(loc).Format("2006-01-02 15:04"),
		Body:          template.HTML(body),
	}

	var sb strings.Builder
	if err := documentTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render document template: %w", err)
	}
	return sb.String(), nil
}
