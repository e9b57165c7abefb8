package preview

import (
	"html/template"
	"io"

	"github.com/kyaoi/mdpane/internal/outline"
)

const baseCSS = `
body { font-family: system-ui, sans-serif; margin: 0; display: flex; }
nav { width: 16rem; padding: 1rem; border-right: 1px solid #ddd; }
main { flex: 1; padding: 1rem 2rem; max-width: 60rem; }
.hide { display: none; }
.min { min-height: 3rem; }
.code_wrap { position: relative; }
.copy_code_button { position: absolute; top: .25rem; right: .25rem; }
.latex-block, .math-display { display: block; overflow-x: auto; }
.md-header-anchor::before { content: "#"; margin-right: .25rem; }
.toc { margin-top: 1rem; font-size: .9em; }
.toc-2 { padding-left: 1rem; } .toc-3 { padding-left: 2rem; }
`

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/style.css">
</head>
<body>
<nav>{{range .Files}}<div><a href="/doc/{{.}}">{{.}}</a></div>{{end}}
{{with .Outline}}<div class="toc">{{range .}}<div class="toc-{{.Level}}">{{if .ID}}<a href="#{{.ID}}">{{.Text}}</a>{{else}}{{.Text}}{{end}}</div>{{end}}</div>{{end}}</nav>
<main id="content">{{.HTML}}</main>
{{if .Path}}<script>
const path = {{.Path}};
const proto = location.protocol === "https:" ? "wss://" : "ws://";
const ws = new WebSocket(proto + location.host + "/ws");
ws.onmessage = (e) => {
  const m = JSON.parse(e.data);
  if (m.type === "change" && m.path === path) {
    document.getElementById("content").innerHTML = m.html;
    if (m.label) document.title = m.label;
  }
};
</script>{{end}}
</body>
</html>
`))

type page struct {
	Title   string
	Path    string
	Files   []string
	Outline []outline.Heading
	HTML    template.HTML
}

func (p page) render(w io.Writer) error {
	return pageTmpl.Execute(w, p)
}

// trustedHTML marks widget output for the template. The widget has already
// sanitized it unless sanitizing was turned off for the document.
func trustedHTML(s string) template.HTML {
	return template.HTML(s)
}
