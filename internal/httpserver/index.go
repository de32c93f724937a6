package httpserver

import (
	"html/template"
	"net/http"

	"github.com/sidosera/lolabunny.app/internal/plugin"
)

// indexTemplate renders the bindings index: one row per active plugin,
// listing every binding it claims, its description, and its example
// invocation. Inline CSS, no external assets, since the core has no
// static file serving of its own to lean on.
var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>bunnylol</title>
<style>
  body { font-family: -apple-system, system-ui, sans-serif; max-width: 50rem; margin: 2rem auto; color: #222; }
  h1 { font-size: 1.4rem; }
  .subtitle { color: #666; font-size: 0.85rem; margin-bottom: 1.5rem; }
  table { width: 100%; border-collapse: collapse; }
  th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #eee; }
  th { color: #888; font-weight: 600; font-size: 0.8rem; text-transform: uppercase; }
  code { background: #f4f4f4; padding: 0.1rem 0.3rem; border-radius: 3px; }
</style>
</head>
<body>
<h1>bunnylol</h1>
<p class="subtitle">{{.DisplayURL}} &middot; {{len .Plugins}} plugins active</p>
<table>
<tr><th>binding</th><th>description</th><th>example</th></tr>
{{range .Plugins}}<tr>
  <td>{{range $i, $b := .Bindings}}{{if $i}}, {{end}}<code>{{$b}}</code>{{end}}</td>
  <td>{{.Description}}</td>
  <td><code>{{.Example}}</code></td>
</tr>
{{end}}
</table>
</body>
</html>
`))

type indexView struct {
	DisplayURL string
	Plugins    []*plugin.Plugin
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request) {
	view := indexView{
		DisplayURL: s.cfg.DisplayURL(),
		Plugins:    s.registry.Snapshot().List(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = indexTemplate.Execute(w, view)
}
