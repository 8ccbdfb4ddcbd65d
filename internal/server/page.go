package server

import (
	"embed"
	"html/template"
)

//go:embed static
var staticFiles embed.FS

type pageData struct {
	Topic      string
	BackendURL string
}

var pageTemplates = template.Must(template.New("page").Parse(`
{{- define "head" -}}
<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>manabu{{if .Topic}} · {{.Topic}}{{end}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;display:flex}
#sidebar{width:14rem;padding:1rem;border-right:1px solid #ddd}
main{flex:1;padding:1rem 2rem}
#loader{display:none}
.sub-topic{margin-bottom:1.5rem}
.sub-topic-failed .error,.message-error{color:#a33}
</style>
</head>
<body>
<aside id="sidebar"></aside>
<main>
<form method="post" action="/research">
<input type="text" name="topic" value="{{.Topic}}" placeholder="What do you want to learn?" required>
<button type="submit">Research</button>
</form>
<div id="loader">Generating sub-topics...</div>
<div id="results">
{{end -}}
{{- define "tail" -}}
</div>
</main>
<script>
fetch('/static/menu.html').then(function(r){return r.text()}).then(function(html){
  document.getElementById('sidebar').innerHTML = html;
  var backend = {{.BackendURL}};
  document.getElementById('download-csv').href = backend + '/download_csv';
  document.getElementById('download-xlsx').href = backend + '/download_xlsx';
});
</script>
</body>
</html>
{{end -}}
`))
