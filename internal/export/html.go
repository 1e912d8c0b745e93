package export

import (
	"html/template"
	"io"
	"net/url"
	"path/filepath"
	"time"

	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/infra/fsx"
)

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{"fileURL": fileURL}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>vidfilter: {{.Root}}</title>
<style>
body{font-family:sans-serif;margin:1.5em}
table{border-collapse:collapse}
th,td{border:1px solid #ccc;padding:4px 8px;text-align:left}
th{background:#f3f3f3}
</style>
</head>
<body>
<h1>{{.Root}}</h1>
<p class="summary">{{.Summary.Matched}} matched / {{.Summary.Examined}} examined, scanned {{.Finished}}</p>
{{if .Criteria}}<ul class="criteria">{{range .Criteria}}<li>{{.}}</li>{{end}}</ul>{{end}}
<table id="results">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range $i, $c := .}}{{if eq $i 0}}<td><a href="{{fileURL $c}}">{{$c}}</a></td>{{else}}<td>{{$c}}</td>{{end}}{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type page struct {
	Root     string
	Finished string
	Summary  domain.ScanSummary
	Criteria []string
	Columns  []string
	Rows     [][]string
}

// fileURL 生成本地文件链接；file: 不在 html/template 的安全 scheme 列表中，需显式标记。
func fileURL(p string) template.URL {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return template.URL(u.String())
}

// WriteHTML 渲染静态结果页；matches 可以是排序后的视图。
func WriteHTML(w io.Writer, r domain.ScanReport, matches []domain.Match) error {
	p := page{
		Root:     r.Root,
		Finished: r.FinishedAt.UTC().Format(time.RFC3339),
		Summary:  r.Summary,
		Criteria: r.Criteria,
		Columns:  Columns,
		Rows:     make([][]string, 0, len(matches)),
	}
	for _, m := range matches {
		p.Rows = append(p.Rows, Row(m))
	}
	return pageTmpl.Execute(w, p)
}

func SaveHTML(path string, r domain.ScanReport, matches []domain.Match) error {
	return fsx.WriteAtomic(path, func(w io.Writer) error {
		return WriteHTML(w, r, matches)
	})
}
