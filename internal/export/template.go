package export

// documentTemplate renders the whole export. Data is a document value.
const documentTemplate = `# {{ .ProjectName }}schema 依赖图谱

> 生成时间: {{ .GeneratedAt | date "2006-01-02 15:04:05" }}
> 元素: {{ .Stats.TotalElements }} | 依赖: {{ .Stats.TotalDependencies }} | 最大深度: {{ .Stats.MaxDepth }}

## 命名空间

| 命名空间 | 元素数 |
|----------|--------|
{{- range .Namespaces }}
| {{ .Name }} | {{ len .Elements }} |
{{- end }}
{{ if and .IncludeMermaid .Edges }}
## 依赖图

` + "```mermaid" + `
graph LR
{{- range .Nodes }}
    {{ .ID }}["{{ .Label }}"]
{{- end }}
{{- range .Edges }}
    {{ .From }} -->{{ if .Label }}|{{ .Label }}|{{ end }} {{ .To }}
{{- end }}
` + "```" + `
{{ end }}
---

## 元素详解
{{ range .Namespaces }}
### {{ .Name }}
{{ range .Elements }}
#### {{ .Name }}

- **类型:** {{ .Kind }}
{{- if .Dependencies }}
- **依赖:** {{ .Dependencies | join ", " }}
{{- end }}
{{- if .Dependents }}
- **被依赖:** {{ .Dependents | len }} 个 ({{ .Dependents | join ", " | trunc 120 }})
{{- end }}
{{ end }}
{{- end }}
## 循环依赖
{{ if .Cycles }}
| # | 循环链 |
|---|--------|
{{- range $i, $c := .Cycles }}
| {{ add1 $i }} | {{ $c | join " → " }} |
{{- end }}
{{ else }}
_无循环依赖_
{{ end }}`
