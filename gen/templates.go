package gen

import (
	"text/template"

	"github.com/hupe1980/ipcmesh/internal/util"
)

type templateName string

const (
	stubsTemplate    templateName = "stubs"
	dispatchTemplate templateName = "dispatch"
	eventsTemplate   templateName = "events"
)

const importsBlock = `{{define "imports"}}{{if .}}
import (
{{- range .}}
	{{if .Name}}{{.Name}} {{end}}{{quote .Path}}
{{- end}}
)
{{end}}{{end}}`

const recordBlock = `{{define "record"}}type {{.Type}} {{if .Fields}}struct {
{{- range .Fields}}
	{{.Name}} {{.Type}} ` + "`" + `json:"{{.Tag}}"` + "`" + `
{{- end}}
}{{else}}struct{}{{end}}{{end}}`

const stubsText = `{{.Header}}

package {{.Package}}
{{template "imports" .Imports}}
{{- with .Contract}}
{{range .Doc}}{{.}}
{{end -}}
type {{.Name}} interface {
{{- range .Methods}}
	{{.}}
{{- end}}
}
{{end}}
{{- range .Stubs}}
{{template "record" .Record}}

{{range .Doc}}{{.}}
{{end -}}
func {{.Name}}(ctx context.Context, c core.Caller{{.Params}}) {{.Result}} {
	return {{.Call}}(ctx, c, {{quote .Wire}}, {{.Record.Type}}{ {{- .Values -}} })
}
{{end}}`

const dispatchText = `{{.Header}}

package {{.Package}}
{{template "imports" .Imports}}
// {{.Impl}} implements {{.ContractName}} by delegating every method to its bound
// handler. Host context values are captured once at registration.
type {{.Impl}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}}
{{- end}}
}

{{if .Assert}}
var _ {{.Contract}} = (*{{.Impl}})(nil)
{{end}}
{{- range .Methods}}
func (impl *{{$.Impl}}) {{.Name}}({{.Params}}){{.Result}} {
	{{if .Return}}return {{end}}{{.Call}}
}
{{end}}
// New{{.ContractName}} returns the {{.ContractName}} implementation bound to the given host context.
func New{{.ContractName}}({{.HostParams}}) {{.Returns}} {
	return &{{.Impl}}{ {{- .HostInit -}} }
}
{{range .Methods}}
{{template "record" .Record}}
{{end}}
// Register{{.ContractName}} binds every {{.ContractName}} method to r under its wire identifier.
func Register{{.ContractName}}(r *dispatch.Router{{if .HostParams}}, {{.HostParams}}{{end}}) error {
	{{- if .Methods}}
	impl := &{{.Impl}}{ {{- .HostInit -}} }
	{{- end}}
	return r.Register(
{{- range .Methods}}
		{{.Adapter}}({{quote .Wire}}, func(ctx context.Context, req {{.Record.Type}}){{.ClosureResult}} {
			{{if .ClosureReturn}}return {{end}}{{.Invoke}}
		}),
{{- end}}
	)
}
`

const eventsText = `{{.Header}}

package {{.Package}}
{{template "imports" .Imports}}
{{- range .Events}}
// {{.Type}} carries the payload of the {{quote .Wire}} event.
type {{.Type}} struct {
	Payload {{.Payload}}
}

// {{.Const}} is the verbatim identifier of {{.Type}}.
const {{.Const}} = {{quote .Wire}}

// {{.New}} wraps payload.
func {{.New}}(payload {{.Payload}}) {{.Type}} {
	return {{.Type}}{Payload: payload}
}

// Name returns the event identifier.
func ({{.Type}}) Name() string { return {{.Const}} }
{{if $.Emit}}
// Emit broadcasts the payload under the event identifier.
func (e {{.Type}}) Emit(ctx context.Context, h core.Emitter) error {
	return core.Emit(ctx, h, {{.Const}}, e.Payload)
}
{{end}}
{{- if $.Listen}}
// Listen subscribes to the event. A subscription failure is returned before
// any payload is produced.
func ({{.Type}}) Listen(ctx context.Context, l core.Listener) (*core.Stream[{{.Payload}}], error) {
	return core.Listen[{{.Payload}}](ctx, l, {{.Const}})
}
{{end}}
{{- end}}`

var templates = map[templateName]*template.Template{
	stubsTemplate:    parse(stubsTemplate, stubsText),
	dispatchTemplate: parse(dispatchTemplate, dispatchText),
	eventsTemplate:   parse(eventsTemplate, eventsText),
}

func parse(name templateName, text string) *template.Template {
	return util.MustTemplate(string(name), importsBlock+recordBlock+text)
}
