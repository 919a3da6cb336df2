package emit

import (
	"fmt"
	"strings"
	"text/template"
)

var funcMap = template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	"consts": func(vs []enumValueData) string {
		names := make([]string, len(vs))
		for i, v := range vs {
			names[i] = v.Const
		}
		return strings.Join(names, ", ")
	},
}

var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	baseAddressTmpl +
		enumTmpl +
		registerTmpl +
		fieldTmpl +
		blockTmpl +
		instanceTmpl,
))

// renderTemplate executes a named template into the builder.
func renderTemplate(b *strings.Builder, name string, data any) {
	if err := templates.ExecuteTemplate(b, name, data); err != nil {
		panic(fmt.Sprintf("template %s: %v", name, err))
	}
}

const baseAddressTmpl = `{{define "baseAddress"}}
// {{.Const}} is the base address of {{.Name}}.
const {{.Const}} uintptr = {{.Address}}
{{end}}`

const enumTmpl = `{{define "enum"}}
// {{.Type}} is a value of the {{.Register}}.{{.Field}} field{{if .Usage}} ({{.Usage}}){{end}}.
type {{.Type}} {{.Base}}

const (
{{- range .Values}}
{{- if .Doc}}
// {{.Doc}}
{{- end}}
{{.Const}} {{$.Type}} = {{.Hex}}
{{- end}}
)

// String returns the name of v.
func (v {{.Type}}) String() string {
switch v {
{{- range .Cases}}
case {{.Const}}:
return {{quote .Name}}
{{- end}}
}
{{- if .Default}}
return {{quote .Default}}
{{- else}}
return mmio.Unknown({{quote .Type}}, uint64(v))
{{- end}}
}

// IsKnown reports whether v is one of the listed values.
func (v {{.Type}}) IsKnown() bool {
switch v {
case {{consts .Cases}}:
return true
}
return false
}
{{end}}`

const registerTmpl = `{{define "register"}}
// {{.Type}} is the {{.Name}} register at offset {{.Offset}}.
{{- if .Doc}}
//
// {{.Doc}}
{{- end}}
type {{.Type}} struct {
reg {{.Cell}}
}

// {{.Value}} is a value of the {{.Name}} register.
type {{.Value}} {{.Raw}}

// {{.Reset}} is the value of {{.Name}} after reset.
const {{.Reset}} {{.Value}} = {{.ResetHex}}
{{- if .Fields}}

const (
{{- range .Fields}}
{{.Shift}} = {{.Offset}}
{{.Mask}} {{$.Value}} = {{.MaskHex}}
{{- end}}
)
{{- end}}
{{- if .Readable}}

// Read returns the current value of {{.Name}}.
func (r *{{.Type}}) Read() {{.Value}} {
return {{.Value}}(r.reg.Load())
}
{{- end}}
{{- if .Writable}}

// Write stores v in {{.Name}}.
func (r *{{.Type}}) Write(v {{.Value}}) {
r.reg.Store({{.Raw}}(v))
}

// Reset writes {{.Reset}} to {{.Name}}.
func (r *{{.Type}}) Reset() {
r.Write({{.Reset}})
}
{{- end}}
{{- if .Modify}}

// Modify reads {{.Name}}, applies fn and writes the result back. Fields fn
// does not change keep their current value.
func (r *{{.Type}}) Modify(fn func({{.Value}}) {{.Value}}) {
r.Write(fn(r.Read()))
}
{{- end}}
{{- if .WriteOnly}}

// WriteFields writes fn({{.Reset}}) to {{.Name}}. The register cannot be
// read back, so fields fn does not set are written with their reset value.
func (r *{{.Type}}) WriteFields(fn func({{.Value}}) {{.Value}}) {
r.Write(fn({{.Reset}}))
}
{{- end}}
{{- range .Fields}}
{{- template "field" .}}
{{- end}}
{{end}}`

const fieldTmpl = `{{define "field"}}
{{- if .Readable}}

// {{.Getter}} returns the {{.Name}} field.
{{- if .Doc}}
// {{.Doc}}
{{- end}}
{{- if eq .ReadType "bool"}}
func (v {{.Value}}) {{.Getter}}() bool {
return v&{{.Mask}} != 0
}
{{- else}}
func (v {{.Value}}) {{.Getter}}() {{.ReadType}} {
return {{.ReadType}}((v & {{.Mask}}) >> {{.Shift}})
}
{{- end}}
{{- end}}
{{- if .Writable}}

// {{.Setter}} returns v with the {{.Name}} field set to x.
{{- if eq .WriteType "bool"}}
func (v {{.Value}}) {{.Setter}}(x bool) {{.Value}} {
if x {
return v | {{.Mask}}
}
return v &^ {{.Mask}}
}
{{- else}}
func (v {{.Value}}) {{.Setter}}(x {{.WriteType}}) {{.Value}} {
{{- if .Check}}
mmio.MustFit({{quote .Register}}, {{quote .Name}}, {{.Width}}, uint64(x))
{{- end}}
return v&^{{.Mask}} | {{.Value}}(x)<<{{.Shift}}
}
{{- end}}
{{- end}}
{{- end}}`

const blockTmpl = `{{define "block"}}
// {{.Type}} is the register block of {{.Name}}.
{{- if .Doc}}
//
// {{.Doc}}
{{- end}}
type {{.Type}} struct {
{{- range .Members}}
{{- if .Pad}}
_ [{{.Pad}}]byte
{{- end}}
{{.Name}} {{.Type}}
{{- end}}
}
{{- range .Alternates}}

// {{.Method}} returns the {{.Name}} register at offset {{.Offset}}
{{- if .Of}}, which shares its address with {{.Of}}{{end}}.
func (p *{{$.Type}}) {{.Method}}() *{{.Type}} {
return (*{{.Type}})(unsafe.Add(unsafe.Pointer(p), {{.Offset}}))
}
{{- end}}
{{end}}`

const instanceTmpl = `{{define "instance"}}
// {{.Var}} is the {{.Name}} register block.
var {{.Var}} = (*{{.Type}})(unsafe.Pointer({{.Base}}))
{{end}}`
