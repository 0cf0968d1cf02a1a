package util

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"golang.org/x/tools/imports"
)

// TemplateFuncs are the helpers available to every generator template.
var TemplateFuncs = template.FuncMap{
	"quote": strconv.Quote,
}

// MustTemplate parses a named template with TemplateFuncs and panics on error.
// Templates are package level constants, so a parse failure is a programming error.
func MustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(TemplateFuncs).Parse(text))
}

// RenderTemplate executes tmpl against data.
// This lives in internal to avoid committing to public API stability prematurely.
func RenderTemplate(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

// FormatSource gofmts generated Go source and sorts its import block.
// Generators emit exactly the imports they use, so no import resolution runs.
func FormatSource(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w\n%s", filename, err, src)
	}
	return out, nil
}
