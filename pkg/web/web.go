// Package web holds the HTML form and its static assets, compiled into the
// binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed public
var publicFS embed.FS

// FormTemplate is the name of the registration form template.
const FormTemplate = "form.tmpl"

// Templates parses every embedded template.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.tmpl")
}

// Public returns the static asset tree rooted at public/.
func Public() fs.FS {
	sub, err := fs.Sub(publicFS, "public")
	if err != nil {
		// public/ is embedded above, so Sub cannot fail
		panic(err)
	}
	return sub
}
