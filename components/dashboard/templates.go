package dashboard

import (
	"embed"
	"io/fs"
	"os"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html templates/**/*.html
var embeddedTemplates embed.FS

// NewTemplateRenderer renders the performance and charts pages. An empty dir
// uses the templates compiled into the binary; otherwise dir must hold the
// same layout (page files at the root, widget partials under widgets/).
func NewTemplateRenderer(dir string) (Renderer, error) {
	var (
		files fs.FS = embeddedTemplates
		base        = "templates"
	)
	if dir != "" {
		files, base = os.DirFS(dir), "."
	}
	return template.NewRenderer(
		template.WithFS(files),
		template.WithBaseDir(base),
		template.WithExtension(".html"),
	)
}
