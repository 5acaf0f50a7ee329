package view

import (
	"net/http"

	"github.com/gin-gonic/gin/render"
)

// Render writes an Output as JSON with the output's media type. It
// implements gin's render.Render:
//
//	c.Render(out.Status, view.Render{Output: out})
type Render struct {
	Output Output
}

var _ render.Render = Render{}

// Render implements render.Render.
func (r Render) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	// gin's JSON renderer keeps a content type that is already set
	return render.JSON{Data: r.Output.Body}.Render(w)
}

// WriteContentType implements render.Render.
func (r Render) WriteContentType(w http.ResponseWriter) {
	contentType := r.Output.ContentType
	if contentType == "" {
		contentType = JSONContentType
	}
	w.Header()["Content-Type"] = []string{contentType}
}
