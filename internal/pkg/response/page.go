// internal/pkg/response/page.go
package response

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// Page renders a named console page.
func Page(c *gin.Context, status int, name string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	c.HTML(status, name, data)
}

// Redirect answers a form post with 303 so a reload never re-submits.
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// Attachment streams body to the browser as a file download.
func Attachment(c *gin.Context, filename, contentType string, length int64, body io.Reader) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename))
	}
	c.DataFromReader(http.StatusOK, length, contentType, body, map[string]string{
		"Content-Disposition": disposition,
	})
}
