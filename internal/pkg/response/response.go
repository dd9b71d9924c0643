// internal/pkg/response/response.go
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON body of the non-page endpoints and of failures that
// happen before a page can be rendered.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// Error aborts the chain and writes a failure body. err is only included
// outside release mode.
func Error(c *gin.Context, status int, message string, err error) {
	c.Abort()

	body := Response{Message: message}
	if err != nil && gin.Mode() != gin.ReleaseMode {
		body.Error = err.Error()
	}
	c.JSON(status, body)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}
