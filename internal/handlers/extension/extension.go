// internal/handlers/extension/extension.go
package extension

import (
	"net/http"
	"strconv"

	"onecoupon-console/internal/domain/task"
	"onecoupon-console/internal/handlers/shell"
	xerrors "onecoupon-console/internal/pkg/errors"
	"onecoupon-console/internal/pkg/response"
	"onecoupon-console/internal/pkg/session"
	tasksvc "onecoupon-console/internal/service/task"
	"onecoupon-console/internal/web"

	"github.com/gin-gonic/gin"
)

const extensionPath = "/extension"

type extensionView struct {
	RowNum string
	Errors xerrors.FieldErrors
}

type ExtensionHandler struct {
	tasks *tasksvc.TaskService
	shell *shell.Shell
}

func NewExtensionHandler(tasks *tasksvc.TaskService, sh *shell.Shell) *ExtensionHandler {
	return &ExtensionHandler{
		tasks: tasks,
		shell: sh,
	}
}

// Page renders the row count prompt.
func (h *ExtensionHandler) Page(c *gin.Context) {
	h.render(c, http.StatusOK, h.shell.Frame(c, "Extensions", extensionPath), strconv.Itoa(task.DefaultTemplateRows), nil)
}

// TemplateFile streams the recipient template under task.TemplateFileName.
// An invalid row count never reaches the backend.
func (h *ExtensionHandler) TemplateFile(c *gin.Context) {
	var form task.TemplateFileForm
	// a missing or malformed rowNum is reported by ParseRowNum below
	_ = c.ShouldBindQuery(&form)

	rowNum, err := tasksvc.ParseRowNum(form.RowNum)
	if err != nil {
		fields, _ := xerrors.AsFieldErrors(err)
		h.render(c, http.StatusUnprocessableEntity, h.shell.Frame(c, "Extensions", extensionPath), form.RowNum, fields)
		return
	}

	f, err := h.tasks.TemplateFile(c.Request.Context(), rowNum)
	if err != nil {
		if shell.Abandoned(c, err) {
			return
		}
		page := h.shell.Frame(c, "Extensions", extensionPath)
		page.AddNotice(session.NoticeError, shell.Describe(err))
		h.render(c, http.StatusOK, page, form.RowNum, nil)
		return
	}
	defer f.Body.Close()

	response.Attachment(c, task.TemplateFileName, f.ContentType, f.ContentLength, f.Body)
}

func (h *ExtensionHandler) render(c *gin.Context, status int, page *web.Page, rowNum string, fields xerrors.FieldErrors) {
	page.Data = extensionView{RowNum: rowNum, Errors: fields}
	response.Page(c, status, web.PageExtension, page)
}
