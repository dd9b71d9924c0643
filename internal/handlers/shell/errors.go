// internal/handlers/shell/errors.go
package shell

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"onecoupon-console/internal/client/couponapi"
	xerrors "onecoupon-console/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// GenericFailure is shown when the backend could not be reached.
const GenericFailure = "Request failed, please try again later"

func init() {
	// report binding failures under their form field names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	}
}

// Describe turns a failed call into notice text: the backend info verbatim
// for application errors, a generic message otherwise.
func Describe(err error) string {
	if ae, ok := couponapi.AsAPIError(err); ok && ae.Info != "" {
		return ae.Info
	}
	switch {
	case errors.Is(err, xerrors.ErrTemplateEnded):
		return "This coupon template has already ended"
	case errors.Is(err, xerrors.ErrNotFound):
		return "Coupon template not found"
	case errors.Is(err, xerrors.ErrDuplicateSubmit):
		return "A previous submission is still in progress"
	}
	return GenericFailure
}

// Abandoned reports whether the browser has gone away, in which case the
// result is dropped without rendering.
func Abandoned(c *gin.Context, err error) bool {
	if errors.Is(err, context.Canceled) || c.Request.Context().Err() != nil {
		c.Abort()
		return true
	}
	return false
}

// BindingErrors maps gin binding failures onto form fields. Errors that
// are not validation errors land on the "form" key.
func BindingErrors(err error) xerrors.FieldErrors {
	fields := xerrors.FieldErrors{}
	if err == nil {
		return fields
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields.Add("form", "The form could not be read")
		return fields
	}
	for _, fe := range verrs {
		name := fe.Field()
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		fields.Add(name, validationMessage(fe))
	}
	return fields
}

// Merge adds binding errors behind the ones already recorded.
func Merge(primary error, binding xerrors.FieldErrors) xerrors.FieldErrors {
	fields, ok := xerrors.AsFieldErrors(primary)
	if !ok {
		fields = xerrors.FieldErrors{}
	}
	for k, v := range binding {
		fields.Add(k, v)
	}
	return fields
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Choose at least %s option", fe.Param())
	case "oneof":
		return "Choose one of the listed options"
	default:
		return "Invalid value"
	}
}
