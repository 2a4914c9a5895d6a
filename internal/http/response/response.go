package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/neocube/neocube-backend/internal/platform/apierr"
	"github.com/neocube/neocube-backend/internal/platform/ctxutil"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Code    string       `json:"code,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const genericServerMessage = "internal server error"

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload})
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: payload})
}

func RespondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: true, Message: message})
}

// RespondError writes a failure envelope. An *apierr.Error decides status and code; anything
// else is a 500 whose detail is logged and not sent to the client.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	if ae, ok := apierr.As(err); ok {
		if ae.Status >= http.StatusInternalServerError && log != nil {
			log.Error("Request failed", append(ctxutil.LogFields(c.Request.Context()), "path", c.FullPath(), "code", ae.Code, "error", ae.Err)...)
		}
		c.AbortWithStatusJSON(ae.Status, Envelope{Success: false, Message: messageOf(ae), Code: ae.Code})
		return
	}
	if log != nil {
		log.Error("Unhandled request error", append(ctxutil.LogFields(c.Request.Context()), "path", c.FullPath(), "error", err)...)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Message: genericServerMessage,
		Code:    "internal_error",
	})
}

func RespondStatus(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, Code: code})
}

// RespondBindError reports request decoding and validation failures as 400s with per-field detail.
func RespondBindError(c *gin.Context, err error) {
	env := Envelope{Success: false, Message: "validation failed", Code: "validation_error"}

	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			env.Errors = append(env.Errors, FieldError{Field: jsonFieldName(fe), Message: validationMessage(fe)})
		}
	case errors.As(err, &typeErr):
		env.Errors = []FieldError{{Field: typeErr.Field, Message: fmt.Sprintf("must be a %s", typeErr.Type.String())}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		env.Message = "request body must be valid JSON"
		env.Code = "invalid_request"
	default:
		env.Message = err.Error()
		env.Code = "invalid_request"
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, env)
}

func messageOf(ae *apierr.Error) string {
	if ae.Err == nil {
		return http.StatusText(ae.Status)
	}
	if ae.Status >= http.StatusInternalServerError && ae.Code == "" {
		return genericServerMessage
	}
	return ae.Err.Error()
}

func jsonFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		ns = fe.Field()
	}
	if ns == "" {
		return ""
	}
	return strings.ToLower(ns[:1]) + ns[1:]
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "url":
		return "must be a valid URL"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
