package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tasktracker/internal/middleware"
	"tasktracker/internal/models"
)

func init() {
	// в ошибках валидации: json-имена полей
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func respondOK(c *gin.Context, status int, data interface{}, message string) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

func respondFail(c *gin.Context, status int, message string, errs []models.FieldError) {
	body := gin.H{"success": false, "message": message}
	if len(errs) > 0 {
		body["errors"] = errs
	}
	c.JSON(status, body)
}

// getIdentity returns the caller set by AuthMiddleware; on false a 401 was already written.
func getIdentity(c *gin.Context) (models.Identity, bool) {
	who, found := middleware.IdentityFrom(c)
	if !found {
		respondFail(c, http.StatusUnauthorized, "Authentication required", nil)
		return models.Identity{}, false
	}
	return who, true
}

// respondError maps service errors onto the failure envelope.
func respondError(c *gin.Context, tag string, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		respondFail(c, http.StatusBadRequest, verr.Message, verr.Errors)
	case errors.Is(err, models.ErrInvalidCredentials):
		respondFail(c, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, models.ErrAccountDisabled):
		respondFail(c, http.StatusUnauthorized, "Account has been deactivated", nil)
	case errors.Is(err, models.ErrInvalidToken):
		respondFail(c, http.StatusUnauthorized, "Invalid or expired token", nil)
	case errors.Is(err, models.ErrUnauthorized):
		respondFail(c, http.StatusUnauthorized, "Authentication required", nil)
	case errors.Is(err, models.ErrForbidden):
		respondFail(c, http.StatusForbidden, "Insufficient permissions", nil)
	case errors.Is(err, models.ErrTaskNotFound):
		respondFail(c, http.StatusNotFound, "Task not found", nil)
	case errors.Is(err, models.ErrUserNotFound):
		respondFail(c, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, models.ErrConflict):
		respondFail(c, http.StatusConflict, "Resource already exists", nil)
	default:
		log.Printf("[%s][err] %v", tag, err)
		respondFail(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// bindJSON binds and validates the body; on false a 400 was already written.
func bindJSON(c *gin.Context, tag string, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Printf("[%s][bind][err] %v", tag, err)
		respondFail(c, http.StatusBadRequest, "Validation failed", bindErrors(err))
		return false
	}
	return true
}

// decodeStrict decodes raw into dst rejecting unknown fields, then runs binding validation.
func decodeStrict(raw json.RawMessage, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON object")
	}
	return binding.Validator.ValidateStruct(dst)
}

func bindErrors(err error) []models.FieldError {
	var (
		ve  validator.ValidationErrors
		ute *json.UnmarshalTypeError
		se  *json.SyntaxError
	)
	switch {
	case errors.As(err, &ve):
		out := make([]models.FieldError, 0, len(ve))
		for _, fe := range ve {
			out = append(out, models.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
		return out
	case errors.As(err, &ute):
		return []models.FieldError{{Field: ute.Field, Message: fmt.Sprintf("must be of type %s", ute.Type)}}
	case errors.As(err, &se), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return []models.FieldError{{Field: "body", Message: "Request body must be valid JSON"}}
	}
	if msg := err.Error(); strings.HasPrefix(msg, "json: unknown field ") {
		return []models.FieldError{{Field: strings.Trim(strings.TrimPrefix(msg, "json: unknown field "), `"`), Message: "Unknown field"}}
	}
	return []models.FieldError{{Field: "body", Message: err.Error()}}
}

// fieldPath drops the top-level struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return "Please provide a valid email"
	case "oneof":
		return f + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", f, fe.Tag())
}
