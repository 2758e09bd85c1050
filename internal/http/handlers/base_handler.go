// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"vdrop/internal/modules/account"
	"vdrop/internal/modules/address"
	"vdrop/internal/modules/identity"
	"vdrop/internal/modules/pickup"
	"vdrop/internal/modules/pricing"
	"vdrop/internal/modules/profile"
	"vdrop/internal/types"
	"vdrop/internal/validator"
)

// maxMultipartBytes leaves headroom over the 10MB upload limit for form overhead.
const maxMultipartBytes = 11 << 20

type errorResponse struct {
	Error       string            `json:"error,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Retryable   bool              `json:"retryable,omitempty"`
	Redirect    string            `json:"redirect,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeFieldError(c *gin.Context, status int, field, msg string) {
	writeJSON(c, status, errorResponse{FieldErrors: map[string]string{field: msg}})
}

func writeDenied(c *gin.Context) {
	writeJSON(c, http.StatusForbidden, errorResponse{Error: identity.AccessDeniedTitle, Redirect: identity.DashboardPath})
}

// writeInternal hides the cause from the client; the logging middleware
// reports it from c.Errors.
func writeInternal(c *gin.Context, err error) {
	_ = c.Error(err)
	writeJSON(c, http.StatusInternalServerError, errorResponse{Error: "internal error", Retryable: true})
}

func writeValidation(c *gin.Context, err error) bool {
	ve, ok := validator.AsValidation(err)
	if !ok {
		return false
	}
	writeJSON(c, http.StatusBadRequest, errorResponse{Error: "validation failed", FieldErrors: ve.Errors})
	return true
}

// bindJSON writes a 400 and returns false when the body is not valid JSON.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func pathID(c *gin.Context) (types.ID, bool) {
	id, ok := types.ParseID(c.Param("id"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return id, true
}

// formFile reads one multipart file field into memory.
func formFile(c *gin.Context, field string) (pickup.Upload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMultipartBytes)
	fh, err := c.FormFile(field)
	if err != nil {
		writeFieldError(c, http.StatusBadRequest, field, "Please choose a file")
		return pickup.Upload{}, false
	}
	f, err := fh.Open()
	if err != nil {
		writeInternal(c, err)
		return pickup.Upload{}, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeInternal(c, err)
		return pickup.Upload{}, false
	}
	return pickup.Upload{Data: data, Filename: fh.Filename}, true
}

func writePickupError(c *gin.Context, err error) {
	if writeValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, pickup.ErrInvalidStatus), errors.Is(err, pricing.ErrUnknownTier):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, pickup.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, pickup.ErrInvalidState), errors.Is(err, pickup.ErrLabelRequired):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, pickup.ErrForbidden):
		writeDenied(c)
	default:
		writeInternal(c, err)
	}
}

func writeProfileError(c *gin.Context, err error) {
	if writeValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, profile.ErrUserExists):
		writeFieldError(c, http.StatusConflict, "email", profile.UserExistsMessage)
	case errors.Is(err, profile.ErrBadRequest):
		writeError(c, http.StatusBadRequest, "You cannot deactivate your own account")
	case errors.Is(err, profile.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, profile.ErrForbidden):
		writeDenied(c)
	default:
		writeInternal(c, err)
	}
}

func writeAccountError(c *gin.Context, err error) {
	if writeValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, account.ErrEmailTaken):
		writeFieldError(c, http.StatusConflict, "email", account.EmailTakenMessage)
	case errors.Is(err, account.ErrForbidden):
		writeError(c, http.StatusUnauthorized, "unauthorized")
	default:
		writeInternal(c, err)
	}
}

func writeAddressError(c *gin.Context, err error) {
	if writeValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, address.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, address.ErrForbidden):
		writeError(c, http.StatusUnauthorized, "unauthorized")
	default:
		writeInternal(c, err)
	}
}
