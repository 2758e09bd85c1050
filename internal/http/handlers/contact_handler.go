// README: Public contact form handler.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vdrop/internal/modules/contact"
)

// ContactService is satisfied by *contact.Service.
type ContactService interface {
	Submit(ctx context.Context, cmd contact.SubmitCommand) (*contact.Submission, error)
}

type ContactHandler struct {
	contact ContactService
}

func NewContactHandler(svc ContactService) *ContactHandler {
	return &ContactHandler{contact: svc}
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var req contact.SubmitCommand
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.contact.Submit(c.Request.Context(), req)
	if err != nil {
		if writeValidation(c, err) {
			return
		}
		writeInternal(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"id": sub.ID})
}
