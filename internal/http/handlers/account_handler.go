// README: Account handlers: sign-up, password reset and change, sign-out, email lookup.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vdrop/internal/http/middleware"
	"vdrop/internal/modules/account"
	"vdrop/internal/modules/identity"
)

// AccountService is satisfied by *account.Service.
type AccountService interface {
	SignUp(ctx context.Context, cmd account.SignUpCommand) (*account.Session, error)
	RequestPasswordReset(ctx context.Context, email string)
	UpdatePassword(ctx context.Context, actor identity.Actor, cmd account.PasswordCommand) error
	SignOut(ctx context.Context, actor identity.Actor) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

type AccountHandler struct {
	accounts AccountService
}

func NewAccountHandler(accounts AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) SignUp(c *gin.Context) {
	var req account.SignUpCommand
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.accounts.SignUp(c.Request.Context(), req)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, sess)
}

type resetReq struct {
	Email string `json:"email"`
}

// PasswordReset always answers 204.
func (h *AccountHandler) PasswordReset(c *gin.Context) {
	var req resetReq
	_ = c.ShouldBindJSON(&req)
	h.accounts.RequestPasswordReset(c.Request.Context(), req.Email)
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) UpdatePassword(c *gin.Context) {
	var req account.PasswordCommand
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.UpdatePassword(c.Request.Context(), middleware.CallerActor(c), req); err != nil {
		writeAccountError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) SignOut(c *gin.Context) {
	if err := h.accounts.SignOut(c.Request.Context(), middleware.CallerActor(c)); err != nil {
		writeAccountError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) EmailExists(c *gin.Context) {
	exists, err := h.accounts.EmailExists(c.Request.Context(), c.Query("email"))
	if err != nil {
		writeAccountError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"exists": exists})
}
