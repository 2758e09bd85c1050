// README: Admin user directory handlers: list, edit role, soft-delete, invite.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vdrop/internal/http/middleware"
	"vdrop/internal/modules/identity"
	"vdrop/internal/modules/profile"
	"vdrop/internal/types"
)

// DirectoryService is satisfied by *profile.Service.
type DirectoryService interface {
	Ensure(ctx context.Context, actor identity.Actor, fullName string) (*profile.Profile, error)
	UpdateMine(ctx context.Context, actor identity.Actor, cmd profile.UpdateSelfCommand) (*profile.Profile, error)
	List(ctx context.Context, actor identity.Actor, f profile.ListFilter) ([]profile.Profile, error)
	EditUser(ctx context.Context, actor identity.Actor, id types.ID, cmd profile.EditCommand) (*profile.Profile, error)
	SoftDelete(ctx context.Context, actor identity.Actor, id types.ID) error
	Invite(ctx context.Context, actor identity.Actor, cmd profile.InviteCommand) (*profile.Profile, error)
}

type UserHandler struct {
	users DirectoryService
}

func NewUserHandler(users DirectoryService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c *gin.Context) {
	f := profile.ListFilter{Query: c.Query("q")}
	if raw := c.Query("role"); raw != "" {
		role, ok := identity.ParseRole(raw)
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid role")
			return
		}
		f.Role = &role
	}
	list, err := h.users.List(c.Request.Context(), middleware.CallerActor(c), f)
	if err != nil {
		writeProfileError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"users": list})
}

func (h *UserHandler) Edit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req profile.EditCommand
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.users.EditUser(c.Request.Context(), middleware.CallerActor(c), id, req)
	if err != nil {
		writeProfileError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.users.SoftDelete(c.Request.Context(), middleware.CallerActor(c), id); err != nil {
		writeProfileError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Invite(c *gin.Context) {
	var req profile.InviteCommand
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.users.Invite(c.Request.Context(), middleware.CallerActor(c), req)
	if err != nil {
		writeProfileError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, p)
}
