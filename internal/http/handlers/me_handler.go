// README: Self-service handlers: session identity, own profile, default address, cities.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vdrop/internal/http/middleware"
	"vdrop/internal/modules/address"
	"vdrop/internal/modules/identity"
	"vdrop/internal/modules/profile"
)

// AddressService is satisfied by *address.Service.
type AddressService interface {
	Cities(ctx context.Context) ([]address.City, error)
	Default(ctx context.Context, actor identity.Actor) (*address.Address, error)
	SetDefault(ctx context.Context, actor identity.Actor, cmd address.DefaultCommand) (*address.Address, error)
}

type MeHandler struct {
	users     DirectoryService
	addresses AddressService
}

func NewMeHandler(users DirectoryService, addresses AddressService) *MeHandler {
	return &MeHandler{users: users, addresses: addresses}
}

type meResponse struct {
	User         meUser                `json:"user"`
	Role         identity.Role         `json:"role"`
	Capabilities identity.Capabilities `json:"capabilities"`
	Profile      *profile.Profile      `json:"profile"`
}

type meUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Me is the first call a signed-in client makes; it also creates the profile row.
func (h *MeHandler) Me(c *gin.Context) {
	actor := middleware.CallerActor(c)
	p, err := h.users.Ensure(c.Request.Context(), actor, "")
	if err != nil {
		writeProfileError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, meResponse{
		User:         meUser{ID: actor.UserID, Email: actor.Email},
		Role:         actor.Role,
		Capabilities: actor.Capabilities,
		Profile:      p,
	})
}

type profileResponse struct {
	Profile *profile.Profile `json:"profile"`
	Address *address.Address `json:"address"`
}

func (h *MeHandler) GetProfile(c *gin.Context) {
	actor := middleware.CallerActor(c)
	p, err := h.users.Ensure(c.Request.Context(), actor, "")
	if err != nil {
		writeProfileError(c, err)
		return
	}
	a, err := h.addresses.Default(c.Request.Context(), actor)
	if err != nil && !errors.Is(err, address.ErrNotFound) {
		writeAddressError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, profileResponse{Profile: p, Address: a})
}

type updateProfileReq struct {
	profile.UpdateSelfCommand
	Address *address.DefaultCommand `json:"address"`
}

// UpdateProfile saves the profile fields, then the default address when one is sent.
func (h *MeHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if !bindJSON(c, &req) {
		return
	}
	actor := middleware.CallerActor(c)
	p, err := h.users.UpdateMine(c.Request.Context(), actor, req.UpdateSelfCommand)
	if err != nil {
		writeProfileError(c, err)
		return
	}
	resp := profileResponse{Profile: p}
	if req.Address != nil {
		a, err := h.addresses.SetDefault(c.Request.Context(), actor, *req.Address)
		if err != nil {
			writeAddressError(c, err)
			return
		}
		resp.Address = a
	}
	writeJSON(c, http.StatusOK, resp)
}

func (h *MeHandler) Cities(c *gin.Context) {
	cities, err := h.addresses.Cities(c.Request.Context())
	if err != nil {
		writeInternal(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"cities": cities})
}
