// README: Customer pickup handlers: book, list, view, cancel, label upload, stats.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vdrop/internal/http/middleware"
	"vdrop/internal/modules/identity"
	"vdrop/internal/modules/pickup"
	"vdrop/internal/modules/pricing"
	"vdrop/internal/types"
)

// PickupService is satisfied by *pickup.Service.
type PickupService interface {
	Create(ctx context.Context, actor identity.Actor, cmd pickup.CreateCommand) (*pickup.Pickup, error)
	Get(ctx context.Context, actor identity.Actor, id types.ID) (*pickup.Pickup, error)
	ListMine(ctx context.Context, actor identity.Actor) ([]pickup.Pickup, error)
	ListAll(ctx context.Context, actor identity.Actor, f pickup.ListFilter) ([]pickup.Pickup, error)
	Transition(ctx context.Context, actor identity.Actor, cmd pickup.TransitionCommand) (*pickup.Pickup, error)
	RequestCancel(ctx context.Context, actor identity.Actor, id types.ID) (*pickup.Pickup, error)
	AttachLabel(ctx context.Context, actor identity.Actor, id types.ID, file pickup.Upload) (*pickup.Pickup, error)
	SetDropoffPhoto(ctx context.Context, actor identity.Actor, id types.ID, file pickup.Upload) (*pickup.Pickup, error)
	SetTracking(ctx context.Context, actor identity.Actor, id types.ID, number string) (*pickup.Pickup, error)
	Stats(ctx context.Context, actor identity.Actor) (pickup.Stats, error)
	MyStats(ctx context.Context, actor identity.Actor) (pickup.CustomerStats, error)
}

// RateCard is satisfied by *pricing.Service.
type RateCard interface {
	Rates() []pricing.Rate
}

type PickupHandler struct {
	pickups PickupService
	rates   RateCard
}

func NewPickupHandler(pickups PickupService, rates RateCard) *PickupHandler {
	return &PickupHandler{pickups: pickups, rates: rates}
}

func (h *PickupHandler) Rates(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"rates": h.rates.Rates(), "windows": pickup.PickupWindows})
}

func (h *PickupHandler) Create(c *gin.Context) {
	var req pickup.CreateCommand
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.pickups.Create(c.Request.Context(), middleware.CallerActor(c), req)
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, p)
}

func (h *PickupHandler) ListMine(c *gin.Context) {
	list, err := h.pickups.ListMine(c.Request.Context(), middleware.CallerActor(c))
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"pickups": list})
}

func (h *PickupHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.pickups.Get(c.Request.Context(), middleware.CallerActor(c), id)
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *PickupHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.pickups.RequestCancel(c.Request.Context(), middleware.CallerActor(c), id)
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *PickupHandler) AttachLabel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	file, ok := formFile(c, "label_file")
	if !ok {
		return
	}
	p, err := h.pickups.AttachLabel(c.Request.Context(), middleware.CallerActor(c), id, file)
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *PickupHandler) MyStats(c *gin.Context) {
	st, err := h.pickups.MyStats(c.Request.Context(), middleware.CallerActor(c))
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st)
}
