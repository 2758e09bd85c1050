// README: Admin console pickup handlers: board, status changes, proof of dropoff, stats, history.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vdrop/internal/http/middleware"
	"vdrop/internal/modules/audit"
	"vdrop/internal/modules/pickup"
)

// EventLog is satisfied by *audit.Store.
type EventLog interface {
	ListByEntity(ctx context.Context, entity audit.EntityType, id string) ([]audit.Event, error)
}

type AdminHandler struct {
	pickups PickupService
	events  EventLog
}

func NewAdminHandler(pickups PickupService, events EventLog) *AdminHandler {
	return &AdminHandler{pickups: pickups, events: events}
}

func (h *AdminHandler) ListPickups(c *gin.Context) {
	f := pickup.ListFilter{Query: c.Query("q")}
	if raw := c.Query("status"); raw != "" {
		st, err := pickup.ParseStatus(raw)
		if err != nil {
			writePickupError(c, err)
			return
		}
		f.Status = &st
	}
	list, err := h.pickups.ListAll(c.Request.Context(), middleware.CallerActor(c), f)
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"pickups": list})
}

type transitionReq struct {
	Status string `json:"status"`
}

func (h *AdminHandler) Transition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transitionReq
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.pickups.Transition(c.Request.Context(), middleware.CallerActor(c), pickup.TransitionCommand{
		PickupID: id,
		Target:   req.Status,
	})
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *AdminHandler) UploadPhoto(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	file, ok := formFile(c, "photo")
	if !ok {
		return
	}
	p, err := h.pickups.SetDropoffPhoto(c.Request.Context(), middleware.CallerActor(c), id, file)
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

type trackingReq struct {
	TrackingNumber string `json:"tracking_number"`
}

func (h *AdminHandler) SetTracking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req trackingReq
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.pickups.SetTracking(c.Request.Context(), middleware.CallerActor(c), id, req.TrackingNumber)
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	st, err := h.pickups.Stats(c.Request.Context(), middleware.CallerActor(c))
	if err != nil {
		writePickupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st)
}

// History lists the change events of one pickup, oldest first.
func (h *AdminHandler) History(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	events, err := h.events.ListByEntity(c.Request.Context(), audit.EntityPickup, string(id))
	if err != nil {
		writeInternal(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"events": events})
}
