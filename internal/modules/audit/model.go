// README: Append-only change events for pickup status and profile edits.
package audit

import "time"

type EntityType string

const (
	EntityPickup  EntityType = "pickup"
	EntityProfile EntityType = "profile"
)

const (
	ActionStatus        = "status"
	ActionCancelRequest = "cancel_request"
	ActionRole          = "role"
	ActionDeactivate    = "deactivate"
	ActionInvite        = "invite"
	ActionTracking      = "tracking"
)

type Event struct {
	ID         int64      `json:"id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	ActorID    string     `json:"actor_id"`
	Action     string     `json:"action"`
	OldValue   *string    `json:"old_value,omitempty"`
	NewValue   *string    `json:"new_value,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Change is a convenience constructor for a two-valued edit.
func Change(entity EntityType, id, actor, action, from, to string) *Event {
	return &Event{
		EntityType: entity,
		EntityID:   id,
		ActorID:    actor,
		Action:     action,
		OldValue:   strPtr(from),
		NewValue:   strPtr(to),
		CreatedAt:  time.Now().UTC(),
	}
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
