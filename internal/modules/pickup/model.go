// README: Pickup aggregate, status set, and transition rule.
package pickup

import (
	"time"

	"vdrop/internal/types"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusDriverAssigned Status = "driver_assigned"
	StatusPickedUp       Status = "picked_up"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// Statuses is the full lifecycle in display order.
var Statuses = []Status{StatusPending, StatusDriverAssigned, StatusPickedUp, StatusCompleted, StatusCancelled}

// legacyAliases are accepted on input and never persisted.
var legacyAliases = map[string]Status{
	"confirmed": StatusDriverAssigned,
	"delivered": StatusCompleted,
}

func ParseStatus(v string) (Status, error) {
	for _, s := range Statuses {
		if string(s) == v {
			return s, nil
		}
	}
	if s, ok := legacyAliases[v]; ok {
		return s, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsActive covers the in-flight states counted as "active" on the dashboard.
func (s Status) IsActive() bool {
	return s == StatusDriverAssigned || s == StatusPickedUp
}

// AllowedTransitions is deliberately permissive: staff may correct a pickup
// to any state, including skipping ahead, but terminal states are final.
var AllowedTransitions = func() map[Status][]Status {
	m := make(map[Status][]Status)
	for _, from := range Statuses {
		if from.IsTerminal() {
			continue
		}
		m[from] = append([]Status(nil), Statuses...)
	}
	return m
}()

func IsValidTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type ServiceType string

const (
	ServiceStandard ServiceType = "standard"
	ServicePremium  ServiceType = "premium"
)

type ItemSize string

const (
	SizeSmall  ItemSize = "small"
	SizeMedium ItemSize = "medium"
	SizeLarge  ItemSize = "large"
)

// PickupWindows are the bookable time slots.
var PickupWindows = []string{"9am-12pm", "12pm-3pm", "3pm-6pm"}

// needsLabel reports whether moving to s requires a premium label on file.
func needsLabel(s Status) bool {
	return s == StatusPickedUp || s == StatusCompleted
}

type Pickup struct {
	ID              types.ID    `json:"id"`
	UserID          string      `json:"user_id"`
	ServiceType     ServiceType `json:"service_type"`
	Price           int64       `json:"price"`
	NumberOfBoxes   *int        `json:"number_of_boxes"`
	ItemSize        *ItemSize   `json:"item_size"`
	LabelFileURL    *string     `json:"label_file_url"`
	PickupAddress   string      `json:"pickup_address"`
	PickupZip       string      `json:"pickup_zip"`
	PickupDate      string      `json:"pickup_date"`
	PickupTime      string      `json:"pickup_time"`
	Status          Status      `json:"status"`
	DropoffPhotoURL *string     `json:"dropoff_photo_url"`
	TrackingNumber  *string     `json:"tracking_number"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	// Owner columns are only populated by the admin listing.
	OwnerName  *string `json:"owner_name,omitempty"`
	OwnerPhone *string `json:"owner_phone,omitempty"`
}

type ListFilter struct {
	Query  string
	Status *Status
}
