// README: Pickup service implements booking, status transitions, uploads, and stats.
package pickup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"vdrop/internal/infra"
	"vdrop/internal/logger"
	"vdrop/internal/modules/audit"
	"vdrop/internal/modules/identity"
	"vdrop/internal/types"
	"vdrop/internal/validator"
)

var (
	ErrNotFound      = errors.New("pickup not found")
	ErrInvalidStatus = errors.New("invalid pickup status")
	ErrInvalidState  = errors.New("invalid state transition")
	ErrForbidden     = errors.New("forbidden")
	ErrLabelRequired = errors.New("premium pickup needs a return label first")
)

const maxUploadBytes = 10 << 20

// Repository is satisfied by *Store.
type Repository interface {
	Create(ctx context.Context, p *Pickup) error
	Get(ctx context.Context, id types.ID) (*Pickup, error)
	ListByOwner(ctx context.Context, userID string) ([]Pickup, error)
	ListAll(ctx context.Context, f ListFilter) ([]Pickup, error)
	UpdateStatus(ctx context.Context, id types.ID, expect *Status, to Status) (bool, error)
	SetLabel(ctx context.Context, id types.ID, url string) (bool, error)
	SetDropoffPhoto(ctx context.Context, id types.ID, url string) (bool, error)
	SetTracking(ctx context.Context, id types.ID, number string) (bool, error)
}

type Pricing interface {
	Quote(ctx context.Context, tier string) (types.Money, error)
}

type Recorder interface {
	Append(ctx context.Context, e *audit.Event) error
}

// AddressVerifier is optional; nil skips geocoding.
type AddressVerifier interface {
	VerifyZip(ctx context.Context, address, zip string) error
}

type Buckets struct {
	Labels string
	Photos string
}

type Deps struct {
	Store    Repository
	Pricing  Pricing
	Events   Recorder
	Objects  infra.ObjectStore
	Verifier AddressVerifier
	Buckets  Buckets
	Log      logger.ILogger
	Now      func() time.Time
}

type Service struct {
	store    Repository
	pricing  Pricing
	events   Recorder
	objects  infra.ObjectStore
	verifier AddressVerifier
	buckets  Buckets
	validate *validator.Validator
	log      logger.ILogger
	now      func() time.Time
}

func newValidator() *validator.Validator {
	v := validator.New()
	if err := v.RegisterSet("pickupwindow", PickupWindows, "Please choose a pickup time window"); err != nil {
		panic(fmt.Sprintf("register pickup window rule: %v", err))
	}
	return v
}

func NewService(deps Deps) *Service {
	s := &Service{
		store:    deps.Store,
		pricing:  deps.Pricing,
		events:   deps.Events,
		objects:  deps.Objects,
		verifier: deps.Verifier,
		buckets:  deps.Buckets,
		validate: newValidator(),
		log:      deps.Log,
		now:      deps.Now,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.buckets.Labels == "" {
		s.buckets.Labels = "return-labels"
	}
	if s.buckets.Photos == "" {
		s.buckets.Photos = "dropoff-photos"
	}
	return s
}

type CreateCommand struct {
	ServiceType   string  `json:"service_type" validate:"required,oneof=standard premium"`
	NumberOfBoxes *int    `json:"number_of_boxes" validate:"omitempty,min=1,max=20"`
	ItemSize      *string `json:"item_size" validate:"omitempty,oneof=small medium large"`
	Address       string  `json:"address" validate:"required"`
	Apartment     string  `json:"apartment"`
	City          string  `json:"city" validate:"required"`
	State         string  `json:"state" validate:"required"`
	Zip           string  `json:"pickup_zip" validate:"required,zip"`
	Date          string  `json:"pickup_date" validate:"required,datetime=2006-01-02"`
	Window        string  `json:"pickup_time" validate:"required,pickupwindow"`
}

type TransitionCommand struct {
	PickupID types.ID
	Target   string
}

type Upload struct {
	Data     []byte
	Filename string
}

func (s *Service) Create(ctx context.Context, actor identity.Actor, cmd CreateCommand) (*Pickup, error) {
	if actor.UserID == "" {
		return nil, ErrForbidden
	}
	if err := s.validateCreate(ctx, cmd); err != nil {
		return nil, err
	}
	price, err := s.pricing.Quote(ctx, cmd.ServiceType)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &Pickup{
		ID:            types.NewID(),
		UserID:        actor.UserID,
		ServiceType:   ServiceType(cmd.ServiceType),
		Price:         price.Amount,
		PickupAddress: composeAddress(cmd),
		PickupZip:     strings.ToUpper(strings.TrimSpace(cmd.Zip)),
		PickupDate:    cmd.Date,
		PickupTime:    cmd.Window,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.ServiceType == ServiceStandard {
		n := *cmd.NumberOfBoxes
		p.NumberOfBoxes = &n
	} else {
		size := ItemSize(*cmd.ItemSize)
		p.ItemSize = &size
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.record(ctx, audit.Change(audit.EntityPickup, string(p.ID), actor.UserID, audit.ActionStatus, "", string(StatusPending)))
	return p, nil
}

func (s *Service) validateCreate(ctx context.Context, cmd CreateCommand) error {
	if err := s.validate.Validate(cmd); err != nil {
		return err
	}
	switch ServiceType(cmd.ServiceType) {
	case ServiceStandard:
		if cmd.NumberOfBoxes == nil {
			return validator.FieldError("number_of_boxes", "This field is required")
		}
		if cmd.ItemSize != nil {
			return validator.FieldError("item_size", "Item size only applies to premium pickups")
		}
	case ServicePremium:
		if cmd.ItemSize == nil {
			return validator.FieldError("item_size", "This field is required")
		}
		if cmd.NumberOfBoxes != nil {
			return validator.FieldError("number_of_boxes", "Box count only applies to standard pickups")
		}
	}
	day, err := time.Parse("2006-01-02", cmd.Date)
	if err != nil {
		return validator.FieldError("pickup_date", "Please enter a valid date")
	}
	today := s.now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return validator.FieldError("pickup_date", "Pickup date cannot be in the past")
	}
	if s.verifier != nil {
		if err := s.verifier.VerifyZip(ctx, composeAddress(cmd), cmd.Zip); err != nil {
			return err
		}
	}
	return nil
}

func composeAddress(cmd CreateCommand) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(cmd.Address))
	if apt := strings.TrimSpace(cmd.Apartment); apt != "" {
		b.WriteString(", ")
		b.WriteString(apt)
	}
	b.WriteString(", ")
	b.WriteString(strings.TrimSpace(cmd.City))
	b.WriteString(", ")
	b.WriteString(strings.TrimSpace(cmd.State))
	return b.String()
}

// Get hides pickups the caller may not read behind ErrNotFound.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id types.ID) (*Pickup, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(p.UserID) && !actor.Can(identity.CapViewAdmin) {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListMine(ctx context.Context, actor identity.Actor) ([]Pickup, error) {
	if actor.UserID == "" {
		return nil, ErrForbidden
	}
	return s.store.ListByOwner(ctx, actor.UserID)
}

func (s *Service) ListAll(ctx context.Context, actor identity.Actor, f ListFilter) ([]Pickup, error) {
	if !actor.Can(identity.CapViewAdmin) {
		return nil, ErrForbidden
	}
	return s.store.ListAll(ctx, f)
}

// Transition applies a staff status change. Any non-terminal pickup may move
// to any status; same-status requests are accepted without a write.
func (s *Service) Transition(ctx context.Context, actor identity.Actor, cmd TransitionCommand) (*Pickup, error) {
	if !actor.Can(identity.CapMutatePickups) {
		return nil, ErrForbidden
	}
	to, err := ParseStatus(cmd.Target)
	if err != nil {
		return nil, err
	}
	p, err := s.store.Get(ctx, cmd.PickupID)
	if err != nil {
		return nil, err
	}
	if !IsValidTransition(p.Status, to) {
		return nil, ErrInvalidState
	}
	if p.ServiceType == ServicePremium && p.LabelFileURL == nil && needsLabel(to) {
		return nil, ErrLabelRequired
	}
	if p.Status == to {
		return p, nil
	}

	ok, err := s.store.UpdateStatus(ctx, p.ID, nil, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	s.record(ctx, audit.Change(audit.EntityPickup, string(p.ID), actor.UserID, audit.ActionStatus, string(p.Status), string(to)))
	return s.store.Get(ctx, p.ID)
}

// RequestCancel lets the owner withdraw a pickup nobody has been assigned to yet.
func (s *Service) RequestCancel(ctx context.Context, actor identity.Actor, id types.ID) (*Pickup, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(p.UserID) {
		return nil, ErrNotFound
	}
	if p.Status != StatusPending {
		return nil, ErrInvalidState
	}
	from := StatusPending
	ok, err := s.store.UpdateStatus(ctx, p.ID, &from, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}
	s.record(ctx, audit.Change(audit.EntityPickup, string(p.ID), actor.UserID, audit.ActionCancelRequest, string(StatusPending), string(StatusCancelled)))
	return s.store.Get(ctx, p.ID)
}

// AttachLabel stores a premium return label PDF under {userId}/{millis}.pdf.
func (s *Service) AttachLabel(ctx context.Context, actor identity.Actor, id types.ID, file Upload) (*Pickup, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(p.UserID) && !actor.Can(identity.CapMutatePickups) {
		return nil, ErrForbidden
	}
	if p.ServiceType != ServicePremium {
		return nil, validator.FieldError("label_file", "Return labels only apply to premium pickups")
	}
	if p.Status.IsTerminal() {
		return nil, ErrInvalidState
	}
	if err := checkUpload(file, "label_file"); err != nil {
		return nil, err
	}
	if !mimetype.Detect(file.Data).Is("application/pdf") {
		return nil, validator.FieldError("label_file", "Please upload a PDF file")
	}

	key := fmt.Sprintf("%s/%d.pdf", p.UserID, s.now().UnixMilli())
	url, err := s.upload(ctx, s.buckets.Labels, key, "application/pdf", file.Data)
	if err != nil {
		return nil, err
	}
	if ok, err := s.store.SetLabel(ctx, p.ID, url); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, p.ID)
}

// SetDropoffPhoto records proof of dropoff on a completed pickup.
func (s *Service) SetDropoffPhoto(ctx context.Context, actor identity.Actor, id types.ID, file Upload) (*Pickup, error) {
	if !actor.Can(identity.CapMutatePickups) {
		return nil, ErrForbidden
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusCompleted {
		return nil, ErrInvalidState
	}
	if err := checkUpload(file, "photo"); err != nil {
		return nil, err
	}
	mt := mimetype.Detect(file.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, validator.FieldError("photo", "Please upload an image")
	}

	key := fmt.Sprintf("%s/%d%s", p.ID, s.now().UnixMilli(), mt.Extension())
	url, err := s.upload(ctx, s.buckets.Photos, key, mt.String(), file.Data)
	if err != nil {
		return nil, err
	}
	if ok, err := s.store.SetDropoffPhoto(ctx, p.ID, url); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, p.ID)
}

func (s *Service) SetTracking(ctx context.Context, actor identity.Actor, id types.ID, number string) (*Pickup, error) {
	if !actor.Can(identity.CapMutatePickups) {
		return nil, ErrForbidden
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, validator.FieldError("tracking_number", "This field is required")
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.SetTracking(ctx, p.ID, number)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	old := ""
	if p.TrackingNumber != nil {
		old = *p.TrackingNumber
	}
	s.record(ctx, audit.Change(audit.EntityPickup, string(p.ID), actor.UserID, audit.ActionTracking, old, number))
	return s.store.Get(ctx, p.ID)
}

// Stats recomputes the admin aggregates from the full pickup set.
func (s *Service) Stats(ctx context.Context, actor identity.Actor) (Stats, error) {
	all, err := s.ListAll(ctx, actor, ListFilter{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(all), nil
}

func (s *Service) MyStats(ctx context.Context, actor identity.Actor) (CustomerStats, error) {
	mine, err := s.ListMine(ctx, actor)
	if err != nil {
		return CustomerStats{}, err
	}
	return ComputeCustomerStats(mine, s.now()), nil
}

func (s *Service) upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	if s.objects == nil {
		return "", errors.New("object storage not configured")
	}
	if err := s.objects.Upload(ctx, bucket, key, contentType, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return s.objects.PublicURL(bucket, key), nil
}

func checkUpload(file Upload, field string) error {
	if len(file.Data) == 0 {
		return validator.FieldError(field, "This field is required")
	}
	if len(file.Data) > maxUploadBytes {
		return validator.FieldError(field, "File must be 10 MB or smaller")
	}
	return nil
}

// record appends a change event; the mutation already succeeded, so failures are logged only.
func (s *Service) record(ctx context.Context, e *audit.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, e); err != nil {
		s.log.Warning("append change event failed",
			logger.String("entity_id", e.EntityID),
			logger.String("action", e.Action),
			logger.Error(err),
		)
	}
}
