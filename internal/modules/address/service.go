// README: Address service: default-address upsert and city lookup.
package address

import (
	"context"
	"errors"
	"strings"

	"vdrop/internal/modules/identity"
	"vdrop/internal/types"
	"vdrop/internal/validator"
)

var (
	ErrNotFound    = errors.New("address not found")
	ErrUnknownCity = errors.New("unknown city")
	ErrForbidden   = errors.New("forbidden")
)

// Repository is satisfied by *Store.
type Repository interface {
	ListCities(ctx context.Context) ([]City, error)
	GetCity(ctx context.Context, id types.ID) (*City, error)
	GetDefault(ctx context.Context, userID string) (*Address, error)
	UpsertDefault(ctx context.Context, a *Address) error
}

type Service struct {
	store    Repository
	validate *validator.Validator
}

func NewService(store Repository) *Service {
	return &Service{store: store, validate: validator.New()}
}

type DefaultCommand struct {
	StreetAddress string `json:"street_address" validate:"required"`
	Unit          string `json:"unit"`
	CityID        string `json:"city_id" validate:"required,uuid"`
	ZipCode       string `json:"zip_code" validate:"required,zip"`
}

func (s *Service) Cities(ctx context.Context) ([]City, error) {
	return s.store.ListCities(ctx)
}

func (s *Service) Default(ctx context.Context, actor identity.Actor) (*Address, error) {
	if actor.UserID == "" {
		return nil, ErrForbidden
	}
	return s.store.GetDefault(ctx, actor.UserID)
}

func (s *Service) SetDefault(ctx context.Context, actor identity.Actor, cmd DefaultCommand) (*Address, error) {
	if actor.UserID == "" {
		return nil, ErrForbidden
	}
	cmd.StreetAddress = strings.TrimSpace(cmd.StreetAddress)
	cmd.ZipCode = strings.ToUpper(strings.TrimSpace(cmd.ZipCode))
	if err := s.validate.Validate(cmd); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCity(ctx, types.ID(cmd.CityID)); err != nil {
		if errors.Is(err, ErrUnknownCity) {
			return nil, validator.FieldError("city_id", "We don't serve this city yet")
		}
		return nil, err
	}
	a := &Address{
		ID:            types.NewID(),
		UserID:        actor.UserID,
		StreetAddress: cmd.StreetAddress,
		CityID:        types.ID(cmd.CityID),
		ZipCode:       cmd.ZipCode,
		IsDefault:     true,
	}
	if unit := strings.TrimSpace(cmd.Unit); unit != "" {
		a.Unit = &unit
	}
	if err := s.store.UpsertDefault(ctx, a); err != nil {
		return nil, err
	}
	return s.store.GetDefault(ctx, actor.UserID)
}
