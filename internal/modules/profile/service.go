// README: User directory service: self profile, admin edits, soft-delete, and invitations.
package profile

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"vdrop/internal/infra"
	"vdrop/internal/logger"
	"vdrop/internal/modules/audit"
	"vdrop/internal/modules/identity"
	"vdrop/internal/types"
	"vdrop/internal/validator"
)

var (
	ErrNotFound   = errors.New("profile not found")
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("forbidden")
	ErrUserExists = errors.New("user already exists")
)

// UserExistsMessage is the field message shown against the invite email.
const UserExistsMessage = "User already exists with this email"

// Repository is satisfied by *Store.
type Repository interface {
	Get(ctx context.Context, id types.ID) (*Profile, error)
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	List(ctx context.Context, f ListFilter) ([]Profile, error)
	EnsureExists(ctx context.Context, p *Profile) (bool, error)
	UpsertSelf(ctx context.Context, p *Profile) error
	UpdateAdmin(ctx context.Context, id types.ID, e AdminEdit) (bool, error)
	SoftDelete(ctx context.Context, id types.ID) (bool, error)
}

// Invalidator drops cached capabilities; *identity.Resolver implements it.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string)
}

type Recorder interface {
	Append(ctx context.Context, e *audit.Event) error
}

type Deps struct {
	Store          Repository
	Identity       infra.IdentityAdmin
	Mailer         infra.Mailer
	Capabilities   Invalidator
	Events         Recorder
	InviteRedirect string
	Log            logger.ILogger
}

type Service struct {
	store          Repository
	idp            infra.IdentityAdmin
	mailer         infra.Mailer
	caps           Invalidator
	events         Recorder
	inviteRedirect string
	validate       *validator.Validator
	log            logger.ILogger
}

func NewService(deps Deps) *Service {
	s := &Service{
		store:          deps.Store,
		idp:            deps.Identity,
		mailer:         deps.Mailer,
		caps:           deps.Capabilities,
		events:         deps.Events,
		inviteRedirect: deps.InviteRedirect,
		validate:       validator.New(),
		log:            deps.Log,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	return s
}

// Ensure returns the caller's profile, creating a row on first sight. A new
// row takes the provider role claim (set only by Invite or EditUser) and
// defaults to customer; an existing row is never touched.
func (s *Service) Ensure(ctx context.Context, actor identity.Actor, fullName string) (*Profile, error) {
	if actor.UserID == "" {
		return nil, ErrForbidden
	}
	role := identity.RoleCustomer
	if actor.ClaimRole != "" {
		role = actor.ClaimRole
	}
	created, err := s.store.EnsureExists(ctx, &Profile{
		ID:       types.NewID(),
		UserID:   actor.UserID,
		Email:    actor.Email,
		FullName: strings.TrimSpace(fullName),
		Role:     role,
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("profile created", logger.String("uid", actor.UserID), logger.String("role", string(role)))
	}
	return s.store.GetByUserID(ctx, actor.UserID)
}

type UpdateSelfCommand struct {
	FullName       string `json:"full_name" validate:"required"`
	Phone          string `json:"phone" validate:"omitempty,phone10"`
	MarketingEmail bool   `json:"notification_marketing_email"`
}

// UpdateMine writes the owner-editable fields. Phone input is reduced to digits first.
func (s *Service) UpdateMine(ctx context.Context, actor identity.Actor, cmd UpdateSelfCommand) (*Profile, error) {
	if actor.UserID == "" {
		return nil, ErrForbidden
	}
	cmd.FullName = strings.TrimSpace(cmd.FullName)
	cmd.Phone = validator.DigitsOnly(cmd.Phone)
	if err := s.validate.Validate(cmd); err != nil {
		return nil, err
	}
	err := s.store.UpsertSelf(ctx, &Profile{
		ID:             types.NewID(),
		UserID:         actor.UserID,
		Email:          actor.Email,
		FullName:       cmd.FullName,
		Phone:          optional(cmd.Phone),
		MarketingEmail: cmd.MarketingEmail,
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetByUserID(ctx, actor.UserID)
}

func (s *Service) List(ctx context.Context, actor identity.Actor, f ListFilter) ([]Profile, error) {
	if !actor.Can(identity.CapManageUsers) {
		return nil, ErrForbidden
	}
	return s.store.List(ctx, f)
}

type EditCommand struct {
	Role     string  `json:"role" validate:"required,oneof=customer driver admin"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone" validate:"omitempty,phone10"`
}

// EditUser applies an admin edit. The database row is authoritative; the
// provider claim is synced best-effort after the write.
func (s *Service) EditUser(ctx context.Context, actor identity.Actor, id types.ID, cmd EditCommand) (*Profile, error) {
	if !actor.Can(identity.CapManageUsers) {
		return nil, ErrForbidden
	}
	edit := AdminEdit{}
	if cmd.FullName != nil {
		name := strings.TrimSpace(*cmd.FullName)
		if name == "" {
			return nil, validator.FieldError("full_name", "This field is required")
		}
		edit.FullName = &name
	}
	if cmd.Phone != nil {
		digits := validator.DigitsOnly(*cmd.Phone)
		cmd.Phone = &digits
		edit.SetPhone = true
		edit.Phone = optional(digits)
	}
	if err := s.validate.Validate(cmd); err != nil {
		return nil, err
	}
	role, ok := identity.ParseRole(cmd.Role)
	if !ok {
		return nil, validator.FieldError("role", "Please choose a valid role")
	}
	edit.Role = role

	before, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.DeletedAt != nil {
		return nil, ErrNotFound
	}
	updated, err := s.store.UpdateAdmin(ctx, id, edit)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrNotFound
	}
	if s.caps != nil {
		s.caps.Invalidate(ctx, before.UserID)
	}
	if before.Role != role {
		if s.idp != nil {
			if err := s.idp.SetRole(ctx, before.UserID, string(role)); err != nil {
				s.log.Warning("role claim sync failed", logger.String("uid", before.UserID), logger.Error(err))
			}
		}
		s.record(ctx, audit.Change(audit.EntityProfile, string(id), actor.UserID, audit.ActionRole, string(before.Role), string(role)))
	}
	return s.store.Get(ctx, id)
}

// SoftDelete hides the profile from the directory and drops its capabilities.
// Pickups owned by the user are left untouched.
func (s *Service) SoftDelete(ctx context.Context, actor identity.Actor, id types.ID) error {
	if !actor.Can(identity.CapManageUsers) {
		return ErrForbidden
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID == actor.UserID {
		return ErrBadRequest
	}
	ok, err := s.store.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if s.caps != nil {
		s.caps.Invalidate(ctx, p.UserID)
	}
	if s.idp != nil {
		if err := s.idp.RevokeSessions(ctx, p.UserID); err != nil {
			s.log.Warning("session revoke failed", logger.String("uid", p.UserID), logger.Error(err))
		}
	}
	s.record(ctx, audit.Change(audit.EntityProfile, string(id), actor.UserID, audit.ActionDeactivate, "", "deleted"))
	return nil
}

type InviteCommand struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name"`
	Role     string `json:"role" validate:"omitempty,oneof=customer driver admin"`
}

// Invite provisions an identity, adds the directory row, then mails the
// credential-setup link. The row is written before the mail so a failed
// delivery leaves a listed user who can recover through password reset.
func (s *Service) Invite(ctx context.Context, actor identity.Actor, cmd InviteCommand) (*Profile, error) {
	if !actor.Can(identity.CapManageUsers) {
		return nil, ErrForbidden
	}
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	cmd.FullName = strings.TrimSpace(cmd.FullName)
	if err := s.validate.Validate(cmd); err != nil {
		return nil, err
	}
	role := identity.RoleCustomer
	if cmd.Role != "" {
		role = identity.Role(cmd.Role)
	}

	uid, err := s.idp.CreateUser(ctx, infra.NewIdentity{
		Email:       cmd.Email,
		DisplayName: cmd.FullName,
		Role:        string(role),
	})
	if errors.Is(err, infra.ErrIdentityExists) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	if _, err := s.store.EnsureExists(ctx, &Profile{
		ID:       types.NewID(),
		UserID:   uid,
		Email:    cmd.Email,
		FullName: cmd.FullName,
		Role:     role,
	}); err != nil {
		return nil, err
	}
	p, err := s.store.GetByUserID(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.Change(audit.EntityProfile, string(p.ID), actor.UserID, audit.ActionInvite, "", string(role)))

	link, err := s.idp.PasswordResetLink(ctx, cmd.Email, s.inviteRedirect)
	if err != nil {
		return nil, fmt.Errorf("invite link: %w", err)
	}
	if err := s.mailer.Send(ctx, cmd.Email, "You're invited to Vdrop", inviteBody(cmd.FullName, link)); err != nil {
		return nil, fmt.Errorf("send invite: %w", err)
	}
	return p, nil
}

func (s *Service) record(ctx context.Context, e *audit.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, e); err != nil {
		s.log.Error("append change event failed",
			logger.String("entity_id", e.EntityID), logger.String("action", e.Action), logger.Error(err))
	}
}

func inviteBody(name, link string) string {
	greeting := "Hi,"
	if name != "" {
		greeting = "Hi " + html.EscapeString(name) + ","
	}
	return "<p>" + greeting + "</p>" +
		"<p>An account has been created for you on Vdrop. Set your password to get started:</p>" +
		`<p><a href="` + html.EscapeString(link) + `">Set up your account</a></p>`
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
