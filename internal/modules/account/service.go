// README: Account service: sign-up, password reset and update, sign-out, email lookup.
package account

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"vdrop/internal/infra"
	"vdrop/internal/logger"
	"vdrop/internal/modules/identity"
	"vdrop/internal/modules/profile"
	"vdrop/internal/validator"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	ErrForbidden  = errors.New("forbidden")
)

// EmailTakenMessage is the field message shown against the sign-up email.
const EmailTakenMessage = "An account with this email already exists"

// Profiles creates the directory row for a fresh identity; *profile.Service implements it.
type Profiles interface {
	Ensure(ctx context.Context, actor identity.Actor, fullName string) (*profile.Profile, error)
}

type Deps struct {
	Identity      infra.IdentityAdmin
	Mailer        infra.Mailer
	Profiles      Profiles
	ResetRedirect string
	Log           logger.ILogger
}

type Service struct {
	idp           infra.IdentityAdmin
	mailer        infra.Mailer
	profiles      Profiles
	resetRedirect string
	validate      *validator.Validator
	log           logger.ILogger
}

func NewService(deps Deps) *Service {
	s := &Service{
		idp:           deps.Identity,
		mailer:        deps.Mailer,
		profiles:      deps.Profiles,
		resetRedirect: deps.ResetRedirect,
		validate:      validator.New(),
		log:           deps.Log,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	return s
}

type SignUpCommand struct {
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type Session struct {
	UserID string `json:"user_id"`
	// Token is a provider custom token the client exchanges for an ID token.
	Token string `json:"token"`
}

// SignUp creates the identity and its customer profile, then mints a session token.
func (s *Service) SignUp(ctx context.Context, cmd SignUpCommand) (*Session, error) {
	cmd.FullName = strings.TrimSpace(cmd.FullName)
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	if err := s.validate.Validate(cmd); err != nil {
		return nil, err
	}

	uid, err := s.idp.CreateUser(ctx, infra.NewIdentity{
		Email:       cmd.Email,
		Password:    cmd.Password,
		DisplayName: cmd.FullName,
		Role:        string(identity.RoleCustomer),
	})
	if errors.Is(err, infra.ErrIdentityExists) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	actor := identity.Actor{UserID: uid, Email: cmd.Email, Role: identity.RoleCustomer}
	if _, err := s.profiles.Ensure(ctx, actor, cmd.FullName); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	token, err := s.idp.SessionToken(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}
	s.log.Info("account created", logger.String("uid", uid))
	return &Session{UserID: uid, Token: token}, nil
}

// RequestPasswordReset never reports whether the address is registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return
	}
	link, err := s.idp.PasswordResetLink(ctx, email, s.resetRedirect)
	if errors.Is(err, infra.ErrIdentityNotFound) {
		s.log.Debug("password reset for unknown email")
		return
	}
	if err != nil {
		s.log.Error("password reset link failed", logger.Error(err))
		return
	}
	if err := s.mailer.Send(ctx, email, "Reset your Vdrop password", resetBody(link)); err != nil {
		s.log.Error("password reset mail failed", logger.Error(err))
	}
}

type PasswordCommand struct {
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func (s *Service) UpdatePassword(ctx context.Context, actor identity.Actor, cmd PasswordCommand) error {
	if actor.UserID == "" {
		return ErrForbidden
	}
	if err := s.validate.Validate(cmd); err != nil {
		return err
	}
	return s.idp.UpdatePassword(ctx, actor.UserID, cmd.Password)
}

// SignOut revokes every refresh token the user holds.
func (s *Service) SignOut(ctx context.Context, actor identity.Actor) error {
	if actor.UserID == "" {
		return ErrForbidden
	}
	return s.idp.RevokeSessions(ctx, actor.UserID)
}

func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, validator.FieldError("email", "This field is required")
	}
	return s.idp.EmailExists(ctx, email)
}

func resetBody(link string) string {
	return "<p>We received a request to reset your Vdrop password.</p>" +
		`<p><a href="` + html.EscapeString(link) + `">Choose a new password</a></p>` +
		"<p>If you didn't ask for this, you can ignore this email.</p>"
}
