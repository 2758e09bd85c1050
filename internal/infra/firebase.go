// README: Firebase Admin SDK initialisation; token verifier and identity administration.
package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var (
	ErrIdentityExists   = errors.New("identity already exists")
	ErrIdentityNotFound = errors.New("identity not found")
)

// FirebaseToken holds the verified token data used by downstream middleware.
type FirebaseToken struct {
	UID    string
	Email  string
	Claims map[string]interface{}
}

// TokenVerifier verifies a raw Firebase ID token string and returns token data.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error)
}

// NewIdentity describes an account provisioned on behalf of a user or an admin invite.
type NewIdentity struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// IdentityAdmin is the server-side half of the auth provider.
type IdentityAdmin interface {
	CreateUser(ctx context.Context, in NewIdentity) (string, error)
	SetRole(ctx context.Context, uid, role string) error
	PasswordResetLink(ctx context.Context, email, redirectURL string) (string, error)
	UpdatePassword(ctx context.Context, uid, password string) error
	RevokeSessions(ctx context.Context, uid string) error
	SessionToken(ctx context.Context, uid string) (string, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// FirebaseIdentity is the production implementation backed by the Firebase Admin SDK.
type FirebaseIdentity struct {
	client *auth.Client
}

// NewFirebaseIdentity creates the auth client.
// If credentialsFile is non-empty it is used as the service-account JSON path;
// otherwise application-default credentials / GOOGLE_APPLICATION_CREDENTIALS are used.
func NewFirebaseIdentity(ctx context.Context, projectID, credentialsFile string) (*FirebaseIdentity, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Auth: %w", err)
	}
	return &FirebaseIdentity{client: client}, nil
}

func (f *FirebaseIdentity) VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	email, _ := token.Claims["email"].(string)
	return &FirebaseToken{UID: token.UID, Email: strings.ToLower(email), Claims: token.Claims}, nil
}

func (f *FirebaseIdentity) CreateUser(ctx context.Context, in NewIdentity) (string, error) {
	params := (&auth.UserToCreate{}).Email(in.Email)
	if in.Password != "" {
		params = params.Password(in.Password)
	}
	if in.DisplayName != "" {
		params = params.DisplayName(in.DisplayName)
	}
	rec, err := f.client.CreateUser(ctx, params)
	if auth.IsEmailAlreadyExists(err) {
		return "", ErrIdentityExists
	}
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	if in.Role != "" {
		if err := f.SetRole(ctx, rec.UID, in.Role); err != nil {
			return rec.UID, err
		}
	}
	return rec.UID, nil
}

// SetRole stores the role in custom claims so new ID tokens carry it.
func (f *FirebaseIdentity) SetRole(ctx context.Context, uid, role string) error {
	if err := f.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{"role": role}); err != nil {
		return fmt.Errorf("set claims: %w", err)
	}
	return nil
}

func (f *FirebaseIdentity) PasswordResetLink(ctx context.Context, email, redirectURL string) (string, error) {
	link, err := f.client.PasswordResetLinkWithSettings(ctx, email, &auth.ActionCodeSettings{URL: redirectURL})
	if auth.IsUserNotFound(err) {
		return "", ErrIdentityNotFound
	}
	if err != nil {
		return "", fmt.Errorf("password reset link: %w", err)
	}
	return link, nil
}

func (f *FirebaseIdentity) UpdatePassword(ctx context.Context, uid, password string) error {
	if _, err := f.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Password(password)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (f *FirebaseIdentity) RevokeSessions(ctx context.Context, uid string) error {
	return f.client.RevokeRefreshTokens(ctx, uid)
}

func (f *FirebaseIdentity) SessionToken(ctx context.Context, uid string) (string, error) {
	return f.client.CustomToken(ctx, uid)
}

func (f *FirebaseIdentity) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.client.GetUserByEmail(ctx, email)
	if auth.IsUserNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
