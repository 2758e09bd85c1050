// README: Account service tests with a fake identity provider and mailer.
package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdrop/internal/infra"
	"vdrop/internal/modules/identity"
	"vdrop/internal/modules/profile"
	"vdrop/internal/validator"
)

type fakeIdentity struct {
	users     map[string]string
	passwords map[string]string
	revoked   []string
	linkErr   error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{users: map[string]string{}, passwords: map[string]string{}}
}

func (f *fakeIdentity) CreateUser(_ context.Context, in infra.NewIdentity) (string, error) {
	if _, ok := f.users[in.Email]; ok {
		return "", infra.ErrIdentityExists
	}
	uid := "uid-" + in.Email
	f.users[in.Email] = uid
	f.passwords[uid] = in.Password
	return uid, nil
}

func (f *fakeIdentity) SetRole(context.Context, string, string) error { return nil }

func (f *fakeIdentity) PasswordResetLink(_ context.Context, email, redirectURL string) (string, error) {
	if f.linkErr != nil {
		return "", f.linkErr
	}
	if _, ok := f.users[email]; !ok {
		return "", infra.ErrIdentityNotFound
	}
	return "https://auth.example.com/reset?continue=" + redirectURL, nil
}

func (f *fakeIdentity) UpdatePassword(_ context.Context, uid, password string) error {
	f.passwords[uid] = password
	return nil
}

func (f *fakeIdentity) RevokeSessions(_ context.Context, uid string) error {
	f.revoked = append(f.revoked, uid)
	return nil
}

func (f *fakeIdentity) SessionToken(_ context.Context, uid string) (string, error) {
	return "custom-" + uid, nil
}

func (f *fakeIdentity) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

type fakeMailer struct{ to []string }

func (f *fakeMailer) Send(_ context.Context, to, _, _ string) error {
	f.to = append(f.to, to)
	return nil
}

type fakeProfiles struct{ names map[string]string }

func (f *fakeProfiles) Ensure(_ context.Context, actor identity.Actor, fullName string) (*profile.Profile, error) {
	f.names[actor.UserID] = fullName
	return &profile.Profile{UserID: actor.UserID, FullName: fullName, Role: identity.RoleCustomer}, nil
}

func newTestService() (*Service, *fakeIdentity, *fakeMailer, *fakeProfiles) {
	idp := newFakeIdentity()
	mail := &fakeMailer{}
	profiles := &fakeProfiles{names: map[string]string{}}
	svc := NewService(Deps{
		Identity:      idp,
		Mailer:        mail,
		Profiles:      profiles,
		ResetRedirect: "https://vdrop.example.com/reset-password",
	})
	return svc, idp, mail, profiles
}

func validSignUp() SignUpCommand {
	return SignUpCommand{
		FullName:        "Casey Customer",
		Email:           "Casey@Example.com",
		Password:        "Secret#123",
		ConfirmPassword: "Secret#123",
	}
}

func TestSignUp(t *testing.T) {
	svc, idp, _, profiles := newTestService()
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)
	assert.Equal(t, "uid-casey@example.com", sess.UserID)
	assert.Equal(t, "custom-uid-casey@example.com", sess.Token)
	assert.Equal(t, "Casey Customer", profiles.names[sess.UserID])
	assert.Equal(t, "Secret#123", idp.passwords[sess.UserID])

	_, err = svc.SignUp(ctx, validSignUp())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUp_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		edit  func(*SignUpCommand)
		field string
		msg   string
	}{
		{"weak password", func(c *SignUpCommand) { c.Password, c.ConfirmPassword = "secret12", "secret12" }, "password", validator.PasswordPolicyMessage},
		{"no special", func(c *SignUpCommand) { c.Password, c.ConfirmPassword = "Secret123", "Secret123" }, "password", validator.PasswordPolicyMessage},
		{"mismatch", func(c *SignUpCommand) { c.ConfirmPassword = "Secret#124" }, "confirm_password", "Passwords do not match"},
		{"bad email", func(c *SignUpCommand) { c.Email = "casey" }, "email", "Please enter a valid email address"},
		{"blank name", func(c *SignUpCommand) { c.FullName = "  " }, "full_name", "This field is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := validSignUp()
			tc.edit(&cmd)
			_, err := svc.SignUp(ctx, cmd)
			ve, ok := validator.AsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tc.msg, ve.Errors[tc.field])
		})
	}
}

func TestRequestPasswordReset_NeverLeaks(t *testing.T) {
	svc, idp, mail, _ := newTestService()
	ctx := context.Background()
	idp.users["known@example.com"] = "uid-known"

	svc.RequestPasswordReset(ctx, "unknown@example.com")
	assert.Empty(t, mail.to)

	svc.RequestPasswordReset(ctx, " KNOWN@example.com ")
	assert.Equal(t, []string{"known@example.com"}, mail.to)

	idp.linkErr = errors.New("provider down")
	svc.RequestPasswordReset(ctx, "known@example.com")
	assert.Len(t, mail.to, 1)
}

func TestUpdatePasswordAndSignOut(t *testing.T) {
	svc, idp, _, _ := newTestService()
	ctx := context.Background()
	me := identity.Actor{UserID: "u1"}

	require.NoError(t, svc.UpdatePassword(ctx, me, PasswordCommand{Password: "N3w!pass", ConfirmPassword: "N3w!pass"}))
	assert.Equal(t, "N3w!pass", idp.passwords["u1"])

	err := svc.UpdatePassword(ctx, me, PasswordCommand{Password: "N3w!pass", ConfirmPassword: "other"})
	_, ok := validator.AsValidation(err)
	assert.True(t, ok)

	require.NoError(t, svc.SignOut(ctx, me))
	assert.Equal(t, []string{"u1"}, idp.revoked)

	assert.ErrorIs(t, svc.SignOut(ctx, identity.Actor{}), ErrForbidden)
}

func TestEmailExists(t *testing.T) {
	svc, idp, _, _ := newTestService()
	idp.users["known@example.com"] = "uid-known"

	ok, err := svc.EmailExists(context.Background(), "Known@Example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.EmailExists(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.EmailExists(context.Background(), "")
	_, isValidation := validator.AsValidation(err)
	assert.True(t, isValidation)
}
