// README: Contact service tests: validation, persistence, and background admin alerts.
package contact

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdrop/internal/testutil"
	"vdrop/internal/validator"
)

type memStore struct {
	subs []*Submission
	err  error
}

func (m *memStore) Create(_ context.Context, sub *Submission) error {
	if m.err != nil {
		return m.err
	}
	m.subs = append(m.subs, sub)
	return nil
}

type mail struct{ to, subject, body string }

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail
	fail map[string]bool
}

func (r *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[to] {
		return errors.New("mailbox unavailable")
	}
	r.sent = append(r.sent, mail{to, subject, body})
	return nil
}

func validCmd() SubmitCommand {
	return SubmitCommand{
		Name:    "Casey",
		Email:   "casey@example.com",
		Phone:   "519-555-0100",
		Subject: "Missed pickup",
		Message: "Nobody came <today>.\nPlease call.",
	}
}

func TestSubmit_StoresAndAlertsEveryAdmin(t *testing.T) {
	store := &memStore{}
	mailer := &recordingMailer{fail: map[string]bool{"down@vdrop.ca": true}}
	svc := NewService(store, mailer, []string{"ops@vdrop.ca", "down@vdrop.ca", "lead@vdrop.ca"}, nil)

	sub, err := svc.Submit(context.Background(), validCmd())
	require.NoError(t, err)
	svc.Wait()

	require.Len(t, store.subs, 1)
	require.NotNil(t, sub.Phone)
	assert.Equal(t, "5195550100", *sub.Phone)

	require.Len(t, mailer.sent, 2, "one failed recipient must not stop the rest")
	for _, m := range mailer.sent {
		assert.Equal(t, "New Contact Request: Missed pickup", m.subject)
		assert.Contains(t, m.body, "&lt;today&gt;")
		assert.Contains(t, m.body, "<br>")
	}
}

func TestSubmit_Validation(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, nil, nil, nil)

	cmd := validCmd()
	cmd.Email = "nope"
	cmd.Subject = " "
	_, err := svc.Submit(context.Background(), cmd)
	ve, ok := validator.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Errors, "email")
	assert.Contains(t, ve.Errors, "subject")
	assert.Empty(t, store.subs)
}

func TestSubmit_StoreFailureSkipsAlerts(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewService(&memStore{err: errors.New("db down")}, mailer, []string{"ops@vdrop.ca"}, nil)

	_, err := svc.Submit(context.Background(), validCmd())
	require.Error(t, err)
	svc.Wait()
	assert.Empty(t, mailer.sent)
}

func TestStore_Create(t *testing.T) {
	svc := NewService(NewStore(testutil.Pool(t)), nil, nil, nil)
	sub, err := svc.Submit(context.Background(), validCmd())
	require.NoError(t, err)
	assert.False(t, sub.CreatedAt.IsZero())
}
