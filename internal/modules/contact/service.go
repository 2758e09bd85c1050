// README: Contact service stores submissions and alerts admins by email.
package contact

import (
	"context"
	"html"
	"strings"
	"sync"
	"time"

	"vdrop/internal/infra"
	"vdrop/internal/logger"
	"vdrop/internal/types"
	"vdrop/internal/validator"
)

const notifyTimeout = 30 * time.Second

type Repository interface {
	Create(ctx context.Context, sub *Submission) error
}

type Service struct {
	store    Repository
	mailer   infra.Mailer
	admins   []string
	validate *validator.Validator
	log      logger.ILogger
	wg       sync.WaitGroup
}

// NewService accepts a nil mailer; submissions are then stored without alerts.
func NewService(store Repository, mailer infra.Mailer, admins []string, log logger.ILogger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{store: store, mailer: mailer, admins: admins, validate: validator.New(), log: log}
}

type SubmitCommand struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,phone10"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Submit persists the message. Admin alerts are sent in the background and
// their failures are only logged.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*Submission, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Email = strings.TrimSpace(cmd.Email)
	cmd.Phone = validator.DigitsOnly(cmd.Phone)
	cmd.Subject = strings.TrimSpace(cmd.Subject)
	cmd.Message = strings.TrimSpace(cmd.Message)
	if err := s.validate.Validate(cmd); err != nil {
		return nil, err
	}

	sub := &Submission{
		ID:      types.NewID(),
		Name:    cmd.Name,
		Email:   cmd.Email,
		Subject: cmd.Subject,
		Message: cmd.Message,
	}
	if cmd.Phone != "" {
		sub.Phone = &cmd.Phone
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, err
	}

	if s.mailer != nil && len(s.admins) > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.notify(context.WithoutCancel(ctx), sub)
		}()
	}
	return sub, nil
}

// Wait blocks until in-flight admin alerts finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) notify(ctx context.Context, sub *Submission) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	subject := "New Contact Request: " + sub.Subject
	body := notificationBody(sub)
	for _, to := range s.admins {
		if err := s.mailer.Send(ctx, to, subject, body); err != nil {
			s.log.Error("contact alert failed",
				logger.String("submission_id", string(sub.ID)), logger.String("to", to), logger.Error(err))
		}
	}
}

func notificationBody(sub *Submission) string {
	phone := "Not provided"
	if sub.Phone != nil {
		phone = *sub.Phone
	}
	var b strings.Builder
	b.WriteString("<h2>New contact form submission</h2>")
	row := func(label, value string) {
		b.WriteString("<p><strong>" + label + ":</strong> " + html.EscapeString(value) + "</p>")
	}
	row("Name", sub.Name)
	row("Email", sub.Email)
	row("Phone", phone)
	row("Subject", sub.Subject)
	b.WriteString("<p><strong>Message:</strong></p><p>")
	b.WriteString(strings.ReplaceAll(html.EscapeString(sub.Message), "\n", "<br>"))
	b.WriteString("</p>")
	return b.String()
}
