package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-messaging-api/config"
	"github.com/linesmerrill/clinic-messaging-api/models"
	templates "github.com/linesmerrill/clinic-messaging-api/templates/html"
)

// StallAfter is how old an unread message must be before the sweep touches it.
// Younger messages may still have a delivery timer running.
const StallAfter = time.Minute

// Recoverer advances messages whose delivery sequence was lost
type Recoverer interface {
	RecoverStalled(ctx context.Context, before time.Time) (int, error)
}

// DigestSource lists the participants that have unread messages
type DigestSource interface {
	UnreadDigests(ctx context.Context) ([]models.UnreadDigest, error)
}

// Notifier delivers one unread digest
type Notifier interface {
	Notify(ctx context.Context, digest models.UnreadDigest) error
}

// Scheduler handles periodic background jobs for the messaging service
type Scheduler struct {
	cron           *cron.Cron
	Recoverer      Recoverer
	Digests        DigestSource
	Notifier       Notifier
	SweepSchedule  string
	DigestSchedule string
	now            func() time.Time
}

// NewScheduler creates a new scheduler instance. Digests or notifier may be
// nil, in which case the digest job is not registered.
func NewScheduler(conf *config.Config, rec Recoverer, digests DigestSource, notifier Notifier) *Scheduler {
	return &Scheduler{
		cron:           cron.New(cron.WithLocation(time.UTC)),
		Recoverer:      rec,
		Digests:        digests,
		Notifier:       notifier,
		SweepSchedule:  conf.SweepSchedule,
		DigestSchedule: conf.DigestSchedule,
		now:            time.Now,
	}
}

// Start registers the jobs and begins the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.SweepSchedule, s.SweepStalled); err != nil {
		return fmt.Errorf("failed to register delivery sweep job: %w", err)
	}
	if s.Digests != nil && s.Notifier != nil {
		if _, err := s.cron.AddFunc(s.DigestSchedule, s.SendDigests); err != nil {
			return fmt.Errorf("failed to register unread digest job: %w", err)
		}
	} else {
		zap.S().Warn("unread digest job disabled: no email notifier configured")
	}

	s.cron.Start()
	zap.S().Infow("messaging scheduler started",
		"sweep", s.SweepSchedule,
		"digest", s.DigestSchedule,
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("messaging scheduler stopped")
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// SweepStalled finishes the acknowledgement of messages whose delivery timers
// were lost, e.g. by a restart
func (s *Scheduler) SweepStalled() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := s.Recoverer.RecoverStalled(ctx, s.now().Add(-StallAfter))
	if err != nil {
		zap.S().Errorw("delivery sweep failed", "error", err, "advanced", n)
		return
	}
	zap.S().Debugw("delivery sweep finished", "advanced", n)
}

// SendDigests emails every participant with unread messages. One failed
// email does not stop the rest.
func (s *Scheduler) SendDigests() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	digests, err := s.Digests.UnreadDigests(ctx)
	if err != nil {
		zap.S().Errorw("failed to load unread digests", "error", err)
		return
	}

	sent, skipped := 0, 0
	for _, d := range digests {
		if d.Participant.Email == "" || d.Unread <= 0 {
			skipped++
			continue
		}
		if err := s.Notifier.Notify(ctx, d); err != nil {
			zap.S().Errorw("failed to send unread digest",
				"error", err,
				"participant", d.Participant.ID,
				"role", d.Role,
			)
			continue
		}
		sent++
	}
	zap.S().Infow("unread digests sent", "sent", sent, "skipped", skipped)
}

// ErrSendgridStatus is returned when SendGrid answers with an error status
var ErrSendgridStatus = errors.New("sendgrid returned error status")

// SendgridNotifier emails digests through SendGrid
type SendgridNotifier struct {
	APIKey    string
	FromEmail string
	FromName  string
	AppURL    string
}

// NewSendgridNotifier returns nil when no API key is configured
func NewSendgridNotifier(conf *config.Config) *SendgridNotifier {
	if conf.SendgridAPIKey == "" {
		return nil
	}
	return &SendgridNotifier{
		APIKey:    conf.SendgridAPIKey,
		FromEmail: conf.DigestFromEmail,
		FromName:  "Secure Messaging",
		AppURL:    conf.BaseURL,
	}
}

// Message builds the digest email. Only counts are included.
func (n *SendgridNotifier) Message(d models.UnreadDigest) *mail.SGMailV3 {
	from := mail.NewEmail(n.FromName, n.FromEmail)
	to := mail.NewEmail(d.Participant.Name, d.Participant.Email)
	htmlContent := templates.RenderUnreadDigestEmail(d.Participant.Name, d.Unread, d.Conversations, n.AppURL)
	plainText := templates.DigestText(d.Unread, d.Conversations, n.AppURL)
	return mail.NewSingleEmail(from, templates.DigestSubject, to, plainText, htmlContent)
}

// Notify implements Notifier
func (n *SendgridNotifier) Notify(ctx context.Context, d models.UnreadDigest) error {
	client := sendgrid.NewSendClient(n.APIKey)
	response, err := client.SendWithContext(ctx, n.Message(d))
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("%w: %d %s", ErrSendgridStatus, response.StatusCode, response.Body)
	}
	return nil
}
