package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/metrics"
	"github.com/gatherly/notification-engine/internal/shared/logger"
	"github.com/gatherly/notification-engine/internal/smtp"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailConfig holds email channel configuration
type EmailConfig struct {
	FromEmail   string
	FromName    string
	SendTimeout time.Duration
}

// EmailStatusStore is the slice of the notification store the email channel
// writes back to after a confirmed submission.
type EmailStatusStore interface {
	MarkEmailSent(ctx context.Context, userID string, id primitive.ObjectID) error
}

// EmailService converts a notification record into a templated email and
// submits it over pooled SMTP. Failures never propagate past the worker; the
// only user-visible trace of a failed send is email_sent staying false.
type EmailService struct {
	config EmailConfig
	pool   *smtp.Pool
	store  EmailStatusStore
	policy RetryPolicy
	log    *logger.Logger
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig, pool *smtp.Pool, store EmailStatusStore, policy RetryPolicy, log *logger.Logger) *EmailService {
	if config.SendTimeout <= 0 {
		config.SendTimeout = 5 * time.Second
	}
	return &EmailService{
		config: config,
		pool:   pool,
		store:  store,
		policy: policy,
		log:    log,
	}
}

var emailBodyTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #1f2933;">
    <h2 style="margin-bottom: 4px;">{{.Title}}</h2>
    <p>{{.Message}}</p>
    {{if .EventID}}<p><a href="https://gatherly.app/events/{{.EventID}}">View event</a></p>{{end}}
    <p style="color: #7b8794; font-size: 12px;">
      You are receiving this because email notifications are enabled in your
      Gatherly settings.
    </p>
  </body>
</html>`))

// Deliver submits the notification by email with retry/backoff, then flips
// email_sent once the provider accepted the message. Permanent rejections
// and exhausted retries are logged and counted, nothing more.
func (s *EmailService) Deliver(ctx context.Context, n *domain.Notification, recipient string) {
	start := time.Now()

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		return s.sendOnce(ctx, n, recipient)
	}, func(attempt int, lastErr error) {
		metrics.EmailRetries.Inc()
		s.log.Warn("retrying email send", "attempt", attempt, "error", lastErr, "notification_id", n.ID.Hex())
	})

	metrics.EmailSendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "failed"
		if !IsTransientSMTPError(err) {
			outcome = "rejected"
		}
		metrics.EmailsSent.WithLabelValues(string(n.Type), outcome).Inc()
		s.log.Error("email delivery failed", "error", err, "notification_id", n.ID.Hex(), "type", n.Type)
		return
	}

	metrics.EmailsSent.WithLabelValues(string(n.Type), "sent").Inc()

	if err := s.store.MarkEmailSent(ctx, n.UserID, n.ID); err != nil {
		s.log.Error("failed to record email_sent", "error", err, "notification_id", n.ID.Hex())
	}
}

// sendOnce performs a single bounded SMTP submission
func (s *EmailService) sendOnce(ctx context.Context, n *domain.Notification, recipient string) error {
	message, err := s.buildMessage(n, recipient)
	if err != nil {
		return err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.config.SendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.submit(recipient, message)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		return attemptCtx.Err()
	}
}

// submit runs the SMTP transaction on a pooled connection
func (s *EmailService) submit(recipient string, message []byte) error {
	client, err := s.pool.Get()
	if err != nil {
		return err
	}

	if err := client.Mail(s.config.FromEmail); err != nil {
		s.pool.Discard(client)
		return err
	}
	if err := client.Rcpt(recipient); err != nil {
		client.Reset()
		s.pool.Put(client)
		return err
	}
	w, err := client.Data()
	if err != nil {
		s.pool.Discard(client)
		return err
	}
	if _, err := w.Write(message); err != nil {
		s.pool.Discard(client)
		return err
	}
	if err := w.Close(); err != nil {
		s.pool.Discard(client)
		return err
	}

	s.pool.Put(client)
	return nil
}

// buildMessage renders the multipart/alternative payload for a notification
func (s *EmailService) buildMessage(n *domain.Notification, recipient string) ([]byte, error) {
	var html bytes.Buffer
	data := struct {
		Title   string
		Message string
		EventID string
	}{
		Title:   n.Title,
		Message: n.Message,
		EventID: n.Metadata.EventID,
	}
	if err := emailBodyTmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render email body: %w", err)
	}

	from := s.config.FromEmail
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}

	const boundary = "gatherly-alt"
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", n.Title)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "%s\r\n\r\n%s\r\n\r\n", n.Title, n.Message)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(html.Bytes())
	fmt.Fprintf(&msg, "\r\n--%s--\r\n", boundary)

	return msg.Bytes(), nil
}
