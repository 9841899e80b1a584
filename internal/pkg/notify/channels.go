package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ecocheck/ecocheck/app/models"
	"github.com/ecocheck/ecocheck/app/repository"
	"github.com/ecocheck/ecocheck/internal/pkg/mail"
)

// MailNotifier sends the HTML body by email.
type MailNotifier struct {
	Send func(to, subject, body string) error
}

// NewMailNotifier returns a MailNotifier using the SMTP mailer.
func NewMailNotifier() *MailNotifier {
	return &MailNotifier{Send: mail.SendMail}
}

func (m *MailNotifier) Notify(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.Recipient.Email)
	if to == "" {
		return ErrNoAddress
	}
	body := msg.HTMLBody
	if body == "" {
		body = msg.Body
	}
	return runWithContext(ctx, "email", func() error {
		return m.Send(to, msg.Subject, body)
	})
}

const DefaultSemaphoreURL = "https://semaphore.co/api/v4/messages"

// SMSNotifier sends the plain body through the Semaphore SMS gateway.
type SMSNotifier struct {
	APIKey     string
	SenderName string
	Endpoint   string
	Timeout    time.Duration
}

func NewSMSNotifier(apiKey, senderName string) *SMSNotifier {
	return &SMSNotifier{
		APIKey:     apiKey,
		SenderName: senderName,
		Endpoint:   DefaultSemaphoreURL,
		Timeout:    10 * time.Second,
	}
}

type semaphoreResult struct {
	MessageID int    `json:"message_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

func (s *SMSNotifier) Notify(ctx context.Context, msg Message) error {
	number := FormatPhoneNumber(msg.Recipient.Phone)
	if number == "" {
		return ErrNoAddress
	}
	if s.APIKey == "" {
		return fmt.Errorf("sms: gateway api key not configured")
	}

	timeout := s.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout || timeout <= 0 {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("sms: %w", context.DeadlineExceeded)
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("apikey", s.APIKey)
	args.Set("number", number)
	args.Set("message", msg.Body)
	if s.SenderName != "" {
		args.Set("sendername", s.SenderName)
	}

	agent := fiber.Post(s.Endpoint).Form(args).Timeout(timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("sms: %w", errs[0])
	}
	if code >= 300 {
		return fmt.Errorf("sms: gateway returned status %d: %s", code, truncate(string(body), 200))
	}

	var results []semaphoreResult
	if err := json.Unmarshal(body, &results); err != nil || len(results) == 0 {
		return fmt.Errorf("sms: invalid gateway response: %s", truncate(string(body), 200))
	}
	if st := results[0].Status; st != "Queued" && st != "Sent" && st != "Pending" {
		return fmt.Errorf("sms: gateway rejected message: %s", results[0].Message)
	}
	log.Infof("[Notify] SMS queued for %s (message %d)", number, results[0].MessageID)
	return nil
}

var nonDigits = regexp.MustCompile(`\D`)

// FormatPhoneNumber normalises Philippine mobile numbers to +63 form.
// Numbers in an unknown format are returned as digits only.
func FormatPhoneNumber(raw string) string {
	cleaned := nonDigits.ReplaceAllString(raw, "")
	switch {
	case cleaned == "":
		return ""
	case strings.HasPrefix(cleaned, "09"):
		return "+63" + cleaned[1:]
	case strings.HasPrefix(cleaned, "639"):
		return "+" + cleaned
	case strings.HasPrefix(cleaned, "9") && len(cleaned) == 10:
		return "+63" + cleaned
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 11:
		return "+63" + cleaned[1:]
	}
	return cleaned
}

// InboxNotifier stores the message as an in-app notification.
type InboxNotifier struct {
	repo repository.NotificationRepository
}

func NewInboxNotifier(repo repository.NotificationRepository) *InboxNotifier {
	return &InboxNotifier{repo: repo}
}

func (n *InboxNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.Recipient.UserID == "" {
		return ErrNoAddress
	}
	err := n.repo.Create(ctx, &models.Notification{
		UserID:   msg.Recipient.UserID,
		Type:     string(msg.Kind),
		Title:    msg.Subject,
		Content:  msg.Body,
		PhotoURL: msg.PhotoURL,
		ReportID: msg.ReportID,
	})
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
