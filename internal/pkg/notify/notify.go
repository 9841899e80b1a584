// Package notify delivers best-effort messages to reporters over email, SMS
// and the in-app inbox. Delivery failures are reported to the caller, which
// decides whether they matter; the report workflow only logs them.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
)

// Kind identifies what a message is about.
type Kind string

const (
	KindResolutionPending Kind = "resolution_pending"
	KindReportResolved    Kind = "report_resolved"
)

// Recipient carries the contact details known for a reporter. Any channel
// whose address is empty is skipped.
type Recipient struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

// Message is a channel independent notification.
type Message struct {
	Kind      Kind      `json:"kind"`
	ReportID  string    `json:"report_id"`
	Recipient Recipient `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	HTMLBody  string    `json:"html_body"`
	PhotoURL  string    `json:"photo_url"`
}

// Notifier delivers a message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, msg Message) error

func (f Func) Notify(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// ErrNoAddress is returned by a channel that has nothing to send to.
var ErrNoAddress = errors.New("recipient has no address for this channel")

// Multi fans a message out to every notifier. All channels are attempted;
// the joined error lists those that failed. Channels returning ErrNoAddress
// are ignored.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil && !errors.Is(err, ErrNoAddress) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes the message to the application log. It is the fallback
// when real delivery fails or no transport is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, msg Message) error {
	log.Infof("[Notify] (log) %s for report %s to user %s <%s> %s: %s",
		msg.Kind, msg.ReportID, msg.Recipient.UserID, msg.Recipient.Email, msg.Recipient.Phone, msg.Subject)
	return nil
}

// WithFallback tries primary and, if it fails, logs the failure and hands the
// message to fallback. It never returns an error.
func WithFallback(primary, fallback Notifier) Notifier {
	return Func(func(ctx context.Context, msg Message) error {
		if err := primary.Notify(ctx, msg); err != nil {
			log.Warnf("[Notify] Delivery of %s for report %s failed: %v", msg.Kind, msg.ReportID, err)
			if fallback != nil {
				_ = fallback.Notify(ctx, msg)
			}
		}
		return nil
	})
}

// runWithContext runs a blocking send and gives up when ctx ends. The send
// then finishes on its own transport deadline and its result is discarded.
func runWithContext(ctx context.Context, channel string, send func() error) error {
	done := make(chan error, 1)
	go func() { done <- send() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s: %w", channel, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", channel, ctx.Err())
	}
}
