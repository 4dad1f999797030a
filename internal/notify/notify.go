// Package notify publishes build results to external listeners.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
	"github.com/rajesh1993/sitegen/internal/logfields"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "sitegen.builds"

// Failure names a document that failed to build.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// BuildEvent is the payload published after every build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Source     string    `json:"source"`
	Output     string    `json:"output"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Rendered   int       `json:"rendered"`
	Skipped    int       `json:"skipped"`
	Assets     int       `json:"assets"`
	Outcome    string    `json:"outcome"`
	Failures   []Failure `json:"failures,omitempty"`
}

// Notifier publishes build events.
type Notifier interface {
	PublishBuild(ctx context.Context, event BuildEvent) error
	Close() error
}

// NoopNotifier discards every event.
type NoopNotifier struct{}

func (NoopNotifier) PublishBuild(context.Context, BuildEvent) error { return nil }

func (NoopNotifier) Close() error { return nil }

// publisher is the subset of *nats.Conn used by NATSNotifier.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes JSON build events on a NATS subject.
type NATSNotifier struct {
	conn    publisher
	subject string
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("sitegen"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "connect to NATS").
			Retryable().
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS notifier connected", logfields.URL(url), slog.String("subject", subjectOrDefault(subject)))
	return newNATSNotifier(conn, subject), nil
}

func newNATSNotifier(conn publisher, subject string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subjectOrDefault(subject)}
}

func subjectOrDefault(subject string) string {
	if subject == "" {
		return DefaultSubject
	}
	return subject
}

// PublishBuild publishes event and waits for the server to acknowledge the flush.
func (n *NATSNotifier) PublishBuild(ctx context.Context, event BuildEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "publish build event").
			Retryable().
			WithContext("subject", n.subject).
			Build()
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "flush build event").
			Retryable().
			WithContext("subject", n.subject).
			Build()
	}

	slog.Debug("Published build event",
		logfields.BuildID(event.BuildID),
		logfields.Outcome(event.Outcome),
		slog.String("subject", n.subject))
	return nil
}

// Close closes the NATS connection.
func (n *NATSNotifier) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
