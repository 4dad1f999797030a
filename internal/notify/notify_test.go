package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
)

type fakeConn struct {
	subject    string
	data       []byte
	publishErr error
	flushErr   error
	closed     bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.publishErr
}

func (f *fakeConn) FlushWithContext(context.Context) error { return f.flushErr }

func (f *fakeConn) Close() { f.closed = true }

func TestNATSNotifier_PublishBuild(t *testing.T) {
	conn := &fakeConn{}
	n := newNATSNotifier(conn, "")

	event := BuildEvent{
		BuildID:    "b-1",
		StartedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		DurationMS: 12,
		Rendered:   2,
		Outcome:    "failed",
		Failures:   []Failure{{Path: "a.md", Error: "layout not found"}},
	}
	require.NoError(t, n.PublishBuild(t.Context(), event))
	assert.Equal(t, DefaultSubject, conn.subject)

	var got BuildEvent
	require.NoError(t, json.Unmarshal(conn.data, &got))
	assert.Equal(t, event, got)

	require.NoError(t, n.Close())
	assert.True(t, conn.closed)
}

func TestNATSNotifier_Errors(t *testing.T) {
	n := newNATSNotifier(&fakeConn{publishErr: errors.New("closed")}, "site.events")
	err := n.PublishBuild(t.Context(), BuildEvent{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))

	n = newNATSNotifier(&fakeConn{flushErr: context.DeadlineExceeded}, "site.events")
	err = n.PublishBuild(t.Context(), BuildEvent{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewNATSNotifier_Unreachable(t *testing.T) {
	_, err := NewNATSNotifier("nats://127.0.0.1:1", "")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	require.NoError(t, n.PublishBuild(t.Context(), BuildEvent{}))
	require.NoError(t, n.Close())
}
