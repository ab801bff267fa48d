package onboarding

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"site-onboarding/internal/domain"
)

var (
	ErrMessageNotFound = errors.New("onboarding: message not found")
	ErrNotAmendable    = errors.New("onboarding: only tagged user answers can be amended")
)

var newMessageID = func() string {
	return uuid.NewString()
}

// Log is the append-only transcript of a session. Order is append order.
type Log struct {
	messages []domain.Message
	index    map[string]int
	now      func() time.Time
}

// NewLog returns an empty transcript stamped by now.
func NewLog(now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{index: make(map[string]int), now: now}
}

func restoreLog(messages []domain.Message, now func() time.Time) *Log {
	l := NewLog(now)
	for _, m := range messages {
		l.index[m.ID] = len(l.messages)
		l.messages = append(l.messages, m)
	}
	return l
}

// Append adds a message with a fresh id and a timestamp later than every earlier one.
func (l *Log) Append(role domain.Role, text string, step domain.Step) domain.Message {
	ts := l.now().UTC()
	if n := len(l.messages); n > 0 {
		if last := l.messages[n-1].Timestamp; !ts.After(last) {
			ts = last.Add(time.Microsecond)
		}
	}
	msg := domain.Message{
		ID:        newMessageID(),
		Role:      role,
		Text:      text,
		Timestamp: ts,
		Step:      step,
	}
	l.index[msg.ID] = len(l.messages)
	l.messages = append(l.messages, msg)
	return msg
}

// Get returns the message with id.
func (l *Log) Get(id string) (domain.Message, bool) {
	i, ok := l.index[id]
	if !ok {
		return domain.Message{}, false
	}
	return l.messages[i], true
}

// Messages returns a copy of the transcript.
func (l *Log) Messages() []domain.Message {
	return append([]domain.Message(nil), l.messages...)
}

// Len returns the number of messages.
func (l *Log) Len() int {
	return len(l.messages)
}

// Amend replaces the text of a tagged user answer. remerge re-derives the step value
// from text and reports whether it was accepted; on rejection the message is left as is.
func (l *Log) Amend(id, text string, remerge func(step domain.Step, text string) bool) (domain.Message, error) {
	i, ok := l.index[id]
	if !ok {
		return domain.Message{}, ErrMessageNotFound
	}
	msg := l.messages[i]
	if msg.Role != domain.RoleUser || msg.Step == "" {
		return domain.Message{}, ErrNotAmendable
	}
	if !remerge(msg.Step, text) {
		return msg, nil
	}
	at := l.now().UTC()
	msg.Text = text
	msg.EditedAt = &at
	l.messages[i] = msg
	return msg, nil
}
