package comment

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/evcraddock/fluent-comments/internal/logging"
)

// Verdict is a before-save listener's answer.
type Verdict int

const (
	// Abstain expresses no opinion.
	Abstain Verdict = iota
	// Allow lets the save proceed.
	Allow
	// Veto stops the save.
	Veto
)

// BeforeSaver is consulted before a comment is persisted.
type BeforeSaver interface {
	Name() string
	BeforeSave(ctx context.Context, c *Comment, r *http.Request) Verdict
}

// AfterSaver is notified after a comment is persisted.
type AfterSaver interface {
	Name() string
	AfterSave(ctx context.Context, c *Comment, r *http.Request) error
}

// VetoError reports which before-save listener stopped a comment.
type VetoError struct {
	Listener string
}

func (e *VetoError) Error() string {
	return fmt.Sprintf("comment_will_be_posted receiver %q killed the comment", e.Listener)
}

// Listeners holds the ordered before- and after-save listeners.
// Populate at startup; dispatch only reads.
type Listeners struct {
	before []BeforeSaver
	after  []AfterSaver
}

// OnBeforeSave appends a before-save listener.
func (l *Listeners) OnBeforeSave(b BeforeSaver) {
	l.before = append(l.before, b)
}

// OnAfterSave appends an after-save listener.
func (l *Listeners) OnAfterSave(a AfterSaver) {
	l.after = append(l.after, a)
}

// BeforeSave runs listeners in registration order and returns a
// *VetoError for the first one that vetoes. Later listeners do not run.
func (l *Listeners) BeforeSave(ctx context.Context, c *Comment, r *http.Request) error {
	for _, b := range l.before {
		if b.BeforeSave(ctx, c, r) == Veto {
			return &VetoError{Listener: b.Name()}
		}
	}
	return nil
}

// AfterSave runs listeners in registration order, stopping at the first error.
func (l *Listeners) AfterSave(ctx context.Context, c *Comment, r *http.Request) error {
	for _, a := range l.after {
		if err := a.AfterSave(ctx, c, r); err != nil {
			return fmt.Errorf("comment_was_posted receiver %s: %w", a.Name(), err)
		}
	}
	return nil
}

// BeforeSaveFunc adapts a function to BeforeSaver.
func BeforeSaveFunc(name string, fn func(ctx context.Context, c *Comment, r *http.Request) Verdict) BeforeSaver {
	return beforeFunc{name: name, fn: fn}
}

type beforeFunc struct {
	name string
	fn   func(ctx context.Context, c *Comment, r *http.Request) Verdict
}

func (b beforeFunc) Name() string { return b.name }

func (b beforeFunc) BeforeSave(ctx context.Context, c *Comment, r *http.Request) Verdict {
	return b.fn(ctx, c, r)
}

// AfterSaveFunc adapts a function to AfterSaver.
func AfterSaveFunc(name string, fn func(ctx context.Context, c *Comment, r *http.Request) error) AfterSaver {
	return afterFunc{name: name, fn: fn}
}

type afterFunc struct {
	name string
	fn   func(ctx context.Context, c *Comment, r *http.Request) error
}

func (a afterFunc) Name() string { return a.name }

func (a afterFunc) AfterSave(ctx context.Context, c *Comment, r *http.Request) error {
	return a.fn(ctx, c, r)
}

// LogListener logs every posted comment.
type LogListener struct{}

// Name implements AfterSaver.
func (LogListener) Name() string { return "log_comment" }

// AfterSave implements AfterSaver.
func (LogListener) AfterSave(ctx context.Context, c *Comment, r *http.Request) error {
	logging.FromContext(ctx).Info("comment posted",
		"comment_id", c.ID,
		"content_type", c.ContentType,
		"object_pk", c.ObjectPK,
		"user_id", c.UserID,
		"ip", c.IPAddress,
	)
	return nil
}

// ClosedTypes vetoes comments on content types that no longer accept them.
type ClosedTypes map[string]bool

// NewClosedTypes builds the set from "app.model" identifiers.
func NewClosedTypes(types ...string) ClosedTypes {
	ct := ClosedTypes{}
	for _, t := range types {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			ct[t] = true
		}
	}
	return ct
}

// Name implements BeforeSaver.
func (ClosedTypes) Name() string { return "closed_types" }

// BeforeSave implements BeforeSaver.
func (ct ClosedTypes) BeforeSave(ctx context.Context, c *Comment, r *http.Request) Verdict {
	if ct[c.ContentType] {
		return Veto
	}
	return Abstain
}
