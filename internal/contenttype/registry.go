// Package contenttype maps "app_label.model" identifiers to typed lookups,
// so a comment can point at any registered entity by (type, primary key).
package contenttype

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Object is an entity that comments can be attached to.
type Object interface {
	// PK returns the canonical string form of the primary key.
	PK() string
	String() string
}

// LookupFunc fetches one object of a registered type by primary key.
// It returns ErrDoesNotExist when no row matches and a *KeyFormatError
// when pk is not valid for the type's key format.
type LookupFunc func(ctx context.Context, pk string) (Object, error)

// ErrDoesNotExist is returned (possibly wrapped) by lookups for missing rows.
var ErrDoesNotExist = errors.New("object does not exist")

// Target is a resolved comment target.
type Target struct {
	ContentType string
	Object      Object
}

// PK returns the target object's canonical primary key.
func (t *Target) PK() string { return t.Object.PK() }

func (t *Target) String() string { return t.Object.String() }

// Registry holds the known content types. Register at startup, then share.
type Registry struct {
	mu    sync.RWMutex
	types map[string]LookupFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]LookupFunc)}
}

// Register adds a content type. It panics on an empty or duplicate name.
func (r *Registry) Register(appLabel, model string, fn LookupFunc) {
	if appLabel == "" || model == "" || fn == nil {
		panic("contenttype: Register requires app label, model, and lookup")
	}
	key := strings.ToLower(appLabel + "." + model)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.types[key]; dup {
		panic("contenttype: duplicate registration for " + key)
	}
	r.types[key] = fn
}

// Types returns the registered identifiers in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for k := range r.types {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves "app_label.model" plus a primary key to a Target.
// Failures are returned as *InvalidError, *UnknownTypeError,
// *NotFoundError or *InvalidKeyError; anything else is a storage error.
func (r *Registry) Lookup(ctx context.Context, ctype, pk string) (*Target, error) {
	appLabel, model, ok := strings.Cut(ctype, ".")
	if !ok {
		return nil, &InvalidError{Value: ctype}
	}
	key := strings.ToLower(appLabel + "." + model)

	r.mu.RLock()
	fn, found := r.types[key]
	r.mu.RUnlock()
	if !found {
		return nil, &UnknownTypeError{Value: ctype}
	}

	obj, err := fn(ctx, pk)
	if err != nil {
		var kerr *KeyFormatError
		switch {
		case errors.Is(err, ErrDoesNotExist):
			return nil, &NotFoundError{Value: ctype, PK: pk}
		case errors.As(err, &kerr):
			return nil, &InvalidKeyError{Value: ctype, PK: pk, Err: kerr.Err}
		default:
			return nil, fmt.Errorf("looking up %s %q: %w", key, pk, err)
		}
	}

	return &Target{ContentType: key, Object: obj}, nil
}
