package contenttype

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	id    int64
	title string
}

func (p *page) PK() string     { return strconv.FormatInt(p.id, 10) }
func (p *page) String() string { return p.title }

func testRegistry() *Registry {
	pages := map[int64]*page{1: {id: 1, title: "About"}}

	r := NewRegistry()
	r.Register("cms", "page", func(ctx context.Context, pk string) (Object, error) {
		id, err := IntKey(pk)
		if err != nil {
			return nil, err
		}
		p, ok := pages[id]
		if !ok {
			return nil, ErrDoesNotExist
		}
		return p, nil
	})
	r.Register("cms", "broken", func(ctx context.Context, pk string) (Object, error) {
		return nil, errors.New("disk on fire")
	})
	return r
}

func TestLookupFound(t *testing.T) {
	r := testRegistry()

	target, err := r.Lookup(context.Background(), "cms.page", "1")
	require.NoError(t, err)
	assert.Equal(t, "cms.page", target.ContentType)
	assert.Equal(t, "1", target.PK())
	assert.Equal(t, "About", target.String())
}

func TestLookupCaseInsensitiveType(t *testing.T) {
	r := testRegistry()

	target, err := r.Lookup(context.Background(), "CMS.Page", "1")
	require.NoError(t, err)
	assert.Equal(t, "cms.page", target.ContentType)
}

func TestLookupErrors(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		name  string
		ctype string
		pk    string
		check func(t *testing.T, err error)
	}{
		{"no separator", "cmspage", "1", func(t *testing.T, err error) {
			var e *InvalidError
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "cmspage", e.Value)
		}},
		{"unknown type", "cms.post", "1", func(t *testing.T, err error) {
			var e *UnknownTypeError
			require.ErrorAs(t, err, &e)
		}},
		{"empty model", "cms.", "1", func(t *testing.T, err error) {
			var e *UnknownTypeError
			require.ErrorAs(t, err, &e)
		}},
		{"missing row", "cms.page", "42", func(t *testing.T, err error) {
			var e *NotFoundError
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "42", e.PK)
		}},
		{"malformed key", "cms.page", "abc", func(t *testing.T, err error) {
			var e *InvalidKeyError
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "*strconv.NumError", e.Kind())
			var numErr *strconv.NumError
			assert.ErrorAs(t, err, &numErr)
		}},
		{"storage failure", "cms.broken", "1", func(t *testing.T, err error) {
			require.Error(t, err)
			assert.Contains(t, err.Error(), "disk on fire")
			var nf *NotFoundError
			assert.False(t, errors.As(err, &nf))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Lookup(context.Background(), tt.ctype, tt.pk)
			tt.check(t, err)
		})
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := testRegistry()
	assert.Panics(t, func() {
		r.Register("CMS", "Page", func(ctx context.Context, pk string) (Object, error) { return nil, nil })
	})
}

func TestTypesSorted(t *testing.T) {
	assert.Equal(t, []string{"cms.broken", "cms.page"}, testRegistry().Types())
}
