// Package comment provides the comment model, its storage, the posting
// form, and the save listeners that run around persistence.
package comment

import (
	"time"

	"github.com/evcraddock/fluent-comments/internal/contenttype"
)

// Comment is a note left on any registered content type.
type Comment struct {
	ID          int64     `json:"id"`
	ContentType string    `json:"content_type"`
	ObjectPK    string    `json:"object_pk"`
	UserID      *int64    `json:"user_id,omitempty"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	UserURL     string    `json:"user_url,omitempty"`
	Body        string    `json:"comment"`
	IPAddress   string    `json:"ip_address,omitempty"`
	IsPublic    bool      `json:"is_public"`
	IsRemoved   bool      `json:"is_removed"`
	SubmitDate  time.Time `json:"submit_date"`

	// Target is set on comments built from a form; nil when loaded from storage.
	Target *contenttype.Target `json:"-"`
}

// Saved reports whether the comment has been persisted.
func (c *Comment) Saved() bool { return c.ID != 0 }
