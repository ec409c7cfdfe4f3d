// Package property provides the listing entity the demo site attaches
// comments to, registered as content type "listings.property".
package property

import (
	"strconv"
	"time"
)

// ContentType is the registry identifier for properties.
const ContentType = "listings.property"

// Property is a tracked house listing.
type Property struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// PK returns the primary key as a string.
func (p *Property) PK() string { return strconv.FormatInt(p.ID, 10) }

func (p *Property) String() string { return p.Address }
