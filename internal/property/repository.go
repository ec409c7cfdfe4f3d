package property

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/evcraddock/fluent-comments/internal/contenttype"
)

// Repository provides CRUD operations for properties.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Register adds properties to the content type registry.
func (r *Repository) Register(reg *contenttype.Registry) {
	appLabel, model, _ := strings.Cut(ContentType, ".")
	reg.Register(appLabel, model, r.Lookup)
}

// Lookup resolves a property for the content type registry.
func (r *Repository) Lookup(ctx context.Context, pk string) (contenttype.Object, error) {
	id, err := contenttype.IntKey(pk)
	if err != nil {
		return nil, err
	}

	var p Property
	err = r.db.QueryRowContext(ctx,
		"SELECT id, address, created_at FROM properties WHERE id = ?", id,
	).Scan(&p.ID, &p.Address, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, contenttype.ErrDoesNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %d: %w", id, err)
	}

	return &p, nil
}

// Insert adds a new property and returns it with its generated ID.
func (r *Repository) Insert(ctx context.Context, address string) (*Property, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	result, err := r.db.ExecContext(ctx, "INSERT INTO properties (address) VALUES (?)", address)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a property by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Property, error) {
	obj, err := r.Lookup(ctx, strconv.FormatInt(id, 10))
	if errors.Is(err, contenttype.ErrDoesNotExist) {
		return nil, fmt.Errorf("property %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return obj.(*Property), nil
}

// List returns all properties, newest first.
func (r *Repository) List(ctx context.Context) ([]*Property, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, address, created_at FROM properties ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer rows.Close()

	var properties []*Property
	for rows.Next() {
		var p Property
		if err := rows.Scan(&p.ID, &p.Address, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return properties, nil
}

// Delete removes a property by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %d not found", id)
	}

	return nil
}
