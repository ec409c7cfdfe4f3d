package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a comment does not exist.
var ErrNotFound = errors.New("comment not found")

// Repository provides CRUD operations for comments.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a comment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, content_type, object_pk, user_id, user_name, user_email, user_url,
	comment, ip_address, is_public, is_removed, submit_date`

// Save inserts c and sets its ID. Saving an already-saved comment is an error.
func (r *Repository) Save(ctx context.Context, c *Comment) error {
	if c.Saved() {
		return fmt.Errorf("comment %d already saved", c.ID)
	}
	if strings.TrimSpace(c.Body) == "" {
		return fmt.Errorf("comment text is required")
	}

	var ip sql.NullString
	if c.IPAddress != "" {
		ip = sql.NullString{String: c.IPAddress, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO comments
			(content_type, object_pk, user_id, user_name, user_email, user_url, comment, ip_address, is_public, is_removed, submit_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ContentType, c.ObjectPK, c.UserID, c.UserName, c.UserEmail, c.UserURL,
		c.Body, ip, c.IsPublic, c.IsRemoved, c.SubmitDate.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting insert id: %w", err)
	}
	c.ID = id

	return nil
}

// GetByID returns a comment by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Comment, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM comments WHERE id = ?", id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading comment %d: %w", id, err)
	}
	return c, nil
}

// ListForTarget returns the visible comments on one object, oldest first.
func (r *Repository) ListForTarget(ctx context.Context, contentType, objectPK string) ([]*Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectColumns+` FROM comments
			WHERE content_type = ? AND object_pk = ? AND is_public = 1 AND is_removed = 0
			ORDER BY submit_date, id`,
		contentType, objectPK,
	)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// Count returns the number of stored comments, visible or not.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	return n, nil
}

// Delete removes a comment by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func scanComment(row interface{ Scan(...interface{}) error }) (*Comment, error) {
	var c Comment
	var userID sql.NullInt64
	var ip sql.NullString
	if err := row.Scan(
		&c.ID, &c.ContentType, &c.ObjectPK, &userID, &c.UserName, &c.UserEmail, &c.UserURL,
		&c.Body, &ip, &c.IsPublic, &c.IsRemoved, &c.SubmitDate,
	); err != nil {
		return nil, err
	}
	if userID.Valid {
		c.UserID = &userID.Int64
	}
	c.IPAddress = ip.String
	return &c, nil
}
