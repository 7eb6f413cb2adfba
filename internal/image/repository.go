package image

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles image metadata persistence in PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a metadata record for an already-stored object and returns it.
// Callers must only invoke this after the object is durably stored, so a
// record never references a missing original.
func (r *Repository) Create(ctx context.Context, ownerID, objectKey, originalURL, caption string) (*Image, error) {
	img := &Image{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO images (owner_id, object_key, original_url, caption)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, owner_id, object_key, original_url, caption, created_at`,
		ownerID, objectKey, originalURL, caption,
	).Scan(&img.ID, &img.OwnerID, &img.ObjectKey, &img.OriginalURL, &img.Caption, &img.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create image record: %w", err)
	}
	return img, nil
}

// List returns all image records, most recent first.
func (r *Repository) List(ctx context.Context) ([]*Image, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, object_key, original_url, caption, created_at
		 FROM images
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		img := &Image{}
		if err := rows.Scan(&img.ID, &img.OwnerID, &img.ObjectKey, &img.OriginalURL, &img.Caption, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image row: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image rows: %w", err)
	}
	return images, nil
}

// GetByID fetches a single image record.
func (r *Repository) GetByID(ctx context.Context, id string) (*Image, error) {
	img := &Image{}
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, object_key, original_url, caption, created_at
		 FROM images WHERE id = $1`,
		id,
	).Scan(&img.ID, &img.OwnerID, &img.ObjectKey, &img.OriginalURL, &img.Caption, &img.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image by id: %w", err)
	}
	return img, nil
}

// Delete removes an image record.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
