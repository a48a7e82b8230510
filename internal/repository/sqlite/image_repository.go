package sqlite

import (
	"database/sql"
	"fmt"

	"detectview/internal/models"
)

// ImageRepository implements repository.ImageRepository for SQLite.
type ImageRepository struct {
	db *DB
}

func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Insert adds an analyzed image record.
func (r *ImageRepository) Insert(img *models.Image) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO images (filename, source, timestamp, filepath, filesize, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, img.Filename, img.Source, img.Timestamp, img.FilePath, img.FileSize, img.Width, img.Height)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}

	return result.LastInsertId()
}

// GetByID returns nil, nil when the image does not exist.
func (r *ImageRepository) GetByID(id int64) (*models.Image, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var img models.Image
	err := r.db.Conn().QueryRow(`
		SELECT id, filename, source, timestamp, filepath, filesize, width, height
		FROM images WHERE id = ?
	`, id).Scan(&img.ID, &img.Filename, &img.Source, &img.Timestamp, &img.FilePath, &img.FileSize, &img.Width, &img.Height)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

// GetAll returns images matching filter, newest first.
func (r *ImageRepository) GetAll(filter *models.ImageFilter) ([]models.Image, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	query := `
		SELECT DISTINCT i.id, i.filename, i.source, i.timestamp, i.filepath, i.filesize, i.width, i.height
		FROM images i
		LEFT JOIN detections d ON i.id = d.image_id
	` + where + " ORDER BY i.timestamp DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	images := []models.Image{}
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.Filename, &img.Source, &img.Timestamp, &img.FilePath, &img.FileSize, &img.Width, &img.Height); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetTotalCount returns the number of images matching filter, ignoring paging.
func (r *ImageRepository) GetTotalCount(filter *models.ImageFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	query := `
		SELECT COUNT(DISTINCT i.id)
		FROM images i
		LEFT JOIN detections d ON i.id = d.image_id
	` + where

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}

func buildWhere(filter *models.ImageFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return where, args
	}

	if filter.Source != "" {
		where += " AND i.source = ?"
		args = append(args, filter.Source)
	}
	if filter.Label != "" {
		where += " AND d.label = ?"
		args = append(args, filter.Label)
	}
	if !filter.After.IsZero() {
		where += " AND i.timestamp >= ?"
		args = append(args, filter.After)
	}
	if !filter.Before.IsZero() {
		where += " AND i.timestamp <= ?"
		args = append(args, filter.Before)
	}
	return where, args
}

// Delete removes an image and its detections.
func (r *ImageRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM detections WHERE image_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}
	if _, err := r.db.Conn().Exec(`DELETE FROM images WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// DeleteAll removes all images and detections.
func (r *ImageRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM detections`); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}
	if _, err := r.db.Conn().Exec(`DELETE FROM images`); err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}
	return nil
}
