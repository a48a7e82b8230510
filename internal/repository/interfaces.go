package repository

import "detectview/internal/models"

// ImageRepository stores analyzed images.
type ImageRepository interface {
	Insert(img *models.Image) (int64, error)

	GetByID(id int64) (*models.Image, error)
	GetAll(filter *models.ImageFilter) ([]models.Image, error)
	GetTotalCount(filter *models.ImageFilter) (int, error)

	Delete(id int64) error
	DeleteAll() error
}

// DetectionRepository stores the detections of analyzed images.
type DetectionRepository interface {
	InsertBatch(detections []models.StoredDetection) error

	GetByImageID(imageID int64) ([]models.StoredDetection, error)
	GetLabelsByImageID(imageID int64) ([]string, error)
	GetAllLabels() ([]string, error)

	DeleteByImageID(imageID int64) error
}
