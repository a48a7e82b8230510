package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"detectview/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertImage(t *testing.T, repo *ImageRepository, name, source string, ts time.Time) int64 {
	t.Helper()
	id, err := repo.Insert(&models.Image{
		Filename:  name,
		Source:    source,
		Timestamp: ts,
		FilePath:  "/images/" + name,
		FileSize:  1024,
		Width:     640,
		Height:    480,
	})
	if err != nil {
		t.Fatalf("Failed to insert image %s: %v", name, err)
	}
	return id
}

func TestDatabase_Connection(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestImageRepository_InsertAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewImageRepository(db)

	ts := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	id := insertImage(t, repo, "a.jpg", "remote", ts)

	img, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if img == nil {
		t.Fatal("Expected image, got nil")
	}
	if img.Filename != "a.jpg" || img.Source != "remote" || img.Width != 640 || img.Height != 480 {
		t.Errorf("Unexpected image %+v", img)
	}
	if !img.Timestamp.Equal(ts) {
		t.Errorf("Expected timestamp %v, got %v", ts, img.Timestamp)
	}

	missing, err := repo.GetByID(id + 100)
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing image, got %v, %v", missing, err)
	}
}

func TestImageRepository_DuplicateFilename(t *testing.T) {
	db := newTestDB(t)
	repo := NewImageRepository(db)

	insertImage(t, repo, "dup.jpg", "local", time.Now())
	if _, err := repo.Insert(&models.Image{Filename: "dup.jpg", Source: "local", Timestamp: time.Now()}); err == nil {
		t.Error("Expected unique constraint error")
	}
}

func TestImageRepository_Filters(t *testing.T) {
	db := newTestDB(t)
	images := NewImageRepository(db)
	detections := NewDetectionRepository(db)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	first := insertImage(t, images, "1.jpg", "remote", base)
	second := insertImage(t, images, "2.jpg", "local", base.Add(time.Hour))
	insertImage(t, images, "3.jpg", "remote", base.Add(2*time.Hour))

	if err := detections.InsertBatch([]models.StoredDetection{
		{ImageID: first, Label: "person", Score: 0.9},
		{ImageID: first, Label: "person", Score: 0.8},
		{ImageID: second, Label: "cup", Score: 0.7},
	}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	tests := []struct {
		name     string
		filter   *models.ImageFilter
		expected []string
	}{
		{"nil filter", nil, []string{"3.jpg", "2.jpg", "1.jpg"}},
		{"by source", &models.ImageFilter{Source: "remote"}, []string{"3.jpg", "1.jpg"}},
		{"by label", &models.ImageFilter{Label: "person"}, []string{"1.jpg"}},
		{"after", &models.ImageFilter{After: base.Add(30 * time.Minute)}, []string{"3.jpg", "2.jpg"}},
		{"before", &models.ImageFilter{Before: base.Add(30 * time.Minute)}, []string{"1.jpg"}},
		{"paged", &models.ImageFilter{Limit: 1, Offset: 1}, []string{"2.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := images.GetAll(tt.filter)
			if err != nil {
				t.Fatalf("GetAll failed: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d images, got %d", len(tt.expected), len(got))
			}
			for i, img := range got {
				if img.Filename != tt.expected[i] {
					t.Errorf("Position %d: expected %s, got %s", i, tt.expected[i], img.Filename)
				}
			}
		})
	}

	count, err := images.GetTotalCount(&models.ImageFilter{Label: "person", Limit: 1})
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 image with person, got %d", count)
	}
}

func TestDetectionRepository_Labels(t *testing.T) {
	db := newTestDB(t)
	images := NewImageRepository(db)
	detections := NewDetectionRepository(db)

	id := insertImage(t, images, "x.jpg", "remote", time.Now())
	other := insertImage(t, images, "y.jpg", "remote", time.Now())
	if err := detections.InsertBatch([]models.StoredDetection{
		{ImageID: id, Label: "dog", X: 1.5, Y: 2.5, Width: 10, Height: 20, Score: 0.5},
		{ImageID: id, Label: "cat", ClassID: 17},
		{ImageID: other, Label: "bird"},
	}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	labels, err := detections.GetLabelsByImageID(id)
	if err != nil {
		t.Fatalf("GetLabelsByImageID failed: %v", err)
	}
	if fmt.Sprint(labels) != "[cat dog]" {
		t.Errorf("Expected [cat dog], got %v", labels)
	}

	all, err := detections.GetAllLabels()
	if err != nil {
		t.Fatalf("GetAllLabels failed: %v", err)
	}
	if fmt.Sprint(all) != "[bird cat dog]" {
		t.Errorf("Expected [bird cat dog], got %v", all)
	}

	rows, err := detections.GetByImageID(id)
	if err != nil {
		t.Fatalf("GetByImageID failed: %v", err)
	}
	if len(rows) != 2 || rows[0].X != 1.5 || rows[0].Height != 20 || rows[1].ClassID != 17 {
		t.Errorf("Unexpected detections %+v", rows)
	}
}

func TestImageRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	images := NewImageRepository(db)
	detections := NewDetectionRepository(db)

	id := insertImage(t, images, "gone.jpg", "local", time.Now())
	keep := insertImage(t, images, "kept.jpg", "local", time.Now())
	detections.InsertBatch([]models.StoredDetection{{ImageID: id, Label: "car"}, {ImageID: keep, Label: "bus"}})

	if err := images.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if img, _ := images.GetByID(id); img != nil {
		t.Error("Image should be deleted")
	}
	if rows, _ := detections.GetByImageID(id); len(rows) != 0 {
		t.Errorf("Detections should be deleted, got %d", len(rows))
	}
	if rows, _ := detections.GetByImageID(keep); len(rows) != 1 {
		t.Error("Other image's detections should remain")
	}

	if err := images.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if count, _ := images.GetTotalCount(nil); count != 0 {
		t.Errorf("Expected empty history, got %d", count)
	}
}

func TestDatabase_ConcurrentAccess(t *testing.T) {
	db := newTestDB(t)
	repo := NewImageRepository(db)

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			_, err := repo.Insert(&models.Image{
				Filename:  fmt.Sprintf("concurrent_%d.jpg", idx),
				Source:    "local",
				Timestamp: time.Now(),
			})
			if err != nil {
				t.Errorf("Concurrent insert %d failed: %v", idx, err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	count, err := repo.GetTotalCount(nil)
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 10 {
		t.Errorf("Expected 10 images, got %d", count)
	}
}
