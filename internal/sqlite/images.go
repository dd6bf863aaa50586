package sqlite

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// RegisterImage records a named reference to externally stored image bytes
// so item blocks can name it in their image column. Names are unique
// regardless of case. Returns ErrInvalidName for a blank name and
// ErrDuplicateName when the name is taken.
func (b *Backend) RegisterImage(name string) (*types.Image, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.ErrInvalidName
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	id, err := generateUUID()
	if err != nil {
		return nil, err
	}
	img := &types.Image{ImageID: id, Name: name, CreatedAt: time.Now().UTC()}
	_, err = b.db.Exec(
		"INSERT INTO images (image_id, name, created_at) VALUES (?, ?, ?)",
		img.ImageID, img.Name, formatTime(img.CreatedAt),
	)
	if isUniqueViolation(err) {
		return nil, types.ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("inserting image %q: %w", name, err)
	}
	if err := b.persistLocked(imagesJSONL); err != nil {
		return nil, err
	}
	b.log.Debug("image registered", "image", name, "id", id)
	return img, nil
}

// ListImages returns every registered image, oldest first.
func (b *Backend) ListImages() ([]*types.Image, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return b.listImagesLocked()
}

func (b *Backend) listImagesLocked() ([]*types.Image, error) {
	rows, err := b.db.Query("SELECT image_id, name, created_at FROM images ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	images := []*types.Image{}
	for rows.Next() {
		var img types.Image
		var createdAt string
		if err := rows.Scan(&img.ImageID, &img.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		img.CreatedAt = parseTime(createdAt)
		images = append(images, &img)
	}
	return images, rows.Err()
}

func (b *Backend) persistImagesJSONL() error {
	images, err := b.listImagesLocked()
	if err != nil {
		return err
	}
	records := make([]json.RawMessage, 0, len(images))
	for _, img := range images {
		rec, err := dehydrateImage(img)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return writeJSONL(filepath.Join(b.dataDir, imagesJSONL), records)
}
