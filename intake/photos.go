package intake

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"restoreassist/services"
)

// PhotoFile is one image chosen for upload.
type PhotoFile struct {
	Name     string
	Content  []byte
	Location string
	Category string
}

// UploadPhotos sends every file concurrently, at most uploadLimit at a time.
// Each file gets an uploading placeholder straight away; a successful upload
// replaces it with the stored photo and a failed one removes it. Failures do
// not affect the other files. The returned error reports how many failed.
func (c *Controller) UploadPhotos(ctx context.Context, files []PhotoFile) error {
	if len(files) == 0 {
		return nil
	}

	c.mu.Lock()
	id := c.form.ID
	if id == "" {
		c.mu.Unlock()
		c.notify(ToastWarning, "Enter the property address first")
		return ErrNoInspection
	}
	placeholders := make([]string, len(files))
	for i, f := range files {
		placeholders[i] = newTempID()
		c.form.Photos = append(c.form.Photos, services.Photo{
			ID:        placeholders[i],
			Location:  f.Location,
			Category:  f.Category,
			Uploading: true,
		})
	}
	c.mu.Unlock()

	var (
		g        errgroup.Group
		failedMu sync.Mutex
		failed   int
	)
	g.SetLimit(c.uploadLimit)

	for i, f := range files {
		tmpID := placeholders[i]
		g.Go(func() error {
			photo, err := c.api.UploadPhoto(ctx, id, f.Name, bytes.NewReader(f.Content), f.Location, f.Category)
			if err != nil {
				log.WithError(err).WithField("inspection", id).WithField("file", f.Name).Error("intake: photo upload failed")
				c.dropPhoto(tmpID)
				c.notify(ToastError, "Could not upload "+f.Name)
				failedMu.Lock()
				failed++
				failedMu.Unlock()
				return nil
			}
			c.replacePhoto(tmpID, photo)
			c.notify(ToastSuccess, "Uploaded "+f.Name)
			return nil
		})
	}
	_ = g.Wait()

	if failed > 0 {
		return fmt.Errorf("intake: %d of %d photos failed to upload", failed, len(files))
	}
	return nil
}

// RemovePhoto drops a photo from the form.
func (c *Controller) RemovePhoto(id string) bool {
	if !c.dropPhoto(id) {
		return false
	}
	c.notify(ToastInfo, "Photo removed")
	return true
}

func (c *Controller) replacePhoto(tmpID string, photo services.Photo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.form.Photos {
		if c.form.Photos[i].ID == tmpID {
			photo.Uploading = false
			c.form.Photos[i] = photo
			return
		}
	}
}

func (c *Controller) dropPhoto(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed bool
	c.form.Photos, removed = removeByID(c.form.Photos, id, func(p services.Photo) string { return p.ID })
	return removed
}
