package imagestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memObjects) URL(key string) string {
	return "https://cdn.example.test/" + key
}

func TestUploadStoresImage(t *testing.T) {
	objects := newMemObjects()
	u := NewUploader(objects, 0)
	assert.Equal(t, int64(DefaultMaxBytes), u.MaxBytes())

	img, err := u.Upload(context.Background(), "Photo.PNG", "image/png", 4, bytes.NewReader([]byte("\x89PNG")))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(img.PublicID, "products/"))
	assert.True(t, strings.HasSuffix(img.PublicID, ".png"))
	assert.Equal(t, "https://cdn.example.test/"+img.PublicID, img.URL)
	assert.Equal(t, []byte("\x89PNG"), objects.objects[img.PublicID])
	assert.Equal(t, "image/png", objects.types[img.PublicID])
}

func TestUploadRejectsNonImages(t *testing.T) {
	u := NewUploader(newMemObjects(), 0)

	_, err := u.Upload(context.Background(), "notes.txt", "text/plain", 3, strings.NewReader("abc"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestUploadRejectsOversize(t *testing.T) {
	u := NewUploader(newMemObjects(), 8)

	_, err := u.Upload(context.Background(), "big.jpg", "image/jpeg", 9, strings.NewReader("123456789"))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUploadWrapsStoreErrors(t *testing.T) {
	objects := newMemObjects()
	objects.err = errors.New("bucket gone")
	u := NewUploader(objects, 0)

	_, err := u.Upload(context.Background(), "a.jpg", "image/jpeg", 1, strings.NewReader("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "ftp", Bucket: "images"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: "s3"})
	assert.Error(t, err)
}
