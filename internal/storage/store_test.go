package storage

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
)

// 1x1 transparent PNG
const pixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestDecodeDataURI(t *testing.T) {
	img, err := DecodeDataURI("data:image/png;base64," + pixelPNG)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Ext)
	assert.NotEmpty(t, img.Data)
}

func TestDecodeDataURIRejects(t *testing.T) {
	cases := []string{
		"",
		"https://example.com/a.png",
		"data:image/png;base64,!!!",
		"data:image/png," + pixelPNG,
		"data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello world")),
	}
	for _, c := range cases {
		_, err := DecodeDataURI(c)
		assert.ErrorIs(t, err, ErrInvalidImage, c)
	}
}

func TestNewKey(t *testing.T) {
	key := NewKey("recipes", "png")
	assert.True(t, strings.HasPrefix(key, "recipes/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, NewKey("recipes", "png"))
}

func TestDiskStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/media")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "recipes/a.png", []byte("x"), "image/png"))
	data, err := os.ReadFile(filepath.Join(dir, "recipes", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.Equal(t, "/media/recipes/a.png", store.URL("recipes/a.png"))

	require.NoError(t, store.Delete(ctx, "recipes/a.png"))
	_, err = os.Stat(filepath.Join(dir, "recipes", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "recipes/a.png"))
	assert.Error(t, store.Save(ctx, "../escape.png", []byte("x"), "image/png"))
}

func TestS3StoreURL(t *testing.T) {
	s3cfg := &config.S3Config{Client: s3.New(s3.Options{Region: "eu-west-1"}), BucketName: "media"}

	store := NewS3Store(s3cfg, "eu-west-1", "")
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/recipes/a.png", store.URL("recipes/a.png"))

	minio := NewS3Store(s3cfg, "eu-west-1", "http://localhost:9000/")
	assert.Equal(t, "http://localhost:9000/media/recipes/a.png", minio.URL("recipes/a.png"))
}
