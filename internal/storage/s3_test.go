package storage

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3(t *testing.T, endpoint string) *S3 {
	s, err := NewS3(context.Background(), S3Config{
		Bucket:          "safety-feed-photos",
		Region:          "ap-southeast-2",
		Endpoint:        endpoint,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Expiry:          5 * time.Minute,
	})
	require.NoError(t, err)
	return s
}

func TestPresignUpload(t *testing.T) {
	s := newTestS3(t, "")

	up, err := s.PresignUpload(context.Background(), "image/png")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, up.Method)
	assert.True(t, strings.HasPrefix(up.Key, "uploads/"))
	assert.True(t, strings.HasSuffix(up.Key, ".png"))
	assert.Contains(t, up.URL, "safety-feed-photos")
	assert.Contains(t, up.URL, "X-Amz-Signature=")
	assert.Equal(t, "https://safety-feed-photos.s3.ap-southeast-2.amazonaws.com/"+up.Key, up.PublicURL)
}

func TestPresignUpload_CustomEndpoint(t *testing.T) {
	s := newTestS3(t, "http://localhost:9000")

	up, err := s.PresignUpload(context.Background(), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.URL, "http://localhost:9000/safety-feed-photos/uploads/"))
}

func TestPresignUpload_RejectsUnknownType(t *testing.T) {
	s := newTestS3(t, "")

	_, err := s.PresignUpload(context.Background(), "application/x-msdownload")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
