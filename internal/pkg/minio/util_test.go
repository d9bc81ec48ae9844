package minio

import (
	"Hearth/internal/api/config"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPublicURL(t *testing.T) {
	s := &Store{publicURL: publicBase(config.MinIOConfig{
		Endpoint:       "minio:9000",
		PublicEndpoint: "cdn.example.com",
		Bucket:         "hearth",
		UseSSL:         true,
	})}
	assert.Equal(t, "https://cdn.example.com/hearth/avatars/a.jpg", s.GetPublicURL("avatars/a.jpg"))

	s = &Store{publicURL: publicBase(config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"})}
	assert.Equal(t, "http://localhost:9000/b/x.jpg", s.GetPublicURL("x.jpg"))
}
