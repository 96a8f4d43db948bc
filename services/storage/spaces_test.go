package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryS3 struct {
	s3iface.S3API
	objects map[string][]byte
	types   map[string]string
}

func newMemoryS3() *memoryS3 {
	return &memoryS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*in.Key] = data
	m.types[*in.Key] = aws.StringValue(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *memoryS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(m.objects[*in.Key]))}, nil
}

func TestSpacesClientRoundTrip(t *testing.T) {
	api := newMemoryS3()
	client := NewSpacesClientWithAPI(api, "imports", "sgp1.digitaloceanspaces.com")

	url, err := client.UploadBytes(context.Background(), "imports/2026-01-01/a.csv", []byte("a,b"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "https://imports.sgp1.digitaloceanspaces.com/imports/2026-01-01/a.csv", url)
	assert.Equal(t, "text/csv", api.types["imports/2026-01-01/a.csv"])

	data, err := client.Download(context.Background(), "imports/2026-01-01/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(data))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DO_SPACES_ACCESS_KEY", "key")
	t.Setenv("DO_SPACES_SECRET_KEY", "secret")
	t.Setenv("DO_SPACES_BUCKET", "bucket")
	t.Setenv("DO_SPACES_REGION", "nyc3")
	t.Setenv("DO_SPACES_ENDPOINT", "")

	config, ok := ConfigFromEnv()
	require.True(t, ok)
	assert.Equal(t, "nyc3.digitaloceanspaces.com", config.Endpoint)

	t.Setenv("DO_SPACES_BUCKET", "")
	_, ok = ConfigFromEnv()
	assert.False(t, ok)
}
