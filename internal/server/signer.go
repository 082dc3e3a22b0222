package server

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// cloudPrefix is the listing root for cloud-resident objects; both the
// free-retention and permanent scopes live under it.
const cloudPrefix = "cloud/"

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key  string
	Name string
	Size int64
}

// ObjectStore is the capability issuer: it mints time-bounded URLs for a
// single PUT or GET, deletes objects, and lists the cloud prefix. It holds
// no state beyond the underlying client.
type ObjectStore interface {
	SignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
	SignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	ListCloud(ctx context.Context, max int) ([]ObjectInfo, error)
}

type minioStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore wraps a MinIO client and bucket as an ObjectStore.
func NewObjectStore(client *minio.Client, bucket string) ObjectStore {
	return &minioStore{client: client, bucket: bucket}
}

func (m *minioStore) SignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := m.client.PresignedPutObject(ctx, m.bucket, key, ttl)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (m *minioStore) SignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Delete removes an object. S3 DeleteObject is idempotent: deleting an
// absent key succeeds, which is what the cleaner relies on.
func (m *minioStore) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func (m *minioStore) ListCloud(ctx context.Context, max int) ([]ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := make([]ObjectInfo, 0, max)
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    cloudPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:  obj.Key,
			Name: baseName(obj.Key),
			Size: obj.Size,
		})
		if len(objects) >= max {
			break
		}
	}
	return objects, nil
}

func baseName(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}
