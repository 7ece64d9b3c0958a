package objects

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// EditedPrefix is prepended to the key of an object when its edited copy
// is written back.
const EditedPrefix = "edited/"

var ErrNotFound = errors.New("object not found")

// Store reads and writes image objects in a single bucket.
type Store struct {
	client *minio.Client
	bucket string
}

func NewStore(client *minio.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Bucket returns the name of the bucket the store uses.
func (s *Store) Bucket() string {
	return s.bucket
}

// CheckBucket returns an error when the bucket does not exist.
func (s *Store) CheckBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("could not check if bucket exists: %w", err)
	}

	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}

	return nil
}

// Object is a listed object.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// List returns the objects under prefix, skipping previously edited
// copies unless prefix itself is within EditedPrefix.
func (s *Store) List(ctx context.Context, prefix string) ([]Object, error) {
	prefix = strings.TrimPrefix(prefix, "/")
	skipEdited := !strings.HasPrefix(prefix, EditedPrefix)

	objs := []Object{}
	for obj := range s.client.ListObjects(
		ctx,
		s.bucket,
		minio.ListObjectsOptions{Prefix: prefix, Recursive: true},
	) {
		if obj.Err != nil {
			return nil, fmt.Errorf("could not list objects: %w", obj.Err)
		}

		if skipEdited && strings.HasPrefix(obj.Key, EditedPrefix) {
			continue
		}

		if strings.HasSuffix(obj.Key, "/") {
			continue
		}

		objs = append(objs, Object{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return objs, nil
}

// Get returns the contents and content type of the object at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, "", err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("could not get object %s: %w", key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, "", fmt.Errorf("could not stat object %s: %w", key, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("could not read object %s: %w", key, err)
	}

	return data, info.ContentType, nil
}

// Put writes data to key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("could not put object %s: %w", key, err)
	}

	return nil
}

// EditedKey returns the key an edited copy of key is stored under.
func EditedKey(key string) string {
	return EditedPrefix + strings.TrimPrefix(key, "/")
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}

	if cleaned := path.Clean(key); cleaned != key || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", fmt.Errorf("invalid object key: %s", key)
	}

	return key, nil
}
