package test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioImage    = "quay.io/minio/minio:RELEASE.2024-05-01T01-11-10Z"
	minioPort     = "9000/tcp"
	minioUser     = "metadata-console"
	minioPassword = "metadata-console-secret"
)

// InitMinio starts an object store holding one empty bucket, the layout the
// server expects when object storage is configured.
func InitMinio(ctx context.Context, t *testing.T, bucket string) (*minio.Client, func() error, error) {
	svc, err := startService(ctx, t, testcontainers.ContainerRequest{
		Image:        minioImage,
		Cmd:          []string{"server", "/data"},
		ExposedPorts: []string{minioPort},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioPassword,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort(minioPort),
	}, minioPort)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() error { return svc.terminate(ctx) }

	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(minioUser, minioPassword, ""),
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("could not create minio client: %w", err)
	}

	err = retry(t, "minio", 10, 500*time.Millisecond, func() error {
		_, err := client.ListBuckets(ctx)
		return err
	})
	if err != nil {
		return nil, cleanup, err
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return nil, cleanup, fmt.Errorf("could not create bucket %s: %w", bucket, err)
	}

	return client, cleanup, nil
}
