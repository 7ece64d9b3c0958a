package handlers

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/charlieegan3/metadata-console/pkg/history"
	"github.com/charlieegan3/metadata-console/pkg/objects"
)

// ObjectStore is the object storage used by the object endpoints.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]objects.Object, error)
	Get(ctx context.Context, key string) ([]byte, string, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// EditHistory records applied edits and lists recent ones.
type EditHistory interface {
	Record(ctx context.Context, e history.Edit) (history.Edit, error)
	Recent(ctx context.Context, limit int) ([]history.Edit, error)
}

type Options struct {
	DevMode    bool
	EtagScript string
	EtagStyles string

	// MaxUploadBytes is the largest accepted image.
	MaxUploadBytes int64

	Logger *logrus.Logger

	// Objects and History are optional, their endpoints respond with 404
	// when unset.
	Objects ObjectStore
	History EditHistory
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (o *Options) log() *logrus.Logger {
	if o.Logger == nil {
		return discardLogger
	}

	return o.Logger
}
