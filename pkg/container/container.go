package container

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnsupported is returned by Open when no registered opener recognises
// the data.
var ErrUnsupported = errors.New("unsupported image format")

// Image is an opened image container.
type Image struct {
	Width  int
	Height int

	// Format is the short format name, e.g. jpeg, png, webp, tiff.
	Format string

	// ExifBytes is the tag table stored by the container, starting at the
	// TIFF header. It is nil when the container stores none.
	ExifBytes []byte

	data []byte
}

// Data returns the bytes the image was opened from.
func (i *Image) Data() []byte {
	return i.data
}

// Opener opens one family of image formats.
type Opener interface {
	Name() string
	Sniff(data []byte) bool
	Open(data []byte) (*Image, error)
}

var registry struct {
	sync.RWMutex
	openers []Opener
}

// Register adds an opener. Registered openers are tried in registration
// order before the built in decoders.
func Register(o Opener) {
	registry.Lock()
	defer registry.Unlock()

	for i, existing := range registry.openers {
		if existing.Name() == o.Name() {
			registry.openers[i] = o
			return
		}
	}

	registry.openers = append(registry.openers, o)
}

// Registered returns the names of the registered openers, built in last.
func Registered() []string {
	registry.RLock()
	defer registry.RUnlock()

	names := make([]string, 0, len(registry.openers)+1)
	for _, o := range registry.openers {
		names = append(names, o.Name())
	}

	return append(names, builtin.Name())
}

// Open decodes the container header of data with the first opener that
// recognises it.
func Open(data []byte) (*Image, error) {
	registry.RLock()
	openers := append(append([]Opener{}, registry.openers...), builtin)
	registry.RUnlock()

	var errs []error
	for _, o := range openers {
		if !o.Sniff(data) {
			continue
		}

		img, err := o.Open(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Name(), err))
			continue
		}

		img.data = data

		return img, nil
	}

	if len(errs) == 0 {
		return nil, ErrUnsupported
	}

	return nil, fmt.Errorf("failed to open image: %w", errors.Join(errs...))
}
