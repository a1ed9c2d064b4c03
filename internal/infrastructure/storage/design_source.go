package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/printnest/backend/internal/infrastructure/render"
)

// DesignStore adapts an ObjectStorage into the renderer's DesignSource.
// Design references are object keys relative to the configured prefix.
type DesignStore struct {
	store  ObjectStorage
	prefix string
}

var _ render.DesignSource = (*DesignStore)(nil)

// NewDesignStore creates a design source reading under the given key prefix
func NewDesignStore(store ObjectStorage, prefix string) *DesignStore {
	return &DesignStore{store: store, prefix: prefix}
}

// FetchDesign implements render.DesignSource
func (d *DesignStore) FetchDesign(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, fmt.Errorf("design reference is required")
	}
	key := d.key(ref)
	data, err := d.store.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download design %s: %w", key, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode design %s: %w", key, err)
	}
	return img, nil
}

func (d *DesignStore) key(ref string) string {
	if d.prefix == "" || strings.HasPrefix(ref, d.prefix) {
		return ref
	}
	return d.prefix + strings.TrimPrefix(ref, "/")
}
