package store

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
)

const imageKeyPrefix = "images/"

// ImageStore keeps observation photos content-addressed, so storing the same bytes twice is a no-op
type ImageStore struct {
	blob interfaces.BlobStore
}

var _ interfaces.ImageRepository = &ImageStore{}

func NewImageStore(blob interfaces.BlobStore) *ImageStore {
	return &ImageStore{blob: blob}
}

func imageKey(ref model.ImageRef) string {
	return imageKeyPrefix + string(ref)
}

func mimeKey(ref model.ImageRef) string {
	return imageKeyPrefix + string(ref) + ".mime"
}

func (s *ImageStore) Put(ctx context.Context, img model.Image) (model.ImageRef, error) {
	if len(img.Data) == 0 {
		return "", goerr.Wrap(model.ErrInvalidInput, "image data is empty")
	}

	ref := model.NewImageRef(img.Data)
	if _, err := s.blob.Get(ctx, imageKey(ref)); err == nil {
		return ref, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return "", goerr.Wrap(errors.Join(model.ErrStore, err), "failed to probe image", goerr.V("ref", ref))
	}

	// MIME first: an image blob is only reachable once its sidecar exists
	if err := s.blob.Put(ctx, mimeKey(ref), []byte(img.MIMEType)); err != nil {
		return "", goerr.Wrap(errors.Join(model.ErrStore, err), "failed to store image type", goerr.V("ref", ref))
	}
	if err := s.blob.Put(ctx, imageKey(ref), img.Data); err != nil {
		return "", goerr.Wrap(errors.Join(model.ErrStore, err), "failed to store image", goerr.V("ref", ref))
	}
	return ref, nil
}

func (s *ImageStore) Get(ctx context.Context, ref model.ImageRef) (*model.Image, error) {
	if !ref.Valid() {
		return nil, goerr.Wrap(model.ErrInvalidInput, "invalid image reference", goerr.V("ref", ref))
	}

	data, err := s.blob.Get(ctx, imageKey(ref))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(err, "image not found", goerr.V("ref", ref))
		}
		return nil, goerr.Wrap(errors.Join(model.ErrStore, err), "failed to read image", goerr.V("ref", ref))
	}

	mimeType, err := s.blob.Get(ctx, mimeKey(ref))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, goerr.Wrap(errors.Join(model.ErrStore, err), "failed to read image type", goerr.V("ref", ref))
	}
	if len(mimeType) == 0 {
		mimeType = []byte("application/octet-stream")
	}

	return &model.Image{Data: data, MIMEType: string(mimeType)}, nil
}
