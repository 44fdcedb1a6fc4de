package storagesvc

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type b2Service struct {
	client *b2.Client
	bucket *b2.Bucket
}

var _ core.FileStorage = (*b2Service)(nil)

func NewB2Service(ctx context.Context, conf *core.Config) (core.FileStorage, error) {
	client, err := b2.NewClient(ctx, conf.Storage.B2KeyID, conf.Storage.B2AppKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, conf.Storage.B2Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "getting b2 bucket")
	}
	return &b2Service{client: client, bucket: bucket}, nil
}

func (svc *b2Service) Upload(ctx context.Context, name, contentType string, size int64, r io.Reader) (core.UploadedFile, error) {
	// publicID keys the object; the original name only survives in metadata.
	publicID := uuid.NewString() + strings.ToLower(path.Ext(name))

	obj := svc.bucket.Object(publicID)
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return core.UploadedFile{}, errors.Wrap(err, "writing object")
	}
	if err := w.Close(); err != nil {
		return core.UploadedFile{}, errors.Wrap(err, "closing object writer")
	}

	return core.UploadedFile{
		FileName: name,
		FileURL:  fmt.Sprintf("%s/file/%s/%s", svc.bucket.BaseURL(), svc.bucket.Name(), publicID),
		FileType: contentType,
		FileSize: size,
		PublicID: publicID,
	}, nil
}

func (svc *b2Service) Delete(ctx context.Context, publicID string) error {
	if err := svc.bucket.Object(publicID).Delete(ctx); err != nil {
		return errors.Wrap(err, "deleting object")
	}
	return nil
}
