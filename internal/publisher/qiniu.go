package publisher

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/qiniu/go-sdk/v7/storagev2/credentials"
	"github.com/qiniu/go-sdk/v7/storagev2/http_client"
	"github.com/qiniu/go-sdk/v7/storagev2/uploader"

	"github.com/desertthunder/cancionero/internal/shared"
)

// Qiniu uploads to a Qiniu Kodo bucket served from a bound domain.
type Qiniu struct {
	manager *uploader.UploadManager
	bucket  string
	domain  string
}

// NewQiniu creates a Qiniu backend. Keys, bucket and domain are required.
func NewQiniu(cfg shared.QiniuConfig) (*Qiniu, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" || cfg.Domain == "" {
		return nil, fmt.Errorf("%w: qiniu requires access_key, secret_key, bucket and domain", shared.ErrMissingConfig)
	}

	mac := credentials.NewCredentials(cfg.AccessKey, cfg.SecretKey)
	manager := uploader.NewUploadManager(&uploader.UploadManagerOptions{
		Options: http_client.Options{
			Credentials: mac,
		},
	})

	return &Qiniu{
		manager: manager,
		bucket:  cfg.Bucket,
		domain:  strings.TrimRight(cfg.Domain, "/"),
	}, nil
}

func (q *Qiniu) Name() string { return shared.PublisherQiniu }

// Upload stores obj under its key and returns "{domain}/{key}".
func (q *Qiniu) Upload(ctx context.Context, obj Object) (string, error) {
	key := obj.Key()
	err := q.manager.UploadReader(ctx, bytes.NewReader(obj.Data), &uploader.ObjectOptions{
		BucketName: q.bucket,
		ObjectName: &key,
		FileName:   obj.Filename(),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to upload to qiniu: %v", shared.ErrRemoteService, err)
	}

	return q.ObjectURL(key), nil
}

// ObjectURL returns the public URL of key on the bound domain.
func (q *Qiniu) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s", q.domain, key)
}
