// Package archive stores ended broadcast sessions in S3 compatible storage.
package archive

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
	"github.com/truckwatch-io/truckwatch/pkg/options"
)

const prefix = "sessions"

var _ core.SessionArchive = (*MinIOArchive)(nil)

// MinIOArchive writes each ended session as a JSON object.
type MinIOArchive struct {
	client     *minio.Client
	bucketName string
}

func NewMinIOArchive(opts *options.S3Options) (*MinIOArchive, error) {
	minioOpts := &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	}
	if opts.InsecureSkipVerify {
		minioOpts.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := minio.New(opts.Endpoint, minioOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIOArchive{client: client, bucketName: opts.BucketName}, nil
}

// CheckBucket creates the bucket when it does not exist yet.
func (a *MinIOArchive) CheckBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating...", "bucket", a.bucketName)
		if err := a.client.MakeBucket(ctx, a.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (a *MinIOArchive) Archive(ctx context.Context, s *model.Session) error {
	key, body, err := encode(s)
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, a.bucketName, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload session %s: %w", s.ID, err)
	}

	log.Debug("Archived broadcast session", "bucket", a.bucketName, "key", key)
	return nil
}

// ObjectKey is where the session is stored inside the bucket.
func ObjectKey(s *model.Session) string {
	return path.Join(prefix, s.OwnerID, s.ID+".json")
}

func encode(s *model.Session) (string, []byte, error) {
	if s == nil || s.ID == "" || s.OwnerID == "" {
		return "", nil, fmt.Errorf("%w: session needs an id and owner", model.ErrInvalidArgument)
	}
	if s.Active() {
		return "", nil, fmt.Errorf("%w: session %s has not ended", model.ErrInvalidArgument, s.ID)
	}

	body, err := json.Marshal(s)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}
	return ObjectKey(s), body, nil
}
