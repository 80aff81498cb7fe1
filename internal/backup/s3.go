// Package backup mirrors cache artifacts to S3 after successful refreshes.
// The mirror is best-effort: upload failures are logged and never fail the
// pipeline.
package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/cache"
)

// Mirror uploads artifacts to s3://bucket/prefix/. A nil Mirror (no bucket
// configured) is valid and does nothing.
type Mirror struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	store    *cache.Store
	log      zerolog.Logger

	// uploaded tracks the artifact mtimes last mirrored, so unchanged
	// artifacts are skipped.
	uploaded map[string]time.Time
}

// NewMirror builds a mirror for the given bucket, or nil when bucket is
// empty.
func NewMirror(ctx context.Context, store *cache.Store, bucket, prefix, region string, log zerolog.Logger) (*Mirror, error) {
	if bucket == "" {
		return nil, nil
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Mirror{
		uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
		bucket:   bucket,
		prefix:   prefix,
		store:    store,
		log:      log.With().Str("component", "backup").Logger(),
		uploaded: map[string]time.Time{},
	}, nil
}

// Sync uploads every artifact that changed since the last sync. Errors are
// logged per artifact; Sync itself never fails.
func (m *Mirror) Sync(ctx context.Context) {
	if m == nil {
		return
	}
	synced := 0
	for _, name := range m.store.List() {
		mtime, err := m.store.MTime(name)
		if err != nil {
			continue
		}
		if prev, ok := m.uploaded[name]; ok && !mtime.After(prev) {
			continue
		}
		if err := m.upload(ctx, name); err != nil {
			m.log.Warn().Str("artifact", name).Err(err).Msg("Artifact upload failed")
			continue
		}
		m.uploaded[name] = mtime
		synced++
	}
	if synced > 0 {
		m.log.Info().Int("artifacts", synced).Str("bucket", m.bucket).Msg("Artifacts mirrored to S3")
	}
}

func (m *Mirror) upload(ctx context.Context, name string) error {
	f, err := os.Open(filepath.Join(m.store.Dir(), name))
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	key := path.Join(m.prefix, name)
	contentType := "application/json"
	_, err = m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &m.bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", m.bucket, key, err)
	}
	return nil
}
