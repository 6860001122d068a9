package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	ps "cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"

	"github.com/2400030292/MedGuard-AI/internal/adapter/blobstore"
	"github.com/2400030292/MedGuard-AI/internal/adapter/capture"
	"github.com/2400030292/MedGuard-AI/internal/adapter/notify"
	"github.com/2400030292/MedGuard-AI/internal/adapter/pubsub"
	"github.com/2400030292/MedGuard-AI/internal/config"
)

type blobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// openBlobs returns the preview store and a func releasing its client.
func openBlobs(ctx context.Context, cfg config.StorageConfig) (blobStore, func(), error) {
	switch cfg.Backend {
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("storage client: %w", err)
		}
		return blobstore.NewGCS(client, cfg.GCSBucket, cfg.GCSPrefix), func() { _ = client.Close() }, nil
	default:
		local, err := blobstore.NewLocal(cfg.LocalDir)
		if err != nil {
			return nil, nil, err
		}
		return local, func() {}, nil
	}
}

func newCamera(cfg config.CameraConfig, maxBytes int64) capture.Camera {
	if cfg.SnapshotURL == "" {
		return capture.NoCamera{}
	}
	return capture.NewHTTPCamera(cfg.SnapshotURL, cfg.Timeout, maxBytes)
}

// openAlerts fans notifications out to the in-process feed and, when a
// project is configured, to a Pub/Sub topic.
func openAlerts(ctx context.Context, cfg config.NotifyConfig, feed *notify.Feed, logger *slog.Logger) (notify.Publisher, func(), error) {
	if cfg.PubSubProject == "" {
		return feed, func() {}, nil
	}

	client, err := ps.NewClient(ctx, cfg.PubSubProject)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client: %w", err)
	}

	topic := pubsub.New(logger, client, cfg.PubSubTopic)
	if err := topic.EnsureTopic(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	logger.Info("publishing alerts to pubsub",
		slog.String("project", cfg.PubSubProject),
		slog.String("topic", cfg.PubSubTopic),
	)

	closeFn := func() {
		topic.Stop()
		_ = client.Close()
	}
	return notify.Multi{feed, topic}, closeFn, nil
}
