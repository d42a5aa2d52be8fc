package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// outputKeyPrefix is the key prefix generated videos are republished under.
const outputKeyPrefix = "output_video/"

// Republisher moves one generated video from the provider's transient result
// URL into the blob store: fetch, stage to a temporary file, put, clean up.
type Republisher struct {
	logger  *slog.Logger
	store   Store
	tempDir string
}

// NewRepublisher creates a Republisher that stages downloads in tempDir.
func NewRepublisher(logger *slog.Logger, store Store, tempDir string) (*Republisher, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	return &Republisher{
		logger:  logger.With(slog.String("component", "republisher")),
		store:   store,
		tempDir: tempDir,
	}, nil
}

// Republish downloads the video behind sourceURL and publishes it as
// <baseName>.mp4 under the output prefix, returning the durable URL.
// The staged file is removed on every path.
func (r *Republisher) Republish(ctx context.Context, sourceURL, baseName string) (string, error) {
	data, err := r.store.Fetch(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to download video: %w", err)
	}

	filename := baseName + ".mp4"
	staged := filepath.Join(r.tempDir, filename)

	if err := os.WriteFile(staged, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to stage video: %w", err)
	}
	defer func() {
		if rerr := os.Remove(staged); rerr != nil && !os.IsNotExist(rerr) {
			r.logger.Warn("failed to remove staged video", "path", staged, "error", rerr)
		}
	}()

	blobURL, err := r.store.Put(ctx, staged, outputKeyPrefix+filename)
	if err != nil {
		return "", fmt.Errorf("failed to publish video: %w", err)
	}

	r.logger.Info("republished video",
		"source_url", sourceURL,
		"blob_url", blobURL,
		"size_bytes", len(data))
	return blobURL, nil
}
