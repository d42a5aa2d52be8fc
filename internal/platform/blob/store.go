package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reeldeck/reeldeck-api/internal/config"
)

// Store is the blob-store boundary: Put publishes a local file under a key
// and returns its durable URL; Fetch retrieves the raw bytes behind a remote
// URL.
type Store interface {
	Put(ctx context.Context, localPath, key string) (string, error)
	Fetch(ctx context.Context, remoteURL string) ([]byte, error)
}

// LocalStore is a filesystem-backed Store. Objects are written under a root
// directory and served by the application's static file route, so the durable
// URL is the configured base URL joined with the object key.
type LocalStore struct {
	logger       *slog.Logger
	rootDir      string
	baseURL      string
	fetchTimeout time.Duration
	httpClient   *http.Client
}

// NewLocalStore creates a LocalStore from the blob configuration, creating
// the root directory if needed.
func NewLocalStore(logger *slog.Logger, cfg config.BlobConfig) (*LocalStore, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.RootDir == "" {
		return nil, errors.New("blob root directory cannot be empty")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("blob base URL cannot be empty")
	}

	if err := os.MkdirAll(cfg.RootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root directory: %w", err)
	}

	fetchTimeout := time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Minute
	}

	return &LocalStore{
		logger:       logger.With(slog.String("component", "blob_store")),
		rootDir:      cfg.RootDir,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		fetchTimeout: fetchTimeout,
		httpClient:   &http.Client{Timeout: fetchTimeout},
	}, nil
}

// Put copies the local file into the store under the given key and returns
// the public URL it is served at. Existing objects with the same key are
// overwritten.
func (s *LocalStore) Put(ctx context.Context, localPath, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key = strings.TrimLeft(filepath.ToSlash(key), "/")
	target := filepath.Join(s.rootDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create blob object: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write blob object: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize blob object: %w", err)
	}

	blobURL := s.baseURL + "/" + key
	s.logger.Debug("published blob", "key", key, "url", blobURL)
	return blobURL, nil
}

// Fetch downloads the bytes behind a remote URL with the configured bounded
// timeout.
func (s *LocalStore) Fetch(ctx context.Context, remoteURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", remoteURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch of %s returned HTTP %d", remoteURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read fetched body: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("fetched body from %s is empty", remoteURL)
	}

	return data, nil
}
