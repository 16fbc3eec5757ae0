package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxSizeBytes = 10 * 1024 * 1024 // 10MB
	userAgent           = "verbdeck (+https://codeberg.org/snonux/verbdeck)"
)

// ErrTooLarge is returned when an image exceeds the configured maximum size
var ErrTooLarge = errors.New("image exceeds maximum size")

// FetchOptions configures image downloads
type FetchOptions struct {
	Timeout      time.Duration // Per-request timeout
	MaxSizeBytes int64         // Maximum file size to download (0 = no limit)
}

// DefaultFetchOptions returns sensible defaults for image downloads
func DefaultFetchOptions() *FetchOptions {
	return &FetchOptions{
		Timeout:      defaultTimeout,
		MaxSizeBytes: defaultMaxSizeBytes,
	}
}

// Fetcher downloads images referenced by URL into the media directory
type Fetcher struct {
	httpClient *http.Client
	options    *FetchOptions
	logger     logrus.FieldLogger
}

// NewFetcher creates a new image fetcher
func NewFetcher(options *FetchOptions, logger logrus.FieldLogger) *Fetcher {
	if options == nil {
		options = DefaultFetchOptions()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: options.Timeout,
		},
		options: options,
		logger:  logger,
	}
}

// FetchImage downloads imageURL to outputPath. Any non-2xx response is an
// error and a partially written file is removed.
func (f *Fetcher) FetchImage(ctx context.Context, imageURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download of %s failed with status %d", imageURL, resp.StatusCode)
	}

	if limit := f.options.MaxSizeBytes; limit > 0 && resp.ContentLength > limit {
		return fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, resp.ContentLength, limit)
	}

	// Ensure directory exists
	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := f.copyLimited(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outputPath)
		return err
	}

	f.logger.WithFields(logrus.Fields{
		"url":   imageURL,
		"file":  filepath.Base(outputPath),
		"bytes": written,
	}).Debug("Image downloaded")
	return nil
}

// copyLimited copies at most MaxSizeBytes and fails if the body is larger
func (f *Fetcher) copyLimited(dst io.Writer, src io.Reader) (int64, error) {
	limit := f.options.MaxSizeBytes
	if limit <= 0 {
		written, err := io.Copy(dst, src)
		if err != nil {
			return written, fmt.Errorf("failed to write file: %w", err)
		}
		return written, nil
	}

	// Read one byte past the limit to detect oversized bodies
	written, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if err != nil {
		return written, fmt.Errorf("failed to write file: %w", err)
	}
	if written > limit {
		return written, fmt.Errorf("%w of %d bytes", ErrTooLarge, limit)
	}
	return written, nil
}
