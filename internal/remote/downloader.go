// Package remote pulls experiment artifacts from object storage into the
// local cache.
package remote

import (
	"context"
	"io"
)

//go:generate go tool mockgen -source=downloader.go -destination=mock_downloader_test.go -package=remote

// Downloader streams a single object. A missing object is reported with an
// error wrapping models.ErrNotFoundRemotely; any other failure wraps
// models.ErrInfrastructure.
type Downloader interface {
	Download(ctx context.Context, container, blob string) (io.ReadCloser, error)
}
