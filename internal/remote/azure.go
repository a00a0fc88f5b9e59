package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/tunelab/tunestore/internal/models"
)

// AzureConfig selects how to reach the storage account. ConnectionString
// wins when both are set; otherwise AccountURL is used with the default
// Azure credential chain.
type AzureConfig struct {
	AccountURL       string
	ConnectionString string
	// Timeout bounds a single transport attempt. Zero keeps the SDK default.
	Timeout time.Duration
	// Retries is the maximum number of retries per request. Zero keeps the
	// SDK default; a negative value disables retries.
	Retries int32
}

// blobStreamer is the subset of [*azblob.Client] used here.
type blobStreamer interface {
	// DownloadStream maps to [azblob.Client.DownloadStream]
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
}

type azureDownloader struct {
	client blobStreamer
}

// NewAzureDownloader builds a Downloader backed by Azure Blob Storage.
func NewAzureDownloader(cfg AzureConfig) (Downloader, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries: cfg.Retries,
				TryTimeout: cfg.Timeout,
			},
		},
	}

	switch {
	case cfg.ConnectionString != "":
		client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
		if err != nil {
			return nil, fmt.Errorf("creating blob client from connection string: %w", err)
		}
		return &azureDownloader{client: client}, nil
	case cfg.AccountURL != "":
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: obtaining azure credential: %w", models.ErrInfrastructure, err)
		}
		client, err := azblob.NewClient(cfg.AccountURL, cred, opts)
		if err != nil {
			return nil, fmt.Errorf("creating blob client for %s: %w", cfg.AccountURL, err)
		}
		return &azureDownloader{client: client}, nil
	default:
		return nil, errors.New("remote storage is not configured: set remote.account_url or remote.connection_string")
	}
}

func (d *azureDownloader) Download(ctx context.Context, container, blob string) (io.ReadCloser, error) {
	resp, err := d.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, classify(container, blob, err)
	}
	return resp.Body, nil
}

// classify maps an Azure error onto the store's failure classes. Only a
// missing blob counts as absence; a missing container, rejected
// credentials or a transport failure means the store cannot be consulted.
func classify(container, blob string, err error) error {
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		return fmt.Errorf("%w: container %q: %w", models.ErrInfrastructure, container, err)
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("%s/%s: %w", container, blob, models.ErrNotFoundRemotely)
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s/%s: %w", container, blob, models.ErrNotFoundRemotely)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: access to %s/%s denied (HTTP %d): %w", models.ErrInfrastructure, container, blob, respErr.StatusCode, err)
		}
	}
	return fmt.Errorf("%w: downloading %s/%s: %w", models.ErrInfrastructure, container, blob, err)
}
