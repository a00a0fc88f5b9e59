package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunelab/tunestore/internal/models"
)

const azuriteConnectionString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;" +
	"AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;" +
	"BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func responseError(status int, code string) error {
	u, _ := url.Parse("https://acct.blob.core.windows.net/bucket/run/metadata.json")
	header := http.Header{}
	if code != "" {
		header.Set("x-ms-error-code", code)
	}
	return runtime.NewResponseError(&http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       http.NoBody,
		Request:    &http.Request{Method: http.MethodGet, URL: u},
	})
}

type fakeStreamer struct {
	body string
	err  error
}

func (f *fakeStreamer) DownloadStream(_ context.Context, _, _ string, _ *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error) {
	var resp azblob.DownloadStreamResponse
	if f.err != nil {
		return resp, f.err
	}
	resp.Body = io.NopCloser(strings.NewReader(f.body))
	return resp, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"blob not found", responseError(http.StatusNotFound, "BlobNotFound"), true},
		{"bare 404", responseError(http.StatusNotFound, ""), true},
		{"container not found", responseError(http.StatusNotFound, "ContainerNotFound"), false},
		{"forbidden", responseError(http.StatusForbidden, "AuthorizationFailure"), false},
		{"unauthorized", responseError(http.StatusUnauthorized, ""), false},
		{"server error", responseError(http.StatusInternalServerError, "InternalError"), false},
		{"transport", errors.New("dial tcp 127.0.0.1:10000: connect: connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("bucket", "run/metadata.json", tt.err)
			if tt.notFound {
				assert.ErrorIs(t, err, models.ErrNotFoundRemotely)
				assert.NotErrorIs(t, err, models.ErrInfrastructure)
			} else {
				assert.ErrorIs(t, err, models.ErrInfrastructure)
				assert.NotErrorIs(t, err, models.ErrNotFoundRemotely)
			}
		})
	}
}

func TestAzureDownloader_Download(t *testing.T) {
	d := &azureDownloader{client: &fakeStreamer{body: "trial_id\n0\n"}}
	rc, err := d.Download(context.Background(), "bucket", "run/results.csv")
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "trial_id\n0\n", string(data))

	d = &azureDownloader{client: &fakeStreamer{err: responseError(http.StatusNotFound, "BlobNotFound")}}
	_, err = d.Download(context.Background(), "bucket", "run/state.json")
	assert.ErrorIs(t, err, models.ErrNotFoundRemotely)
}

func TestNewAzureDownloader(t *testing.T) {
	_, err := NewAzureDownloader(AzureConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")

	d, err := NewAzureDownloader(AzureConfig{ConnectionString: azuriteConnectionString, Retries: 1})
	require.NoError(t, err)
	assert.NotNil(t, d)

	_, err = NewAzureDownloader(AzureConfig{ConnectionString: "not a connection string"})
	assert.Error(t, err)
}
