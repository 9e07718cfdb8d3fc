package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	apperrors "go-script-evaluator/internal/errors"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

type azureFetcher struct {
	client   *azblob.Client
	workDir  string
	maxBytes int64
}

// NewAzureDocumentFetcher creates a fetcher for documents stored in Azure blob
// containers of the given account.
func NewAzureDocumentFetcher(accountName, accountKey, workDir string, maxBytes int64) (DocumentFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid azure storage credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create blob client", err)
	}

	if maxBytes <= 0 {
		maxBytes = DefaultHTTPOptions().MaxBytes
	}
	return &azureFetcher{client: client, workDir: workDir, maxBytes: maxBytes}, nil
}

// Fetch downloads the blob named by source into a temp file.
func (s *azureFetcher) Fetch(ctx context.Context, source string) (*Document, error) {
	container, blob, err := ParseBlobURL(source)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("download failed: %s/%s", container, blob), err)
	}
	body := resp.Body
	defer body.Close()

	contentType := ""
	if resp.ContentType != nil {
		contentType = *resp.ContentType
	}

	doc, err := writeTemp(s.workDir, extensionFor(contentType, blob), io.LimitReader(body, s.maxBytes+1), s.maxBytes)
	if err != nil {
		return nil, err
	}
	doc.Source = source
	return doc, nil
}

// ParseBlobURL extracts container and blob names from either
// https://<account>.blob.core.windows.net/<container>/<blob> or
// azblob://<container>/<blob>.
func ParseBlobURL(source string) (container, blob string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob URL", err)
	}

	var p string
	if u.Scheme == "azblob" {
		p = path.Join(u.Host, u.Path)
	} else {
		p = strings.TrimPrefix(u.Path, "/")
	}

	parts := strings.SplitN(p, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("blob URL must name a container and blob: %s", source), nil)
	}
	return parts[0], parts[1], nil
}
