package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	apperrors "go-script-evaluator/internal/errors"
)

// Document is a fetched document available on the local filesystem.
type Document struct {
	Source  string
	Path    string
	Size    int64
	cleanup func()
}

// Release removes any temporary copy made while fetching.
func (d *Document) Release() {
	if d != nil && d.cleanup != nil {
		d.cleanup()
		d.cleanup = nil
	}
}

// DocumentFetcher resolves a document reference to a local file.
type DocumentFetcher interface {
	Fetch(ctx context.Context, source string) (*Document, error)
}

type localFetcher struct{}

// NewLocalDocumentFetcher returns a fetcher for paths on the local filesystem.
func NewLocalDocumentFetcher() DocumentFetcher {
	return localFetcher{}
}

func (localFetcher) Fetch(_ context.Context, source string) (*Document, error) {
	p := strings.TrimPrefix(source, "file://")
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewInputMissingError(fmt.Sprintf("document not found: %s", p), err)
		}
		return nil, apperrors.NewUnreadableDocumentError(fmt.Sprintf("cannot access document: %s", p), err)
	}
	if info.IsDir() {
		return nil, apperrors.NewInputMissingError(fmt.Sprintf("document path is a directory: %s", p), nil)
	}
	return &Document{Source: source, Path: p, Size: info.Size()}, nil
}

// RoutingFetcher dispatches on the source's scheme. Azure blob URLs go to
// the blob fetcher when one is configured.
type RoutingFetcher struct {
	HTTP  DocumentFetcher
	Blob  DocumentFetcher
	Local DocumentFetcher
}

// Fetch implements DocumentFetcher
func (r *RoutingFetcher) Fetch(ctx context.Context, source string) (*Document, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		if r.Local == nil {
			return nil, apperrors.NewValidationError("local documents are not accepted", nil)
		}
		return r.Local.Fetch(ctx, source)
	}

	switch {
	case u.Scheme == "azblob" || IsBlobHost(u.Host):
		if r.Blob == nil {
			return nil, apperrors.NewValidationError("blob storage is not configured", nil)
		}
		return r.Blob.Fetch(ctx, source)
	case u.Scheme == "http" || u.Scheme == "https":
		if r.HTTP == nil {
			return nil, apperrors.NewValidationError("remote documents are not accepted", nil)
		}
		return r.HTTP.Fetch(ctx, source)
	}
	return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported document scheme: %s", u.Scheme), nil)
}

// IsBlobHost reports whether host is an Azure blob storage endpoint.
func IsBlobHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), ".blob.core.windows.net")
}
