package validation

import (
	"net/url"
	"path"
	"strings"

	apperrors "go-script-evaluator/internal/errors"
)

// documentExtensions are the file types the rasterizer can open. URLs
// without an extension are accepted; the content type decides later.
var documentExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// URLValidator checks remote references to student scripts and answer keys.
type URLValidator struct {
	allowedSchemes []string
	// Exact host names, or "*.suffix" patterns. Empty allows every host.
	allowedHosts []string
}

// NewURLValidator accepts http, https and azblob URLs on any host.
func NewURLValidator() *URLValidator {
	return NewURLValidatorWithOptions([]string{"http", "https", "azblob"}, nil)
}

// NewURLValidatorWithOptions restricts schemes and hosts.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateDocumentURL returns a validation AppError describing the first
// problem with documentURL.
func (v *URLValidator) ValidateDocumentURL(documentURL string) error {
	if strings.TrimSpace(documentURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	u, err := url.Parse(documentURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}
	if !v.schemeAllowed(u.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil).WithDetails(u.Scheme)
	}
	if u.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	if u.User != nil {
		return apperrors.NewValidationError("URL must not embed credentials", nil)
	}
	if !v.hostAllowed(u.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil).WithDetails(u.Hostname())
	}
	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && !documentExtensions[ext] {
		return apperrors.NewValidationError("URL does not point to a PDF or image", nil).WithDetails(ext)
	}
	return nil
}

func (v *URLValidator) schemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

func (v *URLValidator) hostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, allowed := range v.allowedHosts {
		allowed = strings.ToLower(allowed)
		if suffix, ok := strings.CutPrefix(allowed, "*"); ok {
			if strings.HasSuffix(host, suffix) {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}
