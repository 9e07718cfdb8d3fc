package repository

import "errors"

var (
	// ErrReportNotFound indicates the report was not found
	ErrReportNotFound = errors.New("evaluation report not found")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// ErrUnsupportedDriver indicates an unknown database driver name
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
