package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrExportTooLarge    = errors.New("export exceeds maximum size")
	ErrEmptyResults      = errors.New("nothing to export")
)
