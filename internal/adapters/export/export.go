// Package export renders calculation results as downloadable documents
// carrying the application metadata envelope.
package export

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/okian/scicalc/internal/domain/calc"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	JSON Format = "json"
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// TimestampLayout is the export timestamp layout, always in UTC.
const TimestampLayout = "2006-01-02 15:04:05 UTC"

const defaultMaxRows = 10000

var contentTypes = map[Format]string{ //nolint:gochecknoglobals // fixed lookup table
	JSON: "application/json",
	CSV:  "text/csv; charset=utf-8",
	XLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ParseFormat accepts json, csv or xlsx in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// Info identifies the application in every exported document.
type Info struct {
	Application string `json:"application"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Watermark   string `json:"watermark"`
}

// Metadata is the envelope written next to the results.
type Metadata struct {
	Application     string `json:"application"`
	Version         string `json:"version"`
	Author          string `json:"author"`
	Watermark       string `json:"watermark"`
	ExportTimestamp string `json:"export_timestamp"`
}

// NewMetadata stamps info with t in UTC.
func NewMetadata(info Info, t time.Time) Metadata {
	return Metadata{
		Application:     info.Application,
		Version:         info.Version,
		Author:          info.Author,
		Watermark:       info.Watermark,
		ExportTimestamp: t.UTC().Format(TimestampLayout),
	}
}

// Document is a rendered export.
type Document struct {
	Format      Format
	ContentType string
	Filename    string
	Body        []byte
}

// Exporter renders results in the enabled formats.
type Exporter struct {
	info    Info
	maxRows int
	formats []Format
	now     func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithMaxRows bounds the number of result rows per export.
func WithMaxRows(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.maxRows = n
		}
	}
}

// WithFormats restricts the enabled formats. Unknown names are ignored.
func WithFormats(names ...string) Option {
	return func(e *Exporter) {
		var formats []Format
		for _, n := range names {
			if f, err := ParseFormat(n); err == nil && !slices.Contains(formats, f) {
				formats = append(formats, f)
			}
		}
		if len(formats) > 0 {
			e.formats = formats
		}
	}
}

// WithClock replaces time.Now for the export timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Exporter stamping documents with info.
func New(info Info, opts ...Option) *Exporter {
	e := &Exporter{
		info:    info,
		maxRows: defaultMaxRows,
		formats: []Format{JSON, CSV, XLSX},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Formats returns the enabled formats.
func (e *Exporter) Formats() []Format { return slices.Clone(e.formats) }

var safeName = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// SafeName returns name when it is a plain lowercase identifier and
// "calculation" otherwise, so client input never shapes a header value.
func SafeName(name string) string {
	if safeName.MatchString(name) {
		return name
	}
	return "calculation"
}

// Export renders results in format. name prefixes the file name, e.g.
// "vacuum_energy" gives "vacuum_energy_results.csv".
func (e *Exporter) Export(format Format, name string, results calc.Results) (Document, error) {
	if !slices.Contains(e.formats, format) {
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if results.Len() == 0 {
		return Document{}, ErrEmptyResults
	}
	if results.Len() > e.maxRows {
		return Document{}, fmt.Errorf("%w: %d rows, limit %d", ErrExportTooLarge, results.Len(), e.maxRows)
	}

	meta := NewMetadata(e.info, e.now())

	var (
		body []byte
		err  error
	)
	switch format {
	case JSON:
		body, err = encodeJSON(meta, results)
	case CSV:
		body, err = encodeCSV(meta, results)
	case XLSX:
		body, err = encodeXLSX(meta, results)
	}
	if err != nil {
		return Document{}, fmt.Errorf("export %s: %w", format, err)
	}

	return Document{
		Format:      format,
		ContentType: contentTypes[format],
		Filename:    fmt.Sprintf("%s_results.%s", SafeName(name), format),
		Body:        body,
	}, nil
}
