package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned for files other than .pdf and .docx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtraction is returned when a supported file cannot be read.
	ErrExtraction = errors.New("text extraction failed")
)
