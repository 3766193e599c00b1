package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
	ErrNotPDF            = errors.New("uploaded file is not a valid PDF")
)
