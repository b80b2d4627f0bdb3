package workbook

import "errors"

// ErrNotFound indicates the workbook file does not exist.
var ErrNotFound = errors.New("workbook not found")

// ErrMalformed indicates the workbook is not well-formed XML.
var ErrMalformed = errors.New("malformed workbook")
