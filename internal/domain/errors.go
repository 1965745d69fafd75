package domain

import "errors"

var (
	ErrProfileNotFound    = errors.New("filer profile not found")
	ErrFilingNotFound     = errors.New("filing not found")
	ErrFilingExists       = errors.New("filing already exists for this period")
	ErrInvalidPeriod      = errors.New("invalid filing period")
	ErrInvalidInput       = errors.New("invalid input")
	ErrValidationFailed   = errors.New("validation failed with blocking errors")
	ErrConflict           = errors.New("concurrent modification")
	ErrInvalidSpreadsheet = errors.New("spreadsheet does not match the expected layout")
)
