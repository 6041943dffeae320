package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidDateKey   = errors.New("date must be YYYY-MM-DD")
	ErrInvalidDateRange = errors.New("from date is after to date")
)
