// Package finerr berisi taksonomi error modul keuangan dan pemetaannya
// ke response HTTP.
package finerr

import (
	"errors"
	"fmt"

	"schoolku_finance/internals/databases/docstore"
)

var (
	// ErrPermissionDenied: store menolak akses (mis. role DB tanpa privilege).
	ErrPermissionDenied = errors.New("permission denied by document store")
	// ErrNotInitialized: ringkasan tagihan siswa belum ada; jalankan rekonsiliasi dulu.
	ErrNotInitialized     = errors.New("student fee summary not initialized")
	ErrStorageUnavailable = errors.New("document store unavailable")
	ErrNotFound           = errors.New("not found")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// FromStore menerjemahkan error docstore ke taksonomi finance.
// Error yang sudah finance (validasi, NotInitialized) dibiarkan.
func FromStore(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, docstore.ErrPermissionDenied):
		return fmt.Errorf("%s: %w: %w", op, ErrPermissionDenied, err)
	case errors.Is(err, docstore.ErrUnavailable):
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	case errors.Is(err, docstore.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
