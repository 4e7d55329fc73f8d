package finerr

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	helper "schoolku_finance/internals/helpers"
)

// Status mengembalikan HTTP status + error_code untuk err.
func Status(err error) (int, string) {
	var ve *ValidationError
	var fe *fiber.Error
	switch {
	case errors.As(err, &ve):
		return fiber.StatusUnprocessableEntity, "VALIDATION_ERROR"
	case errors.Is(err, ErrPermissionDenied):
		return fiber.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, ErrNotInitialized):
		return fiber.StatusConflict, "NOT_INITIALIZED"
	case errors.Is(err, ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "TIMEOUT"
	case errors.As(err, &fe):
		return fe.Code, ""
	}
	return fiber.StatusInternalServerError, "INTERNAL_ERROR"
}

// Respond menulis err sebagai JSON error standar.
func Respond(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		field := ve.Field
		if field == "" {
			field = "_"
		}
		return helper.JsonValidationError(c, map[string][]string{field: {ve.Message}})
	}

	status, code := Status(err)
	msg := err.Error()
	switch {
	case errors.Is(err, ErrPermissionDenied):
		msg = "Akses ditolak oleh database. Pastikan akun operator punya hak akses ke data keuangan."
	case errors.Is(err, ErrNotInitialized):
		msg = "Data tagihan siswa belum disiapkan. Jalankan rekonsiliasi terlebih dulu."
	case errors.Is(err, ErrStorageUnavailable):
		msg = "Database sedang tidak bisa dihubungi, coba lagi beberapa saat."
	case status >= 500:
		msg = "internal error"
	}
	return helper.JsonErrorCode(c, status, code, msg)
}
