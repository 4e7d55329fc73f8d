package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const LocalsOperatorID = "user_id"

// GetOperatorID mengambil id operator (akuntan) dari c.Locals("user_id")
// yang diisi middleware JWT. 401 kalau belum login.
func GetOperatorID(c *fiber.Ctx) (string, error) {
	var s string
	switch t := c.Locals(LocalsOperatorID).(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case interface{ String() string }:
		s = t.String()
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "User belum login")
	}
	return s, nil
}
