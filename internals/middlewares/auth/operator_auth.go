package auth

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	helper "schoolku_finance/internals/helpers"
)

const LocalsRoles = "userRoles"

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool
	// kosong = semua role boleh
	Roles            []string
	ForbiddenMessage string
	// toleransi jam antar server
	Skew time.Duration
	Now  func() time.Time
}

// AuthJWT memverifikasi token HS256 dan menaruh operator id di Locals "user_id".
func AuthJWT(opts AuthJWTOpts) fiber.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Skew == 0 {
		opts.Skew = 30 * time.Second
	}
	if opts.ForbiddenMessage == "" {
		opts.ForbiddenMessage = "Forbidden: you are not authorized to access this resource"
	}
	allowed := map[string]struct{}{}
	for _, r := range opts.Roles {
		allowed[strings.ToLower(r)] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if opts.Secret == "" {
			log.Println("[ERROR] JWT_SECRET kosong")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		tokenString, err := extractBearerToken(c, opts.AllowCookieFallback)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{
			SkipClaimsValidation: true,
			ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(opts.Secret), nil
		}); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		if err := validateTokenExpiry(claims, opts.Now(), opts.Skew); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		operatorID, err := extractOperatorID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}

		roles := rolesOf(claims)
		if len(allowed) > 0 && !hasAnyRole(roles, allowed) {
			return helper.JsonErrorCode(c, fiber.StatusForbidden, "PERMISSION_DENIED", opts.ForbiddenMessage)
		}

		c.Locals(helper.LocalsOperatorID, operatorID)
		c.Locals(LocalsRoles, roles)
		return c.Next()
	}
}

func hasAnyRole(roles []string, allowed map[string]struct{}) bool {
	for _, r := range roles {
		if _, ok := allowed[strings.ToLower(r)]; ok {
			return true
		}
	}
	return false
}
