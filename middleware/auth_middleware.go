package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"

	InternalKeyHeader = "X-Internal-Key"
)

func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "missing or malformed JWT") {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// Claims returns the user id and role of the authenticated caller. ok is false
// when the request carries no usable token.
func Claims(c *fiber.Ctx) (userID, role string, ok bool) {
	token, isToken := c.Locals("user").(*jwt.Token)
	if !isToken {
		return "", "", false
	}
	claims, isMap := token.Claims.(jwt.MapClaims)
	if !isMap {
		return "", "", false
	}
	userID, _ = claims["user_id"].(string)
	role, _ = claims["role"].(string)
	return userID, role, userID != ""
}

func RoleRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, role, ok := Claims(c)
		if ok {
			for _, allowed := range roles {
				if role == allowed {
					return c.Next()
				}
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"code":    fiber.StatusForbidden,
			"message": "Forbidden: insufficient role",
		})
	}
}

func DoctorRequired() fiber.Handler {
	return RoleRequired(RoleDoctor)
}

func PatientRequired() fiber.Handler {
	return RoleRequired(RolePatient)
}

// InternalKey guards service-to-service endpoints. An empty key disables them.
func InternalKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		given := c.Get(InternalKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"code":    fiber.StatusUnauthorized,
				"message": "Invalid internal key",
			})
		}
		return c.Next()
	}
}
