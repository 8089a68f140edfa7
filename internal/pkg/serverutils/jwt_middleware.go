package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const UserIdLocal = "user_id"

func parseBearer(ctx *fiber.Ctx, secret string) (jwt.MapClaims, bool, bool) {
	tokenStr := bearerToken(ctx)
	if tokenStr == "" {
		return nil, false, false
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, true, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, true, ok
}

// bearerToken reads the Authorization header, then the "token" query parameter browsers use for websockets.
func bearerToken(ctx *fiber.Ctx) string {
	if authHeader := ctx.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ctx.Query("token")
}

// JwtMiddleware rejects requests without a valid bearer token.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, present, valid := parseBearer(ctx, secret)
		if !present {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}
		if !valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}
		ctx.Locals(UserIdLocal, claimUserId(claims))
		return ctx.Next()
	}
}

// OptionalUserMiddleware attaches the token's user id when a valid token is sent and lets
// anonymous requests through. An invalid token is still rejected.
func OptionalUserMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}
		claims, present, valid := parseBearer(ctx, secret)
		if !present {
			return ctx.Next()
		}
		if !valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}
		ctx.Locals(UserIdLocal, claimUserId(claims))
		return ctx.Next()
	}
}

// UserId returns the user id set by one of the middlewares, or "".
func UserId(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(UserIdLocal).(string)
	return id
}

func claimUserId(claims jwt.MapClaims) string {
	if id, ok := claims["user_id"].(string); ok {
		return id
	}
	if sub, err := claims.GetSubject(); err == nil {
		return sub
	}
	return ""
}
