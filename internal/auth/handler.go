package auth

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"ledgerone/internal/engine"
	"ledgerone/internal/store"
)

type Handler struct {
	pool   store.Querier
	secret string
}

func NewHandler(pool store.Querier, secret string) *Handler {
	return &Handler{pool: pool, secret: secret}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login and returns a short-lived bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}
	if body.Email == "" || body.Password == "" {
		return engine.ValidationError([]engine.ErrorDetail{
			{Field: "email", Rule: "required", Message: "email and password are required"},
		})
	}

	row, err := store.QueryRow(c.UserContext(), h.pool,
		"SELECT id, password_hash, roles, active FROM _users WHERE email = $1", body.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.UnauthorizedError("Invalid credentials")
		}
		return fmt.Errorf("load user %s: %w", body.Email, err)
	}

	if active, ok := row["active"].(bool); ok && !active {
		return engine.UnauthorizedError("Account disabled")
	}

	hash, _ := row["password_hash"].(string)
	if !CheckPassword(body.Password, hash) {
		return engine.UnauthorizedError("Invalid credentials")
	}

	token, err := GenerateAccessToken(fmt.Sprintf("%v", row["id"]), rolesFromRow(row["roles"]), h.secret)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"access_token": token}})
}

func rolesFromRow(v any) []string {
	switch roles := v.(type) {
	case []string:
		return roles
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			out = append(out, fmt.Sprintf("%v", r))
		}
		return out
	default:
		return nil
	}
}

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Post("/auth/login", h.Login)
}
