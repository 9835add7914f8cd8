package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// UserManager is the subset of the user service used by UsersHandler.
type UserManager interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Update(ctx context.Context, callerID, id int64, in service.UpdateUserInput) (*domain.User, error)
	Deactivate(ctx context.Context, callerID, id int64) error
	Profile(ctx context.Context, id int64) (*domain.User, error)
}

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	users UserManager
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users UserManager) *UsersHandler {
	return &UsersHandler{users: users}
}

// Register handles POST /users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	user, err := h.users.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	callerID, err := requireCaller(c)
	if err != nil {
		return err
	}
	user, err := h.users.Profile(c.UserContext(), callerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update handles PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	callerID, err := requireCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if emptyField(req.Name) || emptyField(req.Email) || emptyField(req.Password) {
		return apperrors.NewValidationError("fields must not be empty", nil)
	}

	user, err := h.users.Update(c.UserContext(), callerID, id, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Delete handles DELETE /users/:id by deactivating the account.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	callerID, err := requireCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.users.Deactivate(c.UserContext(), callerID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func requireCaller(c *fiber.Ctx) (int64, error) {
	id, ok := auth.SubjectID(c)
	if !ok {
		return 0, apperrors.NewUnauthorized("authentication required")
	}
	return id, nil
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid user id", map[string]any{"id": c.Params("id")})
	}
	return int64(id), nil
}

func emptyField(v *string) bool {
	return v != nil && *v == ""
}
