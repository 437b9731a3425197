package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shelf-service/internal/service"
)

type ProfileHandler struct {
	profileService service.ProfileService
	validate       *validator.Validate
}

func NewProfileHandler(profileService service.ProfileService, validate *validator.Validate) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		validate:       validate,
	}
}

// UpdateProfileRequest leaves a field untouched when it is omitted.
type UpdateProfileRequest struct {
	Bio    *string  `json:"bio" validate:"omitempty,max=500"`
	Genres []string `json:"genres" validate:"omitempty,max=20,dive,max=64"`
}

func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	details, err := h.profileService.Me(c.UserContext(), userID)
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, details, "")
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := h.validate.Struct(&req); err != nil {
		return ValidationFailed(c, err)
	}

	details, err := h.profileService.UpdateProfile(c.UserContext(), userID, req.Bio, req.Genres)
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, details, "Profile updated")
}
