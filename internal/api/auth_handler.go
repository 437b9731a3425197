package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shelf-service/internal/service"
)

const birthdateLayout = "2006-01-02"

type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
}

func NewAuthHandler(authService service.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validate,
	}
}

type RegisterRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8,max=72"`
	Username  string   `json:"username" validate:"required,min=3,max=32"`
	Birthdate string   `json:"birthdate" validate:"required,datetime=2006-01-02"`
	Genres    []string `json:"genres" validate:"omitempty,max=20,dive,max=64"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var request RegisterRequest

	if err := c.BodyParser(&request); err != nil {
		return Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	if err := h.validate.Struct(&request); err != nil {
		return ValidationFailed(c, err)
	}

	birthdate, err := time.Parse(birthdateLayout, request.Birthdate)
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid birthdate")
	}

	user, err := h.authService.Register(c.UserContext(), service.RegisterInput{
		Email:     request.Email,
		Password:  request.Password,
		Username:  request.Username,
		Birthdate: birthdate,
		Genres:    request.Genres,
	})
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusCreated, user, "User registered successfully")
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var request LoginRequest

	if err := c.BodyParser(&request); err != nil {
		return Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	if err := h.validate.Struct(&request); err != nil {
		return ValidationFailed(c, err)
	}

	token, expiresAt, err := h.authService.Login(c.UserContext(), request.Email, request.Password)
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, "")
}
