package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shelf-service/internal/service"
)

type BookHandler struct {
	catalogService        service.CatalogService
	ratingService         service.RatingService
	recommendationService service.RecommendationService
	validate              *validator.Validate
}

func NewBookHandler(catalogService service.CatalogService, ratingService service.RatingService, recommendationService service.RecommendationService, validate *validator.Validate) *BookHandler {
	return &BookHandler{
		catalogService:        catalogService,
		ratingService:         ratingService,
		recommendationService: recommendationService,
		validate:              validate,
	}
}

type RateBookRequest struct {
	Rating *float64 `json:"rating" validate:"required"`
}

func (h *BookHandler) Search(c *fiber.Ctx) error {
	books, err := h.catalogService.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, books, "")
}

func (h *BookHandler) Recommendations(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	books, err := h.recommendationService.Recommend(c.UserContext(), userID)
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, books, "")
}

func (h *BookHandler) Get(c *fiber.Ctx) error {
	book, err := h.catalogService.Get(c.UserContext(), c.Params("bookId"))
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, book, "")
}

func (h *BookHandler) Rate(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	var req RateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, fiber.StatusBadRequest, "Rating must be a number")
	}
	if err := h.validate.Struct(&req); err != nil {
		return ValidationFailed(c, err)
	}

	summary, err := h.ratingService.Rate(c.UserContext(), userID, c.Params("bookId"), *req.Rating)
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, summary, "Rating saved")
}

func (h *BookHandler) MyRating(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	rating, err := h.ratingService.MyRating(c.UserContext(), userID, c.Params("bookId"))
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, rating, "")
}

func (h *BookHandler) Unrate(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	if err := h.ratingService.Unrate(c.UserContext(), userID, c.Params("bookId")); err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, nil, "Rating removed")
}
