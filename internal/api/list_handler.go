package api

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shelf-service/internal/model"
	"shelf-service/internal/service"
)

type ListHandler struct {
	listService service.ListService
	validate    *validator.Validate
}

func NewListHandler(listService service.ListService, validate *validator.Validate) *ListHandler {
	return &ListHandler{
		listService: listService,
		validate:    validate,
	}
}

type CreateListRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// BookPayload is the catalog data a client sends along with a book reference. Omitted fields
// leave the mirror untouched; null clears them.
type BookPayload struct {
	ID          string             `json:"id" validate:"required,max=128"`
	Title       Optional[string]   `json:"title" validate:"omitempty,max=500"`
	Authors     Optional[string]   `json:"authors" validate:"omitempty,max=500"`
	Image       Optional[string]   `json:"image" validate:"omitempty,max=2048"`
	Description Optional[string]   `json:"description"`
	Categories  Optional[[]string] `json:"categories" validate:"omitempty,dive,max=128"`
	Rating      Optional[float64]  `json:"rating" validate:"omitempty,min=0,max=5"`
}

func (p BookPayload) toUpsert() model.BookUpsert {
	u := model.BookUpsert{
		ID:               p.ID,
		Title:            p.Title.Ptr(),
		Authors:          p.Authors.Ptr(),
		Image:            p.Image.Ptr(),
		Description:      p.Description.Ptr(),
		Rating:           p.Rating.Ptr(),
		ClearImage:       p.Image.Null,
		ClearDescription: p.Description.Null,
		ClearRating:      p.Rating.Null,
	}

	// title and authors are never NULL in the mirror, so null empties them.
	empty := ""
	if p.Title.Null {
		u.Title = &empty
	}
	if p.Authors.Null {
		u.Authors = &empty
	}

	if p.Categories.Present {
		u.Categories = []string{}
		if p.Categories.Set() && p.Categories.Value != nil {
			u.Categories = p.Categories.Value
		}
	}

	return u
}

func parseListID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("listId"), 10, 64)
}

func (h *ListHandler) Lists(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	lists, err := h.listService.Lists(c.UserContext(), userID)
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, lists, "")
}

func (h *ListHandler) CreateList(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	var req CreateListRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := h.validate.Struct(&req); err != nil {
		return ValidationFailed(c, err)
	}

	list, err := h.listService.CreateList(c.UserContext(), userID, req.Name)
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusCreated, list, "List created")
}

func (h *ListHandler) List(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	listID, err := parseListID(c)
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid list ID format")
	}

	details, err := h.listService.List(c.UserContext(), userID, listID)
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, details, "")
}

func (h *ListHandler) DeleteList(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	listID, err := parseListID(c)
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid list ID format")
	}

	if err := h.listService.DeleteList(c.UserContext(), userID, listID); err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, nil, "List deleted")
}

func (h *ListHandler) AddBook(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	listID, err := parseListID(c)
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid list ID format")
	}

	var req BookPayload
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := h.validate.Struct(&req); err != nil {
		return ValidationFailed(c, err)
	}

	if err := h.listService.AddBook(c.UserContext(), userID, listID, req.toUpsert()); err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusCreated, nil, "Book added to list")
}

func (h *ListHandler) RemoveBook(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	listID, err := parseListID(c)
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid list ID format")
	}

	if err := h.listService.RemoveBook(c.UserContext(), userID, listID, c.Params("bookId")); err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, nil, "Book removed from list")
}
