package api

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shelf-service/internal/service"
)

type PostHandler struct {
	postService service.PostService
	validate    *validator.Validate
}

func NewPostHandler(postService service.PostService, validate *validator.Validate) *PostHandler {
	return &PostHandler{
		postService: postService,
		validate:    validate,
	}
}

type CreatePostRequest struct {
	Content string  `json:"content" validate:"required,max=2000"`
	BookID  *string `json:"book_id" validate:"omitempty,max=128"`
}

func (h *PostHandler) Feed(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	feed, err := h.postService.Feed(c.UserContext(), page, limit)
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, feed, "")
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := h.validate.Struct(&req); err != nil {
		return ValidationFailed(c, err)
	}

	post, err := h.postService.CreatePost(c.UserContext(), userID, req.Content, req.BookID)
	if err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusCreated, post, "Post created")
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Invalid user claims")
	}

	postID, err := strconv.ParseInt(c.Params("postId"), 10, 64)
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid post ID format")
	}

	if err := h.postService.DeletePost(c.UserContext(), userID, postID); err != nil {
		return ServiceError(c, err)
	}

	return Success(c, fiber.StatusOK, nil, "Post deleted")
}
