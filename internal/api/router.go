package api

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shelf-service/internal/jwt"
)

type Handlers struct {
	Auth    *AuthHandler
	Profile *ProfileHandler
	Lists   *ListHandler
	Books   *BookHandler
	Posts   *PostHandler
}

type RouterOptions struct {
	ServiceName    string
	AuthRateMax    int
	AuthRateWindow time.Duration
}

func NewApp(h Handlers, tokens *jwt.Manager, opts RouterOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      opts.ServiceName,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(otelfiber.Middleware())
	app.Use(PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusOK, fiber.Map{"status": "ok", "service": opts.ServiceName}, "")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")

	authRoutes := v1.Group("/auth")
	if opts.AuthRateMax > 0 {
		authRoutes.Use(limiter.New(limiter.Config{
			Max:        opts.AuthRateMax,
			Expiration: opts.AuthRateWindow,
			LimitReached: func(c *fiber.Ctx) error {
				return Fail(c, fiber.StatusTooManyRequests, "Too many requests")
			},
		}))
	}
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)

	auth := AuthMiddleware(tokens)

	userRoutes := v1.Group("/users", auth)
	userRoutes.Get("/me", h.Profile.Me)
	userRoutes.Put("/me", h.Profile.UpdateProfile)

	listRoutes := v1.Group("/lists", auth)
	listRoutes.Get("/", h.Lists.Lists)
	listRoutes.Post("/", h.Lists.CreateList)
	listRoutes.Get("/:listId", h.Lists.List)
	listRoutes.Delete("/:listId", h.Lists.DeleteList)
	listRoutes.Post("/:listId/books", h.Lists.AddBook)
	listRoutes.Delete("/:listId/books/:bookId", h.Lists.RemoveBook)

	bookRoutes := v1.Group("/books", auth)
	bookRoutes.Get("/search", h.Books.Search)
	bookRoutes.Get("/recommendations", h.Books.Recommendations)
	bookRoutes.Get("/:bookId", h.Books.Get)
	bookRoutes.Put("/:bookId/rating", h.Books.Rate)
	bookRoutes.Get("/:bookId/rating", h.Books.MyRating)
	bookRoutes.Delete("/:bookId/rating", h.Books.Unrate)

	postRoutes := v1.Group("/posts", auth)
	postRoutes.Get("/", h.Posts.Feed)
	postRoutes.Post("/", h.Posts.CreatePost)
	postRoutes.Delete("/:postId", h.Posts.DeletePost)

	app.Use(func(c *fiber.Ctx) error {
		return Fail(c, fiber.StatusNotFound, "Route not found")
	})

	return app
}
