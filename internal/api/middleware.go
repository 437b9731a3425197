package api

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"shelf-service/internal/jwt"
)

const userIDKey = "userID"

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)
)

// ResolveIdentity extracts the user id from an Authorization header value. Any defect in the
// header or token yields ok == false.
func ResolveIdentity(tokens *jwt.Manager, header string) (userID uuid.UUID, reason string, ok bool) {
	if header == "" {
		return uuid.Nil, "Missing authorization header", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return uuid.Nil, "Invalid authorization header format", false
	}

	claims, err := tokens.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return uuid.Nil, "Token has expired", false
		}
		return uuid.Nil, "Invalid token", false
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, "User ID not found in token claims", false
	}

	userID, err = uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "Invalid user ID format in token", false
	}

	return userID, "", true
}

func AuthMiddleware(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, reason, ok := ResolveIdentity(tokens, c.Get(fiber.HeaderAuthorization))
		if !ok {
			slog.DebugContext(c.UserContext(), "Rejected unauthenticated request", "path", c.Path(), "reason", reason)
			return Fail(c, fiber.StatusUnauthorized, reason)
		}

		c.Locals(userIDKey, userID)

		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("user id not found in context")
	}
	return userID, nil
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()
		statusCode := c.Response().StatusCode()

		if err != nil {
			var e *fiber.Error

			if errors.As(err, &e) {
				statusCode = e.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}

		method := c.Method()
		// Route pattern keeps the label set bounded for paths carrying ids.
		path := c.Route().Path
		statusStr := fmt.Sprintf("%d", statusCode)

		httpRequestTotal.WithLabelValues(method, path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		return err
	}
}
