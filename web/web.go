package web

import (
	"context"
	"errors"
	"strconv"
	"time"

	"inferno-tracker-bot/model"
	"inferno-tracker-bot/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Members is the read-only view of the store served over HTTP.
type Members interface {
	ListAll(ctx context.Context) ([]model.Member, error)
	Get(ctx context.Context, userID int64) (*model.Member, error)
	Ping(ctx context.Context) error
}

const requestTimeout = 5 * time.Second

// New builds the status server: GET /healthz, GET /leaderboard and
// GET /members/:id.
func New(members Members, log *zap.Logger) *fiber.App {
	log = log.Named("web")
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()
		if err := members.Ping(ctx); err != nil {
			log.Warn("health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()
		list, err := members.ListAll(ctx)
		if err != nil {
			log.Error("leaderboard query failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "store unavailable"})
		}
		if list == nil {
			list = []model.Member{}
		}
		return c.JSON(list)
	})

	app.Get("/members/:id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid member id"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()
		m, err := members.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "member not found"})
		}
		if err != nil {
			log.Error("member lookup failed", zap.Int64("user_id", id), zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "store unavailable"})
		}
		return c.JSON(m)
	})

	return app
}
