package handlers

import (
	"context"
	"errors"

	"github.com/anjiri1684/appointment_reminder/jobs"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type PassRunner interface {
	RunNow(ctx context.Context, kind jobs.Kind) (jobs.PassSummary, error)
	Kinds() []jobs.Kind
}

type AdminHandler struct {
	runner PassRunner
	log    zerolog.Logger
}

func NewAdminHandler(runner PassRunner, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{runner: runner, log: log}
}

func (h *AdminHandler) ListPassKinds(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"kinds": h.runner.Kinds()})
}

// TriggerPass runs one pass of the requested kind and returns its summary.
func (h *AdminHandler) TriggerPass(c *fiber.Ctx) error {
	kind := jobs.Kind(c.Params("kind"))

	sum, err := h.runner.RunNow(c.UserContext(), kind)
	switch {
	case err == nil:
		return c.JSON(sum)
	case errors.Is(err, jobs.ErrUnknownTask):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown pass kind"})
	case errors.Is(err, jobs.ErrPassInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A pass of this kind is already running"})
	case errors.Is(err, jobs.ErrRunnerStopped):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Scheduler is shutting down"})
	default:
		h.log.Error().Err(err).Str("kind", string(kind)).Msg("Manual pass failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Pass failed"})
	}
}
