package ecommerce

import (
	"errors"

	"ecomm-sync/core/logger"
	"ecomm-sync/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for staged records.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the record routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/records")
	group.Get("/", h.HandleListRecords)
	group.Get("/summary", h.HandleSummary)
	group.Get("/:transactionId", h.HandleGetRecord)
}

// HandleGetRecord returns the status, post type and stored response of one record.
func (h *Handler) HandleGetRecord(c *fiber.Ctx) error {
	id := c.Params("transactionId")
	l := logger.WithRayID(h.service.logger, c)

	record, err := h.service.Record(c.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Record lookup failed", zap.String("transaction_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(record)
}

// HandleListRecords lists records by status (?status=error&limit=50).
// The status accepts a name or a storage code and defaults to error.
func (h *Handler) HandleListRecords(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	status := reconcile.StatusError
	if raw := c.Query("status"); raw != "" {
		if err := status.UnmarshalText([]byte(raw)); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	records, err := h.service.Records(c.Context(), status, c.QueryInt("limit", 100))
	if err != nil {
		l.Error("Record listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"status":  status,
		"count":   len(records),
		"records": records,
	})
}

// HandleSummary returns record counts per status.
func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	summary, err := h.service.Summary(c.Context())
	if err != nil {
		l.Error("Record summary failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(summary)
}
