package usersync

import (
	"errors"

	"ldap2moodle/core/logger"
	"ldap2moodle/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for sync runs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/", h.HandleRun)
	group.Get("/status", h.HandleStatus)
	group.Get("/watermark", h.HandleWatermark)
}

// HandleRun triggers a sync run.
// @Summary Run Sync
// @Description Reconciles the directory against the platform. By default the request waits for the run and returns its report; identical concurrent requests share one run.
// @Tags sync
// @Produce json
// @Param dry_run query boolean false "Plan and log actions without applying them"
// @Param full_sync query boolean false "Ignore the stored watermark and read the whole directory"
// @Param wait query boolean false "Wait for the run to finish (default true)"
// @Success 200 {object} reconcile.RunReport "Run Report"
// @Success 202 {object} map[string]interface{} "Run Started"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]interface{} "Run Aborted"
// @Router /sync [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req Request
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if !c.QueryBool("wait", true) {
		busy := h.service.Start(req)
		l.Info("Sync started in background", zap.Bool("dry_run", req.DryRun), zap.Bool("full_sync", req.FullSync))
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "started",
			"queued": busy,
		})
	}

	l.Info("Sync requested", zap.Bool("dry_run", req.DryRun), zap.Bool("full_sync", req.FullSync))
	report, shared, err := h.service.Trigger(c.UserContext(), req)
	if err != nil {
		l.Error("Sync failed", zap.Error(err))
		body := fiber.Map{"error": err.Error()}
		if report != nil {
			body["report"] = report
		}
		status := fiber.StatusInternalServerError
		if !errors.Is(err, reconcile.ErrFatal) {
			// The caller went away before the run finished.
			status = fiber.StatusRequestTimeout
		}
		return c.Status(status).JSON(body)
	}

	c.Set("X-Sync-Shared", boolHeader(shared))
	return c.JSON(report)
}

// HandleStatus reports whether a run is active and the last run.
// @Summary Sync Status
// @Description Returns the running flag, the stored watermark and the last run report.
// @Tags sync
// @Produce json
// @Success 200 {object} Status "Sync Status"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	status, err := h.service.Status(c.UserContext())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Status failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}

// HandleWatermark returns the stored watermark.
// @Summary Sync Watermark
// @Description Returns the watermark the next incremental run starts from. A zero time means the next run reads the whole directory.
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]interface{} "Watermark"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/watermark [get]
func (h *Handler) HandleWatermark(c *fiber.Ctx) error {
	status, err := h.service.Status(c.UserContext())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Watermark lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"domain":    status.Domain,
		"watermark": status.Watermark,
		"full_sync": status.Watermark.IsZero(),
	})
}

func boolHeader(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
