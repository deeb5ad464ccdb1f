package controller

import (
	"errors"

	"dashboard-metrics-service/internal/model"
	"dashboard-metrics-service/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog/log"
)

type DashboardController interface {
	IngestRecords(c *fiber.Ctx) error
	ListDatasets(c *fiber.Ctx) error
	ResolveRange(c *fiber.Ctx) error
	Aggregate(c *fiber.Ctx) error
	Compare(c *fiber.Ctx) error
	Trend(c *fiber.Ctx) error
}

// dashboardController exposes HTTP handlers for ingestion and queries.
type dashboardController struct {
	dashboardService service.DashboardService
}

// NewDashboardController builds a DashboardController.
func NewDashboardController(svc service.DashboardService) DashboardController {
	return &dashboardController{dashboardService: svc}
}

// IngestRecords accepts a batch of raw rows for a dataset.
func (h *dashboardController) IngestRecords(c *fiber.Ctx) error {
	var req model.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json payload")
	}
	req.Dataset = datasetParam(c)

	result, records, err := h.dashboardService.BuildRecords(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.dashboardService.ProcessRecords(c.Context(), records); err != nil {
		log.Error().Err(err).Str("dataset", req.Dataset).Msg("enqueue records failed")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to enqueue records")
	}

	return c.Status(fiber.StatusAccepted).JSON(result)
}

func (h *dashboardController) ListDatasets(c *fiber.Ctx) error {
	datasets, err := h.dashboardService.ListDatasets(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("list datasets failed")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list datasets")
	}
	if datasets == nil {
		datasets = []string{}
	}
	return c.JSON(fiber.Map{"datasets": datasets})
}

// ResolveRange reads mode/ref or start/end from the query string.
func (h *dashboardController) ResolveRange(c *fiber.Ctx) error {
	query := model.RangeQuery{
		Mode:      utils.Trim(c.Query("mode"), ' '),
		Reference: utils.Trim(c.Query("ref"), ' '),
		Start:     utils.Trim(c.Query("start"), ' '),
		End:       utils.Trim(c.Query("end"), ' '),
	}

	resp, err := h.dashboardService.ResolveRange(query, utils.Trim(c.Query("tz"), ' '))
	if err != nil {
		return queryError(err, "failed to resolve range")
	}
	return c.JSON(resp)
}

func (h *dashboardController) Aggregate(c *fiber.Ctx) error {
	var req model.AggregateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json payload")
	}
	req.Dataset = datasetParam(c)

	resp, err := h.dashboardService.Aggregate(c.Context(), req)
	if err != nil {
		return queryError(err, "failed to aggregate records")
	}
	return c.JSON(resp)
}

func (h *dashboardController) Compare(c *fiber.Ctx) error {
	var req model.CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json payload")
	}
	req.Dataset = datasetParam(c)

	resp, err := h.dashboardService.Compare(c.Context(), req)
	if err != nil {
		return queryError(err, "failed to compare ranges")
	}
	return c.JSON(resp)
}

func (h *dashboardController) Trend(c *fiber.Ctx) error {
	var req model.TrendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json payload")
	}
	req.Dataset = datasetParam(c)

	resp, err := h.dashboardService.Trend(c.Context(), req)
	if err != nil {
		return queryError(err, "failed to compute trend")
	}
	return c.JSON(resp)
}

func datasetParam(c *fiber.Ctx) string {
	return utils.Trim(c.Params("dataset"), ' ')
}

// queryError turns validation failures into 400s and hides everything else
// behind a 500 with msg.
func queryError(err error, msg string) error {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return fiber.NewError(fiber.StatusBadRequest, validationErr.Error())
	}
	log.Error().Err(err).Msg(msg)
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}
