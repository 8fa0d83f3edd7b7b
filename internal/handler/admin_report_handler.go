package handler

import (
	"net/http"
	"strings"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"
	"haritsattva/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 売上集計と監査ログの閲覧
type AdminReportHandler struct {
	analytics *usecase.AnalyticsUsecase
	audit     *usecase.AuditLogUsecase
}

func NewAdminReportHandler(analytics *usecase.AnalyticsUsecase, audit *usecase.AuditLogUsecase) *AdminReportHandler {
	return &AdminReportHandler{analytics: analytics, audit: audit}
}

// GET /admin/analytics/summary?from&to&top
func (h *AdminReportHandler) Summary(c echo.Context) error {
	from, err := usecase.ParseDateParam(c.QueryParam("from"), false)
	if err != nil {
		return badRequest(c, "invalid from")
	}
	to, err := usecase.ParseDateParam(c.QueryParam("to"), true)
	if err != nil {
		return badRequest(c, "invalid to")
	}
	top, err := queryInt(c, "top", 5)
	if err != nil {
		return badRequest(c, "invalid top")
	}

	out, err := h.analytics.Summary(c.Request().Context(), usecase.AnalyticsInput{From: from, To: to, TopLimit: top})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /admin/audit-logs?page&limit&actor_user_id&action&resource_type&resource_id&from&to
func (h *AdminReportHandler) AuditLogs(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return badRequest(c, "invalid page")
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return badRequest(c, "invalid limit")
	}
	actorID, err := queryInt64Ptr(c, "actor_user_id")
	if err != nil {
		return badRequest(c, "invalid actor_user_id")
	}
	resourceID, err := queryInt64Ptr(c, "resource_id")
	if err != nil {
		return badRequest(c, "invalid resource_id")
	}
	from, err := usecase.ParseDateParam(c.QueryParam("from"), false)
	if err != nil {
		return badRequest(c, "invalid from")
	}
	to, err := usecase.ParseDateParam(c.QueryParam("to"), true)
	if err != nil {
		return badRequest(c, "invalid to")
	}

	out, err := h.audit.List(c.Request().Context(), repo.AuditLogQuery{
		Page:         page,
		Limit:        limit,
		ActorUserID:  actorID,
		Action:       model.AuditAction(strings.ToUpper(strings.TrimSpace(c.QueryParam("action")))),
		ResourceType: model.AuditResourceType(strings.ToLower(strings.TrimSpace(c.QueryParam("resource_type")))),
		ResourceID:   resourceID,
		From:         from,
		To:           to,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
