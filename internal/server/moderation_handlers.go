package server

import (
	"strings"

	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type reportRequest struct {
	EntityType models.EntityType `json:"entity_type"`
	EntityID   uint              `json:"entity_id"`
	ReportType string            `json:"report_type"`
	Reason     string            `json:"reason"`
}

type reviewRequest struct {
	Status  models.ReportStatus `json:"status"`
	Note    string              `json:"note"`
	Restore bool                `json:"restore"`
}

// ReportContent handles POST /api/reports
// @Summary Report a discussion or reply
// @Description Flags the content as reported. One open report per reporter and entity.
// @Tags moderation
// @Accept json
// @Produce json
// @Param request body reportRequest true "Report"
// @Success 201 {object} models.Report
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /reports [post]
func (s *Server) ReportContent(c *fiber.Ctx) error {
	var req reportRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	report, err := s.forum(c).Moderation.ReportContent(c.UserContext(), service.ReportContentInput{
		Reporter:   caller(c),
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		ReportType: req.ReportType,
		Reason:     req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// ListReports handles GET /api/reports
// @Summary List moderation reports
// @Description Staff and admins only. Newest first.
// @Tags moderation
// @Produce json
// @Param status query string false "pending, reviewed or resolved"
// @Param entity_type query string false "discussion or reply"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Page[models.ReportItem]
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /reports [get]
func (s *Server) ListReports(c *fiber.Ctx) error {
	filter := service.ReportFilter{
		Status:     models.ReportStatus(strings.ToLower(c.Query("status"))),
		EntityType: models.EntityType(c.Query("entity_type")),
	}
	page, err := s.forum(c).Moderation.ListReports(c.UserContext(), filter, parsePagination(c), caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// ReviewReport handles PUT /api/reports/:id
// @Summary Review a report
// @Description Admins only. Moves the report forward and optionally restores the content.
// @Tags moderation
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param request body reviewRequest true "Review"
// @Success 200 {object} models.ReportItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /reports/{id} [put]
func (s *Server) ReviewReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req reviewRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	item, err := s.forum(c).Moderation.ReviewReport(c.UserContext(), service.ReviewReportInput{
		Actor:    caller(c),
		ReportID: id,
		Status:   req.Status,
		Note:     req.Note,
		Restore:  req.Restore,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}
