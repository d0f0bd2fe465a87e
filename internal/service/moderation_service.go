package service

import (
	"context"
	"strings"

	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/repository"
)

const maxReasonLen = 2000

// ModerationService files and reviews content reports.
type ModerationService struct {
	*base
}

type ReportContentInput struct {
	Reporter   models.UserRef
	EntityType models.EntityType
	EntityID   uint
	ReportType string
	Reason     string
}

type ReviewReportInput struct {
	Actor    models.UserRef
	ReportID uint
	Status   models.ReportStatus
	Note     string
	// Restore returns the entity from reported to active once no open
	// report remains against it.
	Restore bool
}

// ReportFilter narrows a report listing.
type ReportFilter struct {
	Status     models.ReportStatus
	EntityType models.EntityType
}

type reportTarget struct {
	discussionID uint
	status       models.ContentStatus
	title        string
}

func (s *ModerationService) target(ctx context.Context, entityType models.EntityType, id uint) (*reportTarget, error) {
	switch entityType {
	case models.EntityDiscussion:
		d, err := s.store.Discussions.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(ctx, "report.target", "Discussion", id, err)
		}
		return &reportTarget{discussionID: d.ID, status: d.Status, title: d.Title}, nil
	case models.EntityReply:
		r, err := s.store.Replies.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(ctx, "report.target", "Reply", id, err)
		}
		return &reportTarget{discussionID: r.DiscussionID, status: r.Status}, nil
	default:
		return nil, models.NewValidationError("Entity type must be discussion or reply")
	}
}

func setEntityStatus(ctx context.Context, tx *repository.Store, entityType models.EntityType, id uint, status models.ContentStatus) error {
	if entityType == models.EntityDiscussion {
		return tx.Discussions.SetStatus(ctx, id, status)
	}
	return tx.Replies.SetStatus(ctx, id, status)
}

// ReportContent files a report against a discussion or reply and flags the
// entity as reported. A reporter holds at most one open report per entity.
func (s *ModerationService) ReportContent(ctx context.Context, in ReportContentInput) (*models.Report, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, models.NewValidationError("Reason is required")
	}
	if len(reason) > maxReasonLen {
		return nil, models.NewValidationError("Reason too long (max 2000 characters)")
	}
	reportType := strings.TrimSpace(in.ReportType)
	if reportType == "" {
		reportType = models.ReportTypeOther
	}
	if !models.ValidReportType(reportType) {
		return nil, models.NewValidationError("Unknown report type")
	}

	t, err := s.target(ctx, in.EntityType, in.EntityID)
	if err != nil {
		return nil, err
	}

	open, err := s.store.Reports.HasOpen(ctx, in.EntityType, in.EntityID, in.Reporter)
	if err != nil {
		return nil, internalError(ctx, "report.create.check", err)
	}
	if open {
		return nil, models.NewConflictError("You already have an open report on this content")
	}

	report := &models.Report{
		EntityType:     in.EntityType,
		EntityID:       in.EntityID,
		DiscussionID:   t.discussionID,
		ReportType:     reportType,
		Reason:         reason,
		ReportedBy:     in.Reporter.ID,
		ReportedByRole: in.Reporter.Role,
		Status:         models.ReportStatusPending,
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Reports.Create(ctx, report); err != nil {
			return err
		}
		if t.status != models.StatusActive {
			return nil
		}
		return setEntityStatus(ctx, tx, in.EntityType, in.EntityID, models.StatusReported)
	})
	if repository.IsUniqueViolation(err) {
		return nil, models.NewConflictError("You already have an open report on this content")
	}
	if err != nil {
		return nil, internalError(ctx, "report.create", err)
	}

	s.publish(ctx, notifications.EventReportCreated, in.Reporter, notifications.Administrators(),
		"Content reported", reason, map[string]any{
			"report_id":     report.ID,
			"entity_type":   string(report.EntityType),
			"entity_id":     report.EntityID,
			"discussion_id": report.DiscussionID,
			"report_type":   report.ReportType,
		})
	return report, nil
}

// ListReports pages reports for privileged reviewers, newest first.
func (s *ModerationService) ListReports(ctx context.Context, filter ReportFilter, page Page, actor models.UserRef) (*models.Page[*models.ReportItem], error) {
	if !actor.Role.IsPrivileged() {
		return nil, models.NewForbiddenError("Only staff can list reports")
	}
	if filter.Status != "" && !validReportStatus(filter.Status) {
		return nil, models.NewValidationError("Unknown report status")
	}
	if filter.EntityType != "" && !filter.EntityType.Valid() {
		return nil, models.NewValidationError("Entity type must be discussion or reply")
	}

	reports, total, err := s.store.Reports.List(ctx, repository.ReportFilter{
		Status:     filter.Status,
		EntityType: filter.EntityType,
	}, page.Limit, page.Offset)
	if err != nil {
		return nil, internalError(ctx, "report.list", err)
	}

	refs := make([]models.UserRef, 0, len(reports))
	for _, r := range reports {
		refs = append(refs, r.Reporter())
	}
	users := s.summaries(ctx, refs)

	items := make([]*models.ReportItem, 0, len(reports))
	for _, r := range reports {
		items = append(items, &models.ReportItem{Report: r, ReporterUser: users[r.Reporter()]})
	}
	return &models.Page[*models.ReportItem]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func validReportStatus(s models.ReportStatus) bool {
	return s == models.ReportStatusPending || s == models.ReportStatusReviewed || s == models.ReportStatusResolved
}

// reportTransitions lists the forward moves of the review workflow.
var reportTransitions = map[models.ReportStatus][]models.ReportStatus{
	models.ReportStatusPending:  {models.ReportStatusReviewed, models.ReportStatusResolved},
	models.ReportStatusReviewed: {models.ReportStatusResolved},
}

func canTransition(from, to models.ReportStatus) bool {
	for _, next := range reportTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReviewReport advances a report through pending, reviewed and resolved.
func (s *ModerationService) ReviewReport(ctx context.Context, in ReviewReportInput) (*models.ReportItem, error) {
	if !in.Actor.Role.IsAdmin() {
		return nil, models.NewForbiddenError("Only administrators can review reports")
	}
	report, err := s.store.Reports.GetByID(ctx, in.ReportID)
	if err != nil {
		return nil, notFound(ctx, "report.review", "Report", in.ReportID, err)
	}
	if !canTransition(report.Status, in.Status) {
		return nil, models.NewValidationError("Invalid report status transition from " +
			string(report.Status) + " to " + string(in.Status))
	}

	reviewer := in.Actor.ID
	report.Status = in.Status
	report.ReviewedBy = &reviewer
	report.ReviewedByRole = in.Actor.Role
	if note := strings.TrimSpace(in.Note); note != "" {
		report.ResolutionNote = note
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Reports.Update(ctx, report, "status", "reviewed_by", "reviewed_by_role", "resolution_note", "updated_at"); err != nil {
			return err
		}
		if report.Status != models.ReportStatusResolved || !in.Restore {
			return nil
		}
		open, err := tx.Reports.CountOpen(ctx, report.EntityType, report.EntityID)
		if err != nil || open > 0 {
			return err
		}
		return restoreReported(ctx, tx, report.EntityType, report.EntityID)
	})
	if err != nil {
		return nil, internalError(ctx, "report.review", err)
	}

	users := s.summaries(ctx, []models.UserRef{report.Reporter()})
	return &models.ReportItem{Report: report, ReporterUser: users[report.Reporter()]}, nil
}

// restoreReported returns a reported entity to active. Entities in any other
// state are left alone.
func restoreReported(ctx context.Context, tx *repository.Store, entityType models.EntityType, id uint) error {
	var status models.ContentStatus
	switch entityType {
	case models.EntityDiscussion:
		d, err := tx.Discussions.GetByID(ctx, id)
		if err != nil {
			return ignoreMissing(err)
		}
		status = d.Status
	default:
		r, err := tx.Replies.GetByID(ctx, id)
		if err != nil {
			return ignoreMissing(err)
		}
		status = r.Status
	}
	if status != models.StatusReported {
		return nil
	}
	return setEntityStatus(ctx, tx, entityType, id, models.StatusActive)
}
