package service

import (
	"strings"
	"testing"

	"agora/internal/models"
	"agora/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportContent(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Questionable", "body")
	f.pub.reset()

	report, err := f.forum.Moderation.ReportContent(f.ctx, ReportContentInput{
		Reporter: f.bob, EntityType: models.EntityDiscussion, EntityID: d.ID, ReportType: models.ReportTypeSpam, Reason: " buy now ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Equal(t, "buy now", report.Reason)
	assert.Equal(t, d.ID, report.DiscussionID)
	assert.Equal(t, models.StatusReported, f.discussionRow(d.ID).Status)

	events := f.pub.ofType(notifications.EventReportCreated)
	require.Len(t, events, 1)
	assert.Equal(t, []models.UserRef{f.admin}, f.recipients(events[0]))

	// A second open report from the same account conflicts.
	_, err = f.forum.Moderation.ReportContent(f.ctx, ReportContentInput{
		Reporter: f.bob, EntityType: models.EntityDiscussion, EntityID: d.ID, Reason: "again",
	})
	assertCode(t, err, models.CodeConflict)

	// Other accounts may still report it.
	other, err := f.forum.Moderation.ReportContent(f.ctx, ReportContentInput{
		Reporter: f.carol, EntityType: models.EntityDiscussion, EntityID: d.ID, Reason: "off topic",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportTypeOther, other.ReportType)
}

func TestReportContent_AfterResolution(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Topic", "body")
	r := f.reply(f.carol, d.ID, nil, "rude reply")

	first, err := f.forum.Moderation.ReportContent(f.ctx, ReportContentInput{
		Reporter: f.bob, EntityType: models.EntityReply, EntityID: r.ID, ReportType: models.ReportTypeAbuse, Reason: "rude",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusReported, f.replyRow(r.ID).Status)

	_, err = f.forum.Moderation.ReviewReport(f.ctx, ReviewReportInput{
		Actor: f.admin, ReportID: first.ID, Status: models.ReportStatusResolved, Note: "warned",
	})
	require.NoError(t, err)

	second, err := f.forum.Moderation.ReportContent(f.ctx, ReportContentInput{
		Reporter: f.bob, EntityType: models.EntityReply, EntityID: r.ID, Reason: "still rude",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestReportContent_Errors(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Topic", "body")

	tests := []struct {
		name string
		in   ReportContentInput
		code string
	}{
		{"Empty reason", ReportContentInput{Reporter: f.bob, EntityType: models.EntityDiscussion, EntityID: d.ID, Reason: " "}, models.CodeValidation},
		{"Reason too long", ReportContentInput{Reporter: f.bob, EntityType: models.EntityDiscussion, EntityID: d.ID, Reason: strings.Repeat("r", 2001)}, models.CodeValidation},
		{"Unknown type", ReportContentInput{Reporter: f.bob, EntityType: models.EntityDiscussion, EntityID: d.ID, ReportType: "boring", Reason: "meh"}, models.CodeValidation},
		{"Unknown entity type", ReportContentInput{Reporter: f.bob, EntityType: "member", EntityID: d.ID, Reason: "meh"}, models.CodeValidation},
		{"Missing discussion", ReportContentInput{Reporter: f.bob, EntityType: models.EntityDiscussion, EntityID: 404, Reason: "meh"}, models.CodeNotFound},
		{"Missing reply", ReportContentInput{Reporter: f.bob, EntityType: models.EntityReply, EntityID: 404, Reason: "meh"}, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.forum.Moderation.ReportContent(f.ctx, tt.in)
			assertCode(t, err, tt.code)
		})
	}
	assert.Zero(t, f.count(&models.Report{}, "1 = 1"))
	assert.Equal(t, models.StatusActive, f.discussionRow(d.ID).Status)
}

func TestReportContent_ArchivedStaysArchived(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Old", "body")
	_, err := f.forum.Discussions.ArchiveDiscussion(f.ctx, d.ID, f.staff)
	require.NoError(t, err)

	_, err = f.forum.Moderation.ReportContent(f.ctx, ReportContentInput{
		Reporter: f.bob, EntityType: models.EntityDiscussion, EntityID: d.ID, Reason: "outdated",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, f.discussionRow(d.ID).Status)
}

func TestListReports(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Topic", "body")
	r := f.reply(f.bob, d.ID, nil, "reply")
	for _, in := range []ReportContentInput{
		{Reporter: f.bob, EntityType: models.EntityDiscussion, EntityID: d.ID, Reason: "one"},
		{Reporter: f.carol, EntityType: models.EntityDiscussion, EntityID: d.ID, Reason: "two"},
		{Reporter: f.carol, EntityType: models.EntityReply, EntityID: r.ID, Reason: "three"},
	} {
		_, err := f.forum.Moderation.ReportContent(f.ctx, in)
		require.NoError(t, err)
	}

	_, err := f.forum.Moderation.ListReports(f.ctx, ReportFilter{}, NewPage(0, 0), f.bob)
	assertCode(t, err, models.CodeForbidden)
	_, err = f.forum.Moderation.ListReports(f.ctx, ReportFilter{Status: "closed"}, NewPage(0, 0), f.staff)
	assertCode(t, err, models.CodeValidation)

	page, err := f.forum.Moderation.ListReports(f.ctx, ReportFilter{}, NewPage(0, 0), f.staff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, "three", page.Items[0].Reason)
	require.NotNil(t, page.Items[0].ReporterUser)
	assert.Equal(t, "carol", page.Items[0].ReporterUser.Handle)

	page, err = f.forum.Moderation.ListReports(f.ctx, ReportFilter{EntityType: models.EntityReply}, NewPage(0, 0), f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = f.forum.Moderation.ListReports(f.ctx, ReportFilter{Status: models.ReportStatusPending}, NewPage(1, 1), f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 1)
}

func TestReviewReport(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Topic", "body")
	first, err := f.forum.Moderation.ReportContent(f.ctx, ReportContentInput{Reporter: f.bob, EntityType: models.EntityDiscussion, EntityID: d.ID, Reason: "one"})
	require.NoError(t, err)
	second, err := f.forum.Moderation.ReportContent(f.ctx, ReportContentInput{Reporter: f.carol, EntityType: models.EntityDiscussion, EntityID: d.ID, Reason: "two"})
	require.NoError(t, err)

	_, err = f.forum.Moderation.ReviewReport(f.ctx, ReviewReportInput{Actor: f.staff, ReportID: first.ID, Status: models.ReportStatusReviewed})
	assertCode(t, err, models.CodeForbidden)
	_, err = f.forum.Moderation.ReviewReport(f.ctx, ReviewReportInput{Actor: f.admin, ReportID: 404, Status: models.ReportStatusReviewed})
	assertCode(t, err, models.CodeNotFound)
	_, err = f.forum.Moderation.ReviewReport(f.ctx, ReviewReportInput{Actor: f.admin, ReportID: first.ID, Status: models.ReportStatusPending})
	assertCode(t, err, models.CodeValidation)

	reviewed, err := f.forum.Moderation.ReviewReport(f.ctx, ReviewReportInput{Actor: f.admin, ReportID: first.ID, Status: models.ReportStatusReviewed})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusReviewed, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, f.admin.ID, *reviewed.ReviewedBy)
	assert.Equal(t, "bob", reviewed.ReporterUser.Handle)

	// Restoring waits until no open report remains.
	_, err = f.forum.Moderation.ReviewReport(f.ctx, ReviewReportInput{
		Actor: f.admin, ReportID: first.ID, Status: models.ReportStatusResolved, Note: "fine", Restore: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusReported, f.discussionRow(d.ID).Status)

	_, err = f.forum.Moderation.ReviewReport(f.ctx, ReviewReportInput{
		Actor: f.admin, ReportID: second.ID, Status: models.ReportStatusResolved, Restore: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, f.discussionRow(d.ID).Status)

	// Resolved is terminal.
	_, err = f.forum.Moderation.ReviewReport(f.ctx, ReviewReportInput{Actor: f.admin, ReportID: first.ID, Status: models.ReportStatusReviewed})
	assertCode(t, err, models.CodeValidation)

	var stored models.Report
	require.NoError(t, f.tc.DB.First(&stored, first.ID).Error)
	assert.Equal(t, "fine", stored.ResolutionNote)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(models.ReportStatusPending, models.ReportStatusReviewed))
	assert.True(t, canTransition(models.ReportStatusPending, models.ReportStatusResolved))
	assert.True(t, canTransition(models.ReportStatusReviewed, models.ReportStatusResolved))
	assert.False(t, canTransition(models.ReportStatusReviewed, models.ReportStatusPending))
	assert.False(t, canTransition(models.ReportStatusResolved, models.ReportStatusReviewed))
	assert.False(t, canTransition(models.ReportStatusPending, models.ReportStatusPending))
}
