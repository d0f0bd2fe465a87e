// Package seed provides helpers to create demo data for a tenant. These
// helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"agora/internal/models"
	"agora/internal/service"
	"agora/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds accounts and discussion content.
type Factory struct {
	tenantDB  *gorm.DB
	central   *gorm.DB
	tenantKey string
	opts      Options
	faker     *gofakeit.Faker
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory writing members to tenantDB and staff to
// central.
func NewFactory(tenantDB, central *gorm.DB, tenantKey string, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		tenantDB:  tenantDB,
		central:   central,
		tenantKey: tenantKey,
		opts:      opts,
		faker:     gofakeit.New(seed),
		nextID:    1000,
	}
}

func (f *Factory) handle(first, last string) string {
	h := fmt.Sprintf("%s.%s%d", strings.ToLower(first), strings.ToLower(last), f.faker.Number(10, 999))
	if validation.ValidateHandle(h) != nil {
		// Names with spaces or apostrophes fall back to a generated handle.
		return fmt.Sprintf("user%d", f.faker.Number(10_000, 99_999))
	}
	return h
}

// CreateMember constructs and persists a tenant member.
func (f *Factory) CreateMember(overrides ...func(*models.Member)) (*models.Member, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	m := &models.Member{
		Handle:    f.handle(first, last),
		FirstName: first,
		LastName:  last,
		Email:     f.faker.Email(),
		Image:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, override := range overrides {
		override(m)
	}

	if f.opts.DryRun {
		f.nextID++
		m.ID = f.nextID
		log.Printf("[dry-run] CreateMember: %s", m.Handle)
		return m, nil
	}
	if err := f.tenantDB.Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// CreateStaff constructs a central account with role and assigns it to the
// factory's tenant.
func (f *Factory) CreateStaff(role models.Role, overrides ...func(*models.Staff)) (*models.Staff, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	s := &models.Staff{
		Handle:    f.handle(first, last),
		FirstName: first,
		LastName:  last,
		Email:     f.faker.Email(),
		Role:      role,
	}
	for _, override := range overrides {
		override(s)
	}

	if f.opts.DryRun {
		f.nextID++
		s.ID = f.nextID
		log.Printf("[dry-run] CreateStaff: %s (%s)", s.Handle, s.Role)
		return s, nil
	}
	err := f.central.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		return tx.Create(&models.StaffAssignment{StaffID: s.ID, TenantKey: f.tenantKey}).Error
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DiscussionInput builds a discussion of type typ by author. Meeting
// discussions get a scheduled meeting in the coming weeks.
func (f *Factory) DiscussionInput(author models.UserRef, typ models.DiscussionType, now time.Time) service.CreateDiscussionInput {
	in := service.CreateDiscussionInput{
		Actor: author,
		Title: strings.TrimSuffix(f.faker.Sentence(f.faker.Number(4, 9)), "."),
		Body:  f.faker.Paragraph(1, 3, 12, "\n\n"),
		Type:  typ,
		Tags:  f.tags(),
	}
	switch typ {
	case models.DiscussionTypeQuestion:
		in.Title = f.faker.Question()
	case models.DiscussionTypeMeeting:
		at := now.Add(time.Duration(f.faker.Number(24, 24*21)) * time.Hour).Truncate(time.Hour)
		in.Meeting = service.MeetingInput{
			Link:        fmt.Sprintf("https://meet.example.org/%s", f.faker.UUID()),
			Platform:    f.faker.RandomString([]string{"zoom", "teams", "meet"}),
			ScheduledAt: &at,
			Duration:    f.faker.RandomInt([]int{30, 45, 60, 90}),
		}
	}
	if f.faker.Number(1, 10) == 1 {
		in.Attachments = []service.AttachmentInput{{
			URL:       fmt.Sprintf("https://files.example.org/%s.pdf", f.faker.UUID()),
			FileName:  f.faker.Word() + ".pdf",
			MimeType:  "application/pdf",
			SizeBytes: int64(f.faker.Number(10_000, 4_000_000)),
		}}
	}
	return in
}

// ReplyContent returns reply text, mentioning target when it is not empty.
func (f *Factory) ReplyContent(mention string) string {
	text := f.faker.Paragraph(1, 2, 10, " ")
	if mention != "" {
		return "@" + mention + " " + text
	}
	return text
}

func (f *Factory) tags() []string {
	n := f.faker.Number(0, 3)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f.faker.RandomString(tagPool))
	}
	return out
}
