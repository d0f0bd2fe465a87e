package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"agora/internal/models"
	"agora/internal/service"
	"agora/internal/tenant"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	Members     int
	Staff       int
	Discussions int
	// MaxReplies caps the replies generated per discussion.
	MaxReplies int
	// MaxDays spreads activity over the last MaxDays days.
	MaxDays int
	Seed    int64
	DryRun  bool
	// Distribution weights discussion types; defaultDistribution when nil.
	Distribution Distribution
}

// Distribution weights each discussion type. Weights need not sum to 100.
type Distribution map[models.DiscussionType]int

var defaultDistribution = Distribution{
	models.DiscussionTypeDiscussion:   50,
	models.DiscussionTypeQuestion:     30,
	models.DiscussionTypeCaseStudy:    10,
	models.DiscussionTypeAnnouncement: 5,
	models.DiscussionTypeMeeting:      5,
}

// typeOrder fixes iteration order so counts are deterministic.
var typeOrder = []models.DiscussionType{
	models.DiscussionTypeDiscussion,
	models.DiscussionTypeQuestion,
	models.DiscussionTypeCaseStudy,
	models.DiscussionTypeAnnouncement,
	models.DiscussionTypeMeeting,
}

var tagPool = []string{
	"homework", "exams", "projects", "reading", "math", "science", "history",
	"art", "music", "sports", "clubs", "events", "help", "announcements", "ideas",
}

// Result summarizes what a run created.
type Result struct {
	Members     int
	Staff       int
	Discussions int
	Replies     int
	Likes       int
}

// computeCounts splits total across types proportionally to d using the
// largest remainder method.
func computeCounts(total int, d Distribution) map[models.DiscussionType]int {
	out := make(map[models.DiscussionType]int, len(typeOrder))
	sum := 0
	for _, t := range typeOrder {
		sum += d[t]
	}
	if sum == 0 || total <= 0 {
		return out
	}
	assigned := 0
	order := make([]models.DiscussionType, len(typeOrder))
	copy(order, typeOrder)
	for _, t := range order {
		out[t] = total * d[t] / sum
		assigned += out[t]
	}
	sort.SliceStable(order, func(i, j int) bool {
		return total*d[order[i]]%sum > total*d[order[j]]%sum
	})
	for i := 0; assigned < total; i++ {
		out[order[i%len(order)]]++
		assigned++
	}
	return out
}

// Forum fills tc with members, staff and a discussion history. Content goes
// through the forum services so counters and mentions stay consistent.
func Forum(ctx context.Context, tc *tenant.Context, central *gorm.DB, dir service.Directory, opts Options) (*Result, error) {
	if opts.Members <= 0 {
		opts.Members = 20
	}
	if opts.Discussions <= 0 {
		opts.Discussions = 30
	}
	if opts.MaxReplies <= 0 {
		opts.MaxReplies = 8
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 60
	}
	dist := opts.Distribution
	if dist == nil {
		dist = defaultDistribution
	}

	f := NewFactory(tc.DB, central, tc.Key, opts)
	res := &Result{}

	var accounts []models.UserRef
	var handles []string
	for i := 0; i < opts.Members; i++ {
		m, err := f.CreateMember()
		if err != nil {
			return nil, fmt.Errorf("create member: %w", err)
		}
		accounts = append(accounts, models.Ref(m.ID, models.RoleMember))
		handles = append(handles, m.Handle)
		res.Members++
	}
	var privileged []models.UserRef
	for i := 0; i < opts.Staff; i++ {
		role := models.RoleStaff
		if i == 0 {
			role = models.RoleAdmin
		}
		s, err := f.CreateStaff(role)
		if err != nil {
			return nil, fmt.Errorf("create staff: %w", err)
		}
		privileged = append(privileged, models.Ref(s.ID, role))
		accounts = append(accounts, models.Ref(s.ID, role))
		res.Staff++
	}

	if opts.DryRun {
		log.Printf("[dry-run] would create %d discussions", opts.Discussions)
		return res, nil
	}

	// #nosec G404: acceptable for seeding
	r := rand.New(rand.NewSource(f.faker.Int64()))
	clock := newSeedClock(time.Now().Add(-time.Duration(opts.MaxDays)*24*time.Hour), r)
	forum := service.NewForum(tc, service.Deps{Directory: dir, Now: clock.Now})

	for _, typ := range typeOrder {
		for n := computeCounts(opts.Discussions, dist)[typ]; n > 0; n-- {
			author := accounts[r.Intn(len(accounts))]
			if typ == models.DiscussionTypeMeeting {
				if len(privileged) == 0 {
					continue
				}
				author = privileged[r.Intn(len(privileged))]
			}
			d, err := forum.Discussions.CreateDiscussion(ctx, f.DiscussionInput(author, typ, clock.Now()))
			if err != nil {
				return nil, fmt.Errorf("create discussion: %w", err)
			}
			res.Discussions++

			replies, likes, err := seedThread(ctx, forum, f, r, d.ID, accounts, handles, opts.MaxReplies)
			if err != nil {
				return nil, err
			}
			res.Replies += replies
			res.Likes += likes
		}
	}
	return res, nil
}

func seedThread(ctx context.Context, forum *service.Forum, f *Factory, r *rand.Rand, discussionID uint, accounts []models.UserRef, handles []string, maxReplies int) (int, int, error) {
	var ids []uint
	likes := 0
	for n := r.Intn(maxReplies + 1); n > 0; n-- {
		var parent *uint
		if len(ids) > 0 && r.Intn(3) == 0 {
			p := ids[r.Intn(len(ids))]
			parent = &p
		}
		mention := ""
		if r.Intn(5) == 0 {
			mention = handles[r.Intn(len(handles))]
		}
		reply, err := forum.Replies.CreateReply(ctx, service.CreateReplyInput{
			Actor:         accounts[r.Intn(len(accounts))],
			DiscussionID:  discussionID,
			ParentReplyID: parent,
			Content:       f.ReplyContent(mention),
		})
		if err != nil {
			return 0, 0, fmt.Errorf("create reply: %w", err)
		}
		ids = append(ids, reply.ID)
	}

	for _, who := range accounts {
		if r.Intn(4) != 0 {
			continue
		}
		if _, err := forum.Engagement.Like(ctx, models.EntityDiscussion, discussionID, who); err != nil {
			return 0, 0, fmt.Errorf("like discussion: %w", err)
		}
		likes++
		if r.Intn(2) == 0 {
			if err := forum.Engagement.MarkViewed(ctx, who, discussionID); err != nil {
				return 0, 0, fmt.Errorf("mark viewed: %w", err)
			}
		}
	}
	return len(ids), likes, nil
}

// seedClock moves forward a random amount on every reading so generated
// activity is spread out and strictly ordered.
type seedClock struct {
	mu  sync.Mutex
	now time.Time
	r   *rand.Rand
}

func newSeedClock(start time.Time, r *rand.Rand) *seedClock {
	return &seedClock{now: start, r: r}
}

func (c *seedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Duration(1+c.r.Intn(90)) * time.Minute)
	return c.now
}
