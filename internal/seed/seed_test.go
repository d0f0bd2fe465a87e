package seed

import (
	"context"
	"testing"

	"agora/internal/identity"
	"agora/internal/models"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCounts_Default(t *testing.T) {
	counts := computeCounts(10, defaultDistribution)
	sum := 0
	for _, n := range counts {
		sum += n
	}
	assert.Equal(t, 10, sum)
	assert.Equal(t, 5, counts[models.DiscussionTypeDiscussion])
	assert.Equal(t, 3, counts[models.DiscussionTypeQuestion])
	assert.Equal(t, 1, counts[models.DiscussionTypeCaseStudy])
}

func TestComputeCounts_Remainder(t *testing.T) {
	counts := computeCounts(7, Distribution{
		models.DiscussionTypeDiscussion: 1,
		models.DiscussionTypeQuestion:   1,
		models.DiscussionTypeMeeting:    1,
	})
	assert.Equal(t, 3, counts[models.DiscussionTypeDiscussion])
	assert.Equal(t, 2, counts[models.DiscussionTypeQuestion])
	assert.Equal(t, 2, counts[models.DiscussionTypeMeeting])
	assert.Zero(t, counts[models.DiscussionTypeCaseStudy])
}

func TestComputeCounts_Empty(t *testing.T) {
	assert.Empty(t, computeCounts(0, defaultDistribution))
	assert.Empty(t, computeCounts(5, Distribution{}))
}

func TestForum_CountersStayConsistent(t *testing.T) {
	tc := testutil.NewTenant(t)
	central := testutil.NewCentralDB(t)
	dir := identity.NewService(central, nil, 0)

	res, err := Forum(context.Background(), tc, central, dir, Options{
		Members:     6,
		Staff:       2,
		Discussions: 8,
		MaxReplies:  5,
		Seed:        42,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Members)
	assert.Equal(t, 2, res.Staff)
	assert.Equal(t, 8, res.Discussions)

	var discussions []models.Discussion
	require.NoError(t, tc.DB.Find(&discussions).Error)
	require.Len(t, discussions, 8)

	totalReplies := 0
	for _, d := range discussions {
		var replies int64
		require.NoError(t, tc.DB.Model(&models.Reply{}).Where("discussion_id = ?", d.ID).Count(&replies).Error)
		assert.Equal(t, int(replies), d.ReplyCount, "discussion %d", d.ID)
		totalReplies += d.ReplyCount

		var likes int64
		require.NoError(t, tc.DB.Model(&models.Like{}).
			Where("entity_type = ? AND entity_id = ?", models.EntityDiscussion, d.ID).Count(&likes).Error)
		assert.Equal(t, int(likes), d.LikeCount, "discussion %d", d.ID)
	}
	assert.Equal(t, res.Replies, totalReplies)

	var assigned int64
	require.NoError(t, central.Model(&models.StaffAssignment{}).Where("tenant_key = ?", tc.Key).Count(&assigned).Error)
	assert.Equal(t, int64(2), assigned)
}

func TestForum_DryRunWritesNothing(t *testing.T) {
	tc := testutil.NewTenant(t)
	central := testutil.NewCentralDB(t)

	res, err := Forum(context.Background(), tc, central, identity.NewService(central, nil, 0), Options{
		Members: 3, Staff: 1, Discussions: 4, DryRun: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Members)
	assert.Zero(t, res.Discussions)

	var members int64
	require.NoError(t, tc.DB.Model(&models.Member{}).Count(&members).Error)
	assert.Zero(t, members)
}
