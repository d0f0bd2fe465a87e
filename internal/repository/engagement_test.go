package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"agora/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var insertLike = `INSERT INTO "likes" (.+) ON CONFLICT DO NOTHING RETURNING "id"`

func TestLikeRepository_Insert(t *testing.T) {
	ctx := context.Background()
	member := models.Ref(3, models.RoleMember)

	tests := []struct {
		name     string
		rows     *sqlmock.Rows
		expected bool
	}{
		{name: "New like", rows: sqlmock.NewRows([]string{"id"}).AddRow(11), expected: true},
		{name: "Already liked", rows: sqlmock.NewRows([]string{"id"}), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewLikeRepository(db)

			mock.ExpectBegin()
			mock.ExpectQuery(insertLike).
				WithArgs(models.EntityReply, 9, member.ID, member.Role, sqlmock.AnyArg()).
				WillReturnRows(tt.rows)
			mock.ExpectCommit()

			inserted, err := repo.Insert(ctx, &models.Like{
				EntityType: models.EntityReply, EntityID: 9, LikedBy: member.ID, LikedByRole: member.Role,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, inserted)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLikeRepository_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	staff := models.Ref(3, models.RoleStaff)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE entity_type = $1 AND entity_id = $2 AND liked_by = $3 AND liked_by_role = $4`)).
		WithArgs(models.EntityDiscussion, 5, staff.ID, staff.Role).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	removed, err := repo.Delete(ctx, models.EntityDiscussion, 5, staff)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, models.EntityDiscussion, 5, staff)
	require.NoError(t, err)
	assert.False(t, removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_LikedIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)
	viewer := models.Ref(2, models.RoleMember)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "entity_id" FROM "likes" WHERE entity_type = $1 AND entity_id IN ($2,$3,$4) AND liked_by = $5 AND liked_by_role = $6`)).
		WithArgs(models.EntityDiscussion, 1, 2, 3, viewer.ID, viewer.Role).
		WillReturnRows(sqlmock.NewRows([]string{"entity_id"}).AddRow(1).AddRow(3))

	liked, err := repo.LikedIDs(context.Background(), models.EntityDiscussion, []uint{1, 2, 3}, viewer)
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{1: true, 3: true}, liked)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Anonymous viewers never hit the database.
	liked, err = repo.LikedIDs(context.Background(), models.EntityDiscussion, []uint{1}, models.UserRef{})
	require.NoError(t, err)
	assert.Empty(t, liked)
}

func TestPinRepository_Insert(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPinRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "pins" (.+) ON CONFLICT DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	inserted, err := repo.Insert(context.Background(), &models.Pin{DiscussionID: 4, PinnedBy: 1, PinnedByRole: models.RoleMember})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	user := models.Ref(8, models.RoleMember)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("First view", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewViewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "discussion_views" (.+) ON CONFLICT DO NOTHING RETURNING "id"`).
			WithArgs(user.ID, user.Role, 4, at).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		first, err := repo.Upsert(ctx, user, 4, at)
		require.NoError(t, err)
		assert.True(t, first)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Repeat view overwrites timestamp", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewViewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "discussion_views" (.+) ON CONFLICT DO NOTHING RETURNING "id"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "discussion_views" SET "viewed_at"=$1 WHERE user_id = $2 AND user_role = $3 AND discussion_id = $4`)).
			WithArgs(at, user.ID, user.Role, 4).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		first, err := repo.Upsert(ctx, user, 4, at)
		require.NoError(t, err)
		assert.False(t, first)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
