package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"agora/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var selectChildren = regexp.QuoteMeta(`SELECT "id" FROM "replies" WHERE parent_reply_id IN`)

func TestReplyRepository_CollectDescendants(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReplyRepository(db)

	// 1 -> {2, 3}; 2 -> {4}; 4 -> {2} is a malformed cycle.
	mock.ExpectQuery(selectChildren).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2).AddRow(3))
	mock.ExpectQuery(selectChildren).WithArgs(2, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery(selectChildren).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	ids, err := repo.CollectDescendants(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3, 4}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepository_CollectDescendants_Leaf(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReplyRepository(db)

	mock.ExpectQuery(selectChildren).WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ids, err := repo.CollectDescendants(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepository_CollectDescendants_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReplyRepository(db)

	mock.ExpectQuery(selectChildren).WillReturnError(errors.New("timeout"))

	ids, err := repo.CollectDescendants(context.Background(), 1)
	assert.Error(t, err)
	assert.Nil(t, ids)
}

func TestReplyRepository_ParentsOf(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReplyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","parent_reply_id" FROM "replies" WHERE id IN ($1,$2)`)).
		WithArgs(5, 6).
		WillReturnRows(sqlmock.NewRows([]string{"id", "parent_reply_id"}).AddRow(5, nil).AddRow(6, 5))

	parents, err := repo.ParentsOf(context.Background(), []uint{5, 6})
	require.NoError(t, err)
	require.Len(t, parents, 2)
	assert.Nil(t, parents[5])
	require.NotNil(t, parents[6])
	assert.Equal(t, uint(5), *parents[6])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepository_MarkDeleted_SkipsDeletedRows(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReplyRepository(db)

	// Only one of the two rows is still live; the count says so.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "replies" SET .* WHERE id IN \(\$\d+,\$\d+\) AND deleted_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	actor := models.Ref(2, models.RoleMember)
	n, err := repo.MarkDeleted(context.Background(), []uint{5, 6}, actor, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepository_MarkDeleted_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReplyRepository(db)

	n, err := repo.MarkDeleted(context.Background(), nil, models.Ref(1, models.RoleAdmin), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepository_HasLiveChildren(t *testing.T) {
	countChildren := regexp.QuoteMeta(`SELECT count(*) FROM "replies" WHERE parent_reply_id IN ($1,$2)`) + `.*deleted_at" IS NULL`

	tests := []struct {
		name  string
		count int
		want  bool
	}{
		{"No live children", 0, false},
		{"Live child", 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewReplyRepository(db)

			mock.ExpectQuery(countChildren).WithArgs(3, 4).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))

			got, err := repo.HasLiveChildren(context.Background(), []uint{3, 4})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
