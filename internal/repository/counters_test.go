package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscussionRepository_AdjustCounter(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		delta        int
		mockBehavior func(mock sqlmock.Sqlmock)
		expectErr    bool
	}{
		{
			name:  "Increment",
			delta: 1,
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "discussions" SET "reply_count"=reply_count + $1 WHERE id = $2`)).
					WithArgs(1, 7).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name:  "Decrement clamps at zero",
			delta: -3,
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "discussions" SET "reply_count"=CASE WHEN reply_count > $1 THEN reply_count - $2 ELSE 0 END WHERE id = $3`)).
					WithArgs(3, 3, 7).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name:         "Zero delta is a no-op",
			delta:        0,
			mockBehavior: func(sqlmock.Sqlmock) {},
		},
		{
			name:  "Database error",
			delta: 1,
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "discussions"`)).
					WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewDiscussionRepository(db)
			tt.mockBehavior(mock)

			err := repo.AdjustCounter(ctx, 7, ColReplyCount, tt.delta)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReplyRepository_AdjustCounter(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReplyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "replies" SET "sub_reply_count"=CASE WHEN sub_reply_count > $1 THEN sub_reply_count - $2 ELSE 0 END WHERE id = $3`)).
		WithArgs(2, 2, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AdjustCounter(context.Background(), 4, ColSubReplyCount, -2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementIfActive(t *testing.T) {
	ctx := context.Background()
	guarded := regexp.QuoteMeta(`SET "reply_count"=reply_count + $1 WHERE id = $2 AND status = $3 AND deleted_at IS NULL`)

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"Active row is incremented", 1, true},
		{"Deleted or inactive row is left alone", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewDiscussionRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE "discussions" ` + guarded).
				WithArgs(1, 7, sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectCommit()

			ok, err := repo.IncrementIfActive(ctx, 7, ColReplyCount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReplyRepository_IncrementIfActive_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReplyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "replies" SET "sub_reply_count"=sub_reply_count + $1`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	ok, err := repo.IncrementIfActive(context.Background(), 3, ColSubReplyCount)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
