package repository

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"

	"gorm.io/gorm"
)

// Counter columns maintained on discussions and replies.
const (
	ColReplyCount    = "reply_count"
	ColViewCount     = "view_count"
	ColLikeCount     = "like_count"
	ColSubReplyCount = "sub_reply_count"
)

// adjustCounter applies delta to column of the row id as server-side
// arithmetic. Decrements clamp at zero. column must be one of the Col
// constants; it is interpolated into SQL.
func adjustCounter(ctx context.Context, db *gorm.DB, model interface{}, table string, id uint, column string, delta int) error {
	if delta == 0 {
		return nil
	}

	var value interface{}
	direction := "inc"
	if delta > 0 {
		value = gorm.Expr(column+" + ?", delta)
	} else {
		n := -delta
		value = gorm.Expr("CASE WHEN "+column+" > ? THEN "+column+" - ? ELSE 0 END", n, n)
		direction = "dec"
	}

	err := db.WithContext(ctx).Unscoped().Model(model).
		Where("id = ?", id).
		UpdateColumn(column, value).Error
	if err == nil {
		observability.CounterAdjustments.WithLabelValues(table, column, direction).Inc()
	}
	return err
}

// incrementIfActive adds one to column of the row id only while the row is
// active and not soft-deleted. It reports whether a row was changed, which
// makes the status check and the increment one statement.
func incrementIfActive(ctx context.Context, db *gorm.DB, model interface{}, table string, id uint, column string) (bool, error) {
	res := db.WithContext(ctx).Unscoped().Model(model).
		Where("id = ? AND status = ? AND deleted_at IS NULL", id, models.StatusActive).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	observability.CounterAdjustments.WithLabelValues(table, column, "inc").Inc()
	return true, nil
}
