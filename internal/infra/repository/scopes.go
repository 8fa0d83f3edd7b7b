package repository

import (
	"time"

	"gorm.io/gorm"
)

// page は1始まり
func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		return db.Limit(limit).Offset((page - 1) * limit)
	}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("id desc")
}

// 空文字は絞り込まない
func whereEq(column, value string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if value == "" {
			return db
		}
		return db.Where(column+" = ?", value)
	}
}

func createdBetween(from, to *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where("created_at >= ?", *from)
		}
		if to != nil {
			db = db.Where("created_at <= ?", *to)
		}
		return db
	}
}

// 件数とページを同じ条件で取る
func countAndFind[T any](q *gorm.DB, page, limit int) ([]T, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []T{}, 0, translateError(err)
	}
	items := []T{}
	if err := q.Scopes(newestFirst, paginate(page, limit)).Find(&items).Error; err != nil {
		return []T{}, 0, translateError(err)
	}
	return items, total, nil
}
