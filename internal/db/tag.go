package db

import "time"

// Tag 定义了标签模型，名称统一为小写。
type Tag struct {
	ID          uint         `gorm:"primaryKey"`
	Name        string       `gorm:"size:32;unique;not null"`
	CreatedAt   time.Time
	Discussions []Discussion `gorm:"many2many:discussion_tags;"`
}
