package db

import "time"

// Discussion 定义了讨论主题模型。作者在创建时绑定，之后不再修改。
type Discussion struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text;not null"`
	AuthorID    uint      `gorm:"index;not null"`
	Author      User      `gorm:"foreignKey:AuthorID"`
	Category    string    `gorm:"size:32;not null;default:general;index"`
	Tags        []Tag     `gorm:"many2many:discussion_tags;"`
	Views       uint      `gorm:"not null;default:0"`
	Comments    []Comment `gorm:"foreignKey:DiscussionID"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

// TagNames 返回按存储顺序排列的标签名称。
func (d Discussion) TagNames() []string {
	names := make([]string, 0, len(d.Tags))
	for _, tag := range d.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// Comment 定义了讨论下的评论。
type Comment struct {
	ID           uint      `gorm:"primaryKey"`
	DiscussionID uint      `gorm:"index;not null"`
	AuthorID     uint      `gorm:"index;not null"`
	Author       User      `gorm:"foreignKey:AuthorID"`
	Body         string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}
