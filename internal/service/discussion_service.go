package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/discussboard/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	ErrDiscussionNotFound = errors.New("discussion not found")
	ErrAuthorRequired     = errors.New("discussion author is required")
	ErrTitleRequired      = errors.New("discussion title is required")
)

// plainText strips every tag from single-line fields such as titles and tag names.
var plainText = bluemonday.StrictPolicy()

// Expand selects which references are fetched alongside a discussion.
// Tags are part of the record itself and are always loaded.
type Expand uint8

const (
	ExpandAuthor Expand = 1 << iota
	ExpandComments

	ExpandNone Expand = 0
	ExpandAll         = ExpandAuthor | ExpandComments
)

func (e Expand) apply(query *gorm.DB) *gorm.DB {
	query = query.Preload("Tags", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("tags.name asc")
	})
	if e&ExpandAuthor != 0 {
		query = query.Preload("Author")
	}
	if e&ExpandComments != 0 {
		query = query.
			Preload("Comments", func(tx *gorm.DB) *gorm.DB {
				return tx.Order("comments.created_at asc").Order("comments.id asc")
			}).
			Preload("Comments.Author")
	}
	return query
}

// DiscussionService wraps discussion related database operations.
type DiscussionService struct {
	db *gorm.DB
}

// DiscussionInput represents fields accepted when creating or updating a discussion.
// AuthorID is only read on create.
type DiscussionInput struct {
	Title       string
	Description string
	Category    string
	Tags        []string
	AuthorID    uint
}

// NewDiscussionService creates a DiscussionService instance.
func NewDiscussionService(gdb *gorm.DB) *DiscussionService {
	return &DiscussionService{db: gdb}
}

// Create persists a new discussion and its tags, returning it with the author expanded.
func (s *DiscussionService) Create(ctx context.Context, input DiscussionInput) (*db.Discussion, error) {
	if input.AuthorID == 0 {
		return nil, ErrAuthorRequired
	}
	title := sanitizeText(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	discussion := db.Discussion{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    normalizeCategory(input.Category),
		AuthorID:    input.AuthorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, input.Tags)
		if err != nil {
			return err
		}
		discussion.Tags = tags
		return tx.Create(&discussion).Error
	})
	if err != nil {
		return nil, err
	}

	return s.FindByID(ctx, discussion.ID, ExpandAuthor)
}

// FindAll returns every discussion, newest first.
func (s *DiscussionService) FindAll(ctx context.Context, expand Expand) ([]db.Discussion, error) {
	var discussions []db.Discussion
	if err := expand.apply(s.db.WithContext(ctx)).
		Order("created_at desc").
		Order("id desc").
		Find(&discussions).Error; err != nil {
		return nil, err
	}
	return discussions, nil
}

// FindByID fetches one discussion.
func (s *DiscussionService) FindByID(ctx context.Context, id uint, expand Expand) (*db.Discussion, error) {
	if id == 0 {
		return nil, ErrDiscussionNotFound
	}

	var discussion db.Discussion
	if err := expand.apply(s.db.WithContext(ctx)).First(&discussion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscussionNotFound
		}
		return nil, err
	}
	return &discussion, nil
}

// RecordView fetches one discussion and increments its view counter by exactly one.
// The increment is a single atomic update so concurrent reads are all counted.
func (s *DiscussionService) RecordView(ctx context.Context, id uint, expand Expand) (*db.Discussion, error) {
	discussion, err := s.FindByID(ctx, id, expand)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).
		Model(&db.Discussion{}).
		Where("id = ?", discussion.ID).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return nil, fmt.Errorf("increment views: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrDiscussionNotFound
	}

	discussion.Views++
	return discussion, nil
}

// FindByIDAndUpdate replaces title, description, category and tags of a discussion.
// Author and view count are left untouched.
func (s *DiscussionService) FindByIDAndUpdate(ctx context.Context, id uint, input DiscussionInput, expand Expand) (*db.Discussion, error) {
	if id == 0 {
		return nil, ErrDiscussionNotFound
	}
	title := sanitizeText(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var discussion db.Discussion
		if err := tx.First(&discussion, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDiscussionNotFound
			}
			return err
		}

		if err := tx.Model(&discussion).Updates(map[string]interface{}{
			"title":       title,
			"description": strings.TrimSpace(input.Description),
			"category":    normalizeCategory(input.Category),
		}).Error; err != nil {
			return err
		}

		tags, err := resolveTags(tx, input.Tags)
		if err != nil {
			return err
		}
		association := tx.Model(&discussion).Association("Tags")
		if len(tags) == 0 {
			return association.Clear()
		}
		return association.Replace(tags)
	})
	if err != nil {
		return nil, err
	}

	return s.FindByID(ctx, id, expand)
}

// FindByIDAndRemove deletes a discussion together with its comments and tag links.
// Dependents go first so foreign keys stay satisfied on every driver.
func (s *DiscussionService) FindByIDAndRemove(ctx context.Context, id uint) error {
	if id == 0 {
		return ErrDiscussionNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var discussion db.Discussion
		if err := tx.Select("id").First(&discussion, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDiscussionNotFound
			}
			return err
		}

		if err := tx.Where("discussion_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&discussion).Association("Tags").Clear(); err != nil {
			return err
		}

		result := tx.Delete(&db.Discussion{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDiscussionNotFound
		}
		return nil
	})
}

// resolveTags 查找或创建标签，返回顺序与去重后的输入一致。
func resolveTags(tx *gorm.DB, names []string) ([]db.Tag, error) {
	normalized := NormalizeTags(names)
	tags := make([]db.Tag, 0, len(normalized))
	for _, name := range normalized {
		var tag db.Tag
		if err := tx.Where(db.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// NormalizeTags trims, lower-cases and de-duplicates tag names. Each entry may
// itself hold a comma separated list.
func NormalizeTags(values []string) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			name := strings.ToLower(sanitizeText(part))
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			tags = append(tags, name)
		}
	}
	return tags
}

// sanitizeText strips markup and unescapes the remaining text.
func sanitizeText(value string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(value)))
}

func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return "general"
	}
	return category
}
