package main

import (
	"context"
	"fmt"

	"github.com/discussboard/internal/config"
	"github.com/discussboard/internal/db"
	"github.com/discussboard/internal/service"
	"gorm.io/gorm"
)

const (
	defaultAdminName     = "admin"
	defaultAdminPassword = "admin123"
	memberName           = "testuser"
	memberPassword       = "user123"
)

type seedReport struct {
	Users       []string
	Discussions int
	Comments    int
}

type sampleDiscussion struct {
	title       string
	description string
	category    string
	tags        []string
	comments    []string
}

var sampleDiscussions = []sampleDiscussion{
	{
		title:       "Welcome to the board",
		description: "Say hello and tell us what you are working on.\n\n**Be kind**, stay on topic.",
		category:    "announcements",
		tags:        []string{"welcome", "meta"},
		comments:    []string{"Hello everyone!", "Glad to be here."},
	},
	{
		title:       "How do you structure Go web projects?",
		description: "Do you keep handlers and services in `internal/`? Share your layouts.",
		category:    "general",
		tags:        []string{"go", "architecture"},
		comments:    []string{"cmd/ plus internal/ works well for me."},
	},
	{
		title:       "Migrations fail on a fresh database",
		description: "Running the server against an empty postgres instance stops at AutoMigrate.",
		category:    "help",
		tags:        []string{"database", "postgres"},
	},
	{
		title:       "A tiny markdown previewer",
		description: "Built with goldmark, sanitised with bluemonday. Feedback welcome!",
		category:    "showcase",
		tags:        []string{"go", "markdown"},
		comments:    []string{"Nice, does it support tables?", "Yes, GFM is enabled."},
	},
}

// seed 创建默认账号和示例讨论；已有讨论时跳过示例数据。
func seed(ctx context.Context, gdb *gorm.DB, cfg config.AppConfig) (seedReport, error) {
	var report seedReport

	adminName, adminPassword := cfg.SeedUserName, cfg.SeedUserPassword
	if adminName == "" || adminPassword == "" {
		adminName, adminPassword = defaultAdminName, defaultAdminPassword
	}

	for _, account := range [][2]string{{adminName, adminPassword}, {memberName, memberPassword}} {
		created, err := db.EnsureUser(gdb, account[0], account[1])
		if err != nil {
			return report, fmt.Errorf("ensure user %s: %w", account[0], err)
		}
		if created {
			report.Users = append(report.Users, account[0])
		}
	}

	var count int64
	if err := gdb.WithContext(ctx).Model(&db.Discussion{}).Count(&count).Error; err != nil {
		return report, err
	}
	if count > 0 {
		return report, nil
	}

	var admin, member db.User
	if err := gdb.WithContext(ctx).Where("username = ?", adminName).First(&admin).Error; err != nil {
		return report, err
	}
	if err := gdb.WithContext(ctx).Where("username = ?", memberName).First(&member).Error; err != nil {
		return report, err
	}

	discussions := service.NewDiscussionService(gdb)
	for _, sample := range sampleDiscussions {
		discussion, err := discussions.Create(ctx, service.DiscussionInput{
			Title:       sample.title,
			Description: sample.description,
			Category:    sample.category,
			Tags:        sample.tags,
			AuthorID:    admin.ID,
		})
		if err != nil {
			return report, fmt.Errorf("create discussion %q: %w", sample.title, err)
		}
		report.Discussions++

		for _, body := range sample.comments {
			comment := db.Comment{DiscussionID: discussion.ID, AuthorID: member.ID, Body: body}
			if err := gdb.WithContext(ctx).Create(&comment).Error; err != nil {
				return report, fmt.Errorf("create comment: %w", err)
			}
			report.Comments++
		}
	}

	return report, nil
}
