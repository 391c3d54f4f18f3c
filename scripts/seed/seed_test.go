package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/discussboard/internal/config"
	"github.com/discussboard/internal/db"
	"github.com/discussboard/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:seed-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func TestSeedCreatesSampleData(t *testing.T) {
	gdb := setupSeedTestDB(t)
	ctx := context.Background()

	report, err := seed(ctx, gdb, config.AppConfig{SeedUserName: "owner", SeedUserPassword: "pw"})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if len(report.Users) != 2 || report.Users[0] != "owner" {
		t.Fatalf("unexpected users created: %v", report.Users)
	}
	if report.Discussions != len(sampleDiscussions) {
		t.Fatalf("expected %d discussions, got %d", len(sampleDiscussions), report.Discussions)
	}

	expectedComments := 0
	for _, sample := range sampleDiscussions {
		expectedComments += len(sample.comments)
	}
	if report.Comments != expectedComments {
		t.Fatalf("expected %d comments, got %d", expectedComments, report.Comments)
	}

	all, err := service.NewDiscussionService(gdb).FindAll(ctx, service.ExpandAll)
	if err != nil {
		t.Fatalf("failed to list discussions: %v", err)
	}
	if len(all) != len(sampleDiscussions) {
		t.Fatalf("expected %d stored discussions, got %d", len(sampleDiscussions), len(all))
	}
	for _, discussion := range all {
		if discussion.Author.Username != "owner" {
			t.Fatalf("discussion %q has author %q", discussion.Title, discussion.Author.Username)
		}
		for _, comment := range discussion.Comments {
			if comment.Author.Username != memberName {
				t.Fatalf("comment %q has author %q", comment.Body, comment.Author.Username)
			}
		}
	}
}

func TestSeedIsRepeatable(t *testing.T) {
	gdb := setupSeedTestDB(t)
	ctx := context.Background()

	if _, err := seed(ctx, gdb, config.AppConfig{}); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	report, err := seed(ctx, gdb, config.AppConfig{})
	if err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if len(report.Users) != 0 || report.Discussions != 0 || report.Comments != 0 {
		t.Fatalf("expected nothing new on second run, got %+v", report)
	}

	var admin db.User
	if err := gdb.Where("username = ?", defaultAdminName).First(&admin).Error; err != nil {
		t.Fatalf("default admin missing: %v", err)
	}
}
