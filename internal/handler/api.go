package handler

import (
	"context"

	"github.com/discussboard/internal/db"
	"github.com/discussboard/internal/logging"
	"github.com/discussboard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// discussionStore is the record store the discussion handlers delegate to.
type discussionStore interface {
	Create(ctx context.Context, input service.DiscussionInput) (*db.Discussion, error)
	FindAll(ctx context.Context, expand service.Expand) ([]db.Discussion, error)
	FindByID(ctx context.Context, id uint, expand service.Expand) (*db.Discussion, error)
	RecordView(ctx context.Context, id uint, expand service.Expand) (*db.Discussion, error)
	FindByIDAndUpdate(ctx context.Context, id uint, input service.DiscussionInput, expand service.Expand) (*db.Discussion, error)
	FindByIDAndRemove(ctx context.Context, id uint) error
}

type userStore interface {
	Get(ctx context.Context, id uint) (*db.User, error)
	Authenticate(ctx context.Context, username, password string) (*db.User, error)
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	discussions discussionStore
	users       userStore
	logger      *zap.Logger
	categories  []string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, logger *zap.Logger, categories []string) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := registerValidators(); err != nil {
		logger.Error("failed to register form validators", zap.Error(err))
	}

	return &API{
		discussions: service.NewDiscussionService(gdb),
		users:       service.NewUserService(gdb),
		logger:      logger,
		categories:  append([]string(nil), categories...),
	}
}

// Categories returns the allowed discussion categories.
func (a *API) Categories() []string {
	return append([]string(nil), a.categories...)
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["currentUser"]; !exists {
		if user, ok := currentUser(c); ok {
			payload["currentUser"] = user
		}
	}
	if _, exists := payload["categories"]; !exists {
		payload["categories"] = a.categories
	}
	payload["flashes"] = a.consumeFlashes(c)
	payload["requestID"] = logging.RequestID(c)

	c.HTML(status, template, payload)
}

// fail logs a failed store operation and forwards the error to ErrorHandler,
// skipping the remaining stages of the chain.
func (a *API) fail(c *gin.Context, message string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String(logging.RequestIDKey, logging.RequestID(c)),
	)
	a.logger.Error(message, fields...)

	_ = c.Error(err)
	c.Abort()
}
