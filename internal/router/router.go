package router

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/discussboard/internal/handler"
	"github.com/discussboard/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options 汇总路由装配所需的配置。
type Options struct {
	SessionSecret      string
	TemplateGlob       string
	StaticDir          string
	RateLimitPerMinute int
	Categories         []string
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, logger *zap.Logger, opts Options) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := handler.NewAPI(gdb, logger, opts.Categories)

	r := gin.New()
	r.Use(logging.RequestLogger(logger))
	r.Use(logging.Recovery(logger))
	r.Use(handler.Sessions(opts.SessionSecret))
	r.Use(api.CurrentUser())
	r.Use(api.ErrorHandler())

	// 加载模板并添加自定义函数
	r.SetFuncMap(template.FuncMap{
		"formatTime": formatTime,
		"join":       strings.Join,
	})
	if opts.TemplateGlob != "" {
		r.LoadHTMLGlob(opts.TemplateGlob)
	}

	if opts.StaticDir != "" {
		r.Static("/static", opts.StaticDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/discussions")
	})

	r.GET("/login", api.ShowLoginPage)
	r.POST("/login", api.Login)
	r.POST("/logout", api.Logout)

	limit := api.RateLimit(opts.RateLimitPerMinute)
	auth := api.AuthRequired()

	discussions := r.Group("/discussions")
	{
		discussions.GET("", api.IndexDiscussions, api.IndexView)
		discussions.GET("/new", auth, api.NewDiscussion)
		discussions.POST("", auth, limit, api.ValidateDiscussion, api.CreateDiscussion, api.RedirectView)
		discussions.GET("/:id", api.ShowDiscussion, api.ShowView)
		discussions.GET("/:id/edit", auth, api.EditDiscussion)

		update := []gin.HandlerFunc{auth, limit, api.ValidateDiscussion, api.UpdateDiscussion, api.RedirectView}
		discussions.PUT("/:id", update...)
		discussions.PATCH("/:id", update...)
		discussions.DELETE("/:id", auth, limit, api.DeleteDiscussion, api.RedirectView)
	}

	r.NoRoute(api.NotFound)

	return r
}

// formatTime 以本地时区输出页面上使用的时间格式。
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format("2006-01-02 15:04")
}
