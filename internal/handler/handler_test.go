package handler

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/discussboard/internal/config"
	"github.com/discussboard/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "secret-password"

// renderedPage is what a handler asked the HTML renderer to draw.
type renderedPage struct {
	Name string
	Data gin.H
}

// pageRecorder replaces the template renderer: it writes the template name as the
// body and remembers the data of every page.
type pageRecorder struct {
	mu    sync.Mutex
	pages []renderedPage
}

func (p *pageRecorder) Instance(name string, data any) render.Render {
	payload, _ := data.(gin.H)
	p.mu.Lock()
	p.pages = append(p.pages, renderedPage{Name: name, Data: payload})
	p.mu.Unlock()
	return stubHTML{name: name}
}

func (p *pageRecorder) last(t *testing.T) renderedPage {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.pages, "no page rendered")
	return p.pages[len(p.pages)-1]
}

type stubHTML struct {
	name string
}

func (s stubHTML) Render(w http.ResponseWriter) error {
	s.WriteContentType(w)
	_, err := io.WriteString(w, s.name)
	return err
}

func (stubHTML) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, username string) db.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := db.User{Username: username, Password: string(hashed)}
	require.NoError(t, gdb.Create(&user).Error)
	return user
}

// newTestEngine wires the discussion routes the same way the router does.
func newTestEngine(api *API, pages *pageRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.HTMLRender = pages
	r.Use(Sessions("test-secret"))
	r.Use(api.CurrentUser())
	r.Use(api.ErrorHandler())

	r.GET("/login", api.ShowLoginPage)
	r.POST("/login", api.Login)
	r.POST("/logout", api.Logout)

	auth := api.AuthRequired()
	r.GET("/discussions", api.IndexDiscussions, api.IndexView)
	r.GET("/discussions/new", auth, api.NewDiscussion)
	r.POST("/discussions", auth, api.ValidateDiscussion, api.CreateDiscussion, api.RedirectView)
	r.GET("/discussions/:id", api.ShowDiscussion, api.ShowView)
	r.GET("/discussions/:id/edit", auth, api.EditDiscussion)
	r.PUT("/discussions/:id", auth, api.ValidateDiscussion, api.UpdateDiscussion, api.RedirectView)
	r.DELETE("/discussions/:id", auth, api.DeleteDiscussion, api.RedirectView)
	r.NoRoute(api.NotFound)
	return r
}

// testClient keeps session cookies between requests.
type testClient struct {
	t      *testing.T
	engine *gin.Engine
	jar    *cookiejar.Jar
}

func newTestClient(t *testing.T, engine *gin.Engine) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, engine: engine, jar: jar}
}

func (tc *testClient) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	tc.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, cookie := range tc.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	tc.engine.ServeHTTP(w, req)
	tc.jar.SetCookies(req.URL, w.Result().Cookies())
	return w
}

func (tc *testClient) login(username string) {
	tc.t.Helper()
	w := tc.do(http.MethodPost, "/login", url.Values{"username": {username}, "password": {testPassword}})
	require.Equal(tc.t, http.StatusSeeOther, w.Code)
	require.Equal(tc.t, "/discussions", w.Header().Get("Location"))
}

type handlerFixture struct {
	db     *gorm.DB
	api    *API
	pages  *pageRecorder
	client *testClient
	user   db.User
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	gdb := setupHandlerTestDB(t)
	user := createTestUser(t, gdb, "alice")
	api := NewAPI(gdb, zap.NewNop(), config.DefaultCategories)
	pages := &pageRecorder{}
	client := newTestClient(t, newTestEngine(api, pages))

	return &handlerFixture{db: gdb, api: api, pages: pages, client: client, user: user}
}

// flashesOf returns the flash messages handed to the given page.
func flashesOf(t *testing.T, page renderedPage, kind string) []string {
	t.Helper()
	flashes, ok := page.Data["flashes"].(map[string][]string)
	require.True(t, ok, "page %s has no flashes", page.Name)
	return flashes[kind]
}
