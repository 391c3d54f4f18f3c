package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/discussboard/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validateForm(t *testing.T, api *API, form url.Values) []string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	req := httptest.NewRequest(http.MethodPost, "/discussions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	return api.validateDiscussionForm(c)
}

func TestValidateDiscussionForm(t *testing.T) {
	api := &API{logger: zap.NewNop(), categories: config.DefaultCategories}

	manyTags := make([]string, 0, maxTags+1)
	for i := 0; i <= maxTags; i++ {
		manyTags = append(manyTags, "tag"+string(rune('a'+i)))
	}

	tests := []struct {
		name string
		form url.Values
		want []string
	}{
		{
			name: "valid",
			form: discussionValues("Hello", "World", "general", "x"),
		},
		{
			name: "empty category falls back",
			form: discussionValues("Hello", "World", ""),
		},
		{
			name: "category is case insensitive",
			form: discussionValues("Hello", "World", " Help "),
		},
		{
			name: "blank fields",
			form: discussionValues(" ", "\n", "general"),
			want: []string{"Title is required.", "Description is required."},
		},
		{
			name: "title too long",
			form: discussionValues(strings.Repeat("a", 201), "World", "general"),
			want: []string{"Title must be at most 200 characters."},
		},
		{
			name: "unknown category",
			form: discussionValues("Hello", "World", "random"),
			want: []string{"Category must be one of: general, announcements, help, showcase."},
		},
		{
			name: "too many tags",
			form: discussionValues("Hello", "World", "general", manyTags...),
			want: []string{"A discussion can have at most 10 tags."},
		},
		{
			name: "tag too long",
			form: discussionValues("Hello", "World", "general", strings.Repeat("t", 33)),
			want: []string{`Tag "` + strings.Repeat("t", 33) + `" must be at most 32 characters.`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validateForm(t, api, tt.form))
		})
	}
}

func TestValidateDiscussionFlagsSkip(t *testing.T) {
	fx := newHandlerFixture(t)

	var skipped bool
	var target string
	r := newTestEngine(fx.api, fx.pages)
	r.POST("/check", fx.api.ValidateDiscussion, func(c *gin.Context) {
		skipped = c.GetBool(skipKey)
		target = c.GetString(redirectKey)
		c.Status(http.StatusNoContent)
	})
	client := newTestClient(t, r)

	client.do(http.MethodPost, "/check", discussionValues("", "World", "general"))
	assert.True(t, skipped)
	assert.Equal(t, "/discussions/new", target)

	client.do(http.MethodPost, "/check", discussionValues("Hello", "World", "general"))
	assert.False(t, skipped)
	assert.Empty(t, target)
}

func TestRegisterRules(t *testing.T) {
	v := validator.New()

	require.NoError(t, registerRules(v, formRules))
	assert.Error(t, v.Var(" \t", "notblank"))
	assert.NoError(t, v.Var("text", "notblank"))

	err := registerRules(validator.New(), map[string]validator.Func{"": validators.NotBlank})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `register validation ""`)

	assert.NoError(t, registerValidators())
}
