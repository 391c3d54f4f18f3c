package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/discussboard/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRejectsBadCredentials(t *testing.T) {
	fx := newHandlerFixture(t)

	for _, form := range []url.Values{
		{"username": {"alice"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {testPassword}},
		{"username": {""}, "password": {""}},
	} {
		w := fx.client.do(http.MethodPost, "/login", form)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	}

	fx.client.do(http.MethodGet, "/login", nil)
	page := fx.pages.last(t)
	assert.Len(t, flashesOf(t, page, flashError), 3)
	assert.Nil(t, page.Data["currentUser"])

	w := fx.client.do(http.MethodGet, "/discussions/new", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestLoginStoresUserInSession(t *testing.T) {
	fx := newHandlerFixture(t)
	fx.client.login("alice")

	fx.client.do(http.MethodGet, "/discussions", nil)
	page := fx.pages.last(t)
	assert.Equal(t, []string{"Welcome back, alice!"}, flashesOf(t, page, flashSuccess))
	user, ok := page.Data["currentUser"].(*db.User)
	require.True(t, ok)
	assert.Equal(t, fx.user.ID, user.ID)

	// flashes are shown once
	fx.client.do(http.MethodGet, "/discussions", nil)
	assert.Empty(t, flashesOf(t, fx.pages.last(t), flashSuccess))
}

func TestLogoutClearsSession(t *testing.T) {
	fx := newHandlerFixture(t)
	fx.client.login("alice")

	w := fx.client.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = fx.client.do(http.MethodGet, "/discussions/new", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestCurrentUserDropsDeletedAccount(t *testing.T) {
	fx := newHandlerFixture(t)
	fx.client.login("alice")

	require.NoError(t, fx.db.Unscoped().Delete(&db.User{}, fx.user.ID).Error)

	w := fx.client.do(http.MethodGet, "/discussions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, fx.pages.last(t).Data["currentUser"])

	w = fx.client.do(http.MethodGet, "/discussions/new", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}
