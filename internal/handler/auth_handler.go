package handler

import (
	"errors"
	"net/http"

	"github.com/discussboard/internal/db"
	"github.com/discussboard/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func currentUser(c *gin.Context) (*db.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*db.User)
	return user, ok && user != nil
}

// CurrentUser 从会话中加载已登录用户并放入请求上下文。
func (a *API) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserIDKey).(uint)
		if !ok || userID == 0 {
			c.Next()
			return
		}

		user, err := a.users.Get(c.Request.Context(), userID)
		switch {
		case err == nil:
			c.Set(currentUserKey, user)
		case errors.Is(err, service.ErrUserNotFound):
			// 账号已被删除，丢弃失效的会话
			session.Delete(sessionUserIDKey)
			if saveErr := session.Save(); saveErr != nil {
				a.logger.Warn("failed to drop stale session", zap.Error(saveErr))
			}
		default:
			a.logger.Error("failed to load session user", zap.Uint("user_id", userID), zap.Error(err))
		}
		c.Next()
	}
}

// AuthRequired 是一个简单的认证中间件
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUser(c); !ok {
			a.addFlash(c, flashError, "Please log in to continue.")
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "auth/login.html", gin.H{
		"page":  "login",
		"title": "Log In",
	})
}

// Login 校验用户名与密码，成功后写入会话
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := a.users.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			a.logger.Error("failed to authenticate user", zap.String("username", username), zap.Error(err))
		}
		a.addFlash(c, flashError, "Invalid username or password.")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	if err := session.Save(); err != nil {
		a.logger.Error("failed to save session", zap.Uint("user_id", user.ID), zap.Error(err))
		a.addFlash(c, flashError, "Could not start your session, please try again.")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	a.addFlash(c, flashSuccess, "Welcome back, "+user.Name()+"!")
	c.Redirect(http.StatusSeeOther, "/discussions")
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		a.logger.Warn("failed to clear session", zap.Error(err))
	}
	a.addFlash(c, flashSuccess, "You have been logged out.")
	c.Redirect(http.StatusSeeOther, "/login")
}
