package handler

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// SessionName is the cookie holding the signed session.
	SessionName = "discussboard_session"

	sessionUserIDKey = "user_id"

	flashSuccess = "success"
	flashError   = "error"

	submissionPrefix = "submitted_"
)

// submissionLimits caps each carried form field in bytes so the signed cookie
// stays under the browser limit. A description above its limit is not carried.
var submissionLimits = map[string]int{
	"title":       400,
	"category":    64,
	"tags":        320,
	"description": 1200,
}

var submissionFields = []string{"title", "description", "category", "tags"}

// Keys shared between the stages of a request chain.
const (
	redirectKey    = "redirect"
	discussionKey  = "discussion"
	discussionsKey = "discussions"
	skipKey        = "skip"
	currentUserKey = "currentUser"
)

// Sessions installs the cookie-backed session store used for login state and flash messages.
func Sessions(secret string) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(SessionName, store)
}

func hasSession(c *gin.Context) bool {
	_, ok := c.Get(sessions.DefaultKey)
	return ok
}

// addFlash queues a one-shot message for the next rendered page.
func (a *API) addFlash(c *gin.Context, kind, message string) {
	if !hasSession(c) {
		return
	}
	session := sessions.Default(c)
	session.AddFlash(message, kind)
	if err := session.Save(); err != nil {
		a.logger.Warn("failed to save flash message", zap.String("kind", kind), zap.Error(err))
	}
}

// consumeFlashes drains queued messages so each one is shown exactly once.
func (a *API) consumeFlashes(c *gin.Context) map[string][]string {
	flashes := map[string][]string{}
	if !hasSession(c) {
		return flashes
	}

	session := sessions.Default(c)
	drained := false
	for _, kind := range []string{flashSuccess, flashError} {
		values := session.Flashes(kind)
		if len(values) == 0 {
			continue
		}
		drained = true
		for _, value := range values {
			if message, ok := value.(string); ok {
				flashes[kind] = append(flashes[kind], message)
			}
		}
	}

	if drained {
		if err := session.Save(); err != nil {
			a.logger.Warn("failed to clear flash messages", zap.Error(err))
		}
	}
	return flashes
}

// keepSubmission stores the posted discussion fields so the form can be
// refilled after a redirect.
func (a *API) keepSubmission(c *gin.Context) {
	if !hasSession(c) {
		return
	}

	posted := map[string]string{
		"title":       c.PostForm("title"),
		"description": c.PostForm("description"),
		"category":    c.PostForm("category"),
		"tags":        strings.Join(c.PostFormArray("tags"), ", "),
	}

	session := sessions.Default(c)
	for _, field := range submissionFields {
		value := posted[field]
		limit := submissionLimits[field]
		if len(value) > limit {
			if field == "description" {
				continue
			}
			value = truncateBytes(value, limit)
		}
		session.AddFlash(value, submissionPrefix+field)
	}
	if err := session.Save(); err != nil {
		a.logger.Warn("failed to keep submitted form", zap.Error(err))
	}
}

// takeSubmission drains the fields stored by keepSubmission.
func (a *API) takeSubmission(c *gin.Context) map[string]string {
	if !hasSession(c) {
		return nil
	}

	session := sessions.Default(c)
	submitted := map[string]string{}
	for _, field := range submissionFields {
		values := session.Flashes(submissionPrefix + field)
		if len(values) == 0 {
			continue
		}
		if value, ok := values[len(values)-1].(string); ok {
			submitted[field] = value
		}
	}
	if len(submitted) == 0 {
		return nil
	}

	if err := session.Save(); err != nil {
		a.logger.Warn("failed to clear submitted form", zap.Error(err))
	}
	return submitted
}

func truncateBytes(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
