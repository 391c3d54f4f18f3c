package handler

import (
	"errors"
	"net/http"

	"github.com/discussboard/internal/service"
	"github.com/gin-gonic/gin"
)

// ErrorHandler is the final stage of every chain. Errors forwarded with c.Error
// are turned into a response unless an earlier stage already wrote one: a pending
// redirect target wins, otherwise the error page is rendered.
func (a *API) ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		if target := c.GetString(redirectKey); target != "" {
			c.Redirect(http.StatusSeeOther, target)
			return
		}

		status := http.StatusInternalServerError
		message := "Something went wrong while handling your request."
		if errors.Is(c.Errors.Last().Err, service.ErrDiscussionNotFound) {
			status = http.StatusNotFound
			message = "The discussion you are looking for does not exist."
		}

		a.renderHTML(c, status, "pages/error.html", gin.H{
			"page":    "error",
			"title":   http.StatusText(status),
			"status":  status,
			"message": message,
		})
	}
}

// NotFound renders the error page for unknown routes.
func (a *API) NotFound(c *gin.Context) {
	a.renderHTML(c, http.StatusNotFound, "pages/error.html", gin.H{
		"page":    "error",
		"title":   http.StatusText(http.StatusNotFound),
		"status":  http.StatusNotFound,
		"message": "The page you are looking for does not exist.",
	})
}
