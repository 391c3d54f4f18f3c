package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/discussboard/internal/db"
	"github.com/discussboard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Discussion handlers are chained with RedirectView or a *View stage:
// the action stores its result in the gin context and the next stage renders
// or redirects. Failures are forwarded to ErrorHandler.

// NewDiscussion renders the creation form.
func (a *API) NewDiscussion(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "discussions/new.html", gin.H{
		"page":      "new-discussions",
		"title":     "New Discussion",
		"submitted": a.takeSubmission(c),
	})
}

// CreateDiscussion persists a submitted discussion authored by the session user.
func (a *API) CreateDiscussion(c *gin.Context) {
	if c.GetBool(skipKey) {
		return
	}

	input := discussionParams(c)
	if user, ok := currentUser(c); ok {
		input.AuthorID = user.ID
	}

	discussion, err := a.discussions.Create(c.Request.Context(), input)
	if err != nil {
		a.keepSubmission(c)
		a.addFlash(c, flashError, fmt.Sprintf("Failed to create discussion because: %s.", err.Error()))
		c.Set(redirectKey, "/discussions/new")
		a.fail(c, "error creating discussion", err)
		return
	}

	a.addFlash(c, flashSuccess, fmt.Sprintf("Discussion %q created successfully!", discussion.Title))
	c.Set(redirectKey, "/discussions")
}

// RedirectView redirects to the target set by a previous stage, if any.
func (a *API) RedirectView(c *gin.Context) {
	target := c.GetString(redirectKey)
	if target == "" {
		return
	}
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
}

// IndexDiscussions loads every discussion with its author.
func (a *API) IndexDiscussions(c *gin.Context) {
	discussions, err := a.discussions.FindAll(c.Request.Context(), service.ExpandAuthor)
	if err != nil {
		a.fail(c, "error fetching discussions", err)
		return
	}
	c.Set(discussionsKey, discussions)
}

// IndexView renders the listing page.
func (a *API) IndexView(c *gin.Context) {
	discussions, _ := c.Get(discussionsKey)
	a.renderHTML(c, http.StatusOK, "discussions/index.html", gin.H{
		"page":        "discussions",
		"title":       "All Discussions",
		"discussions": discussions,
	})
}

// ShowDiscussion loads one discussion and counts the read.
func (a *API) ShowDiscussion(c *gin.Context) {
	id, err := discussionID(c)
	var discussion *db.Discussion
	if err == nil {
		discussion, err = a.discussions.RecordView(c.Request.Context(), id, service.ExpandAll)
	}
	if err != nil {
		a.fail(c, "error fetching discussion by ID", err, zap.String("id", c.Param("id")))
		return
	}
	c.Set(discussionKey, discussion)
}

// ShowView renders the detail page.
func (a *API) ShowView(c *gin.Context) {
	value, _ := c.Get(discussionKey)
	discussion, ok := value.(*db.Discussion)
	if !ok || discussion == nil {
		a.fail(c, "detail view reached without a discussion", service.ErrDiscussionNotFound)
		return
	}
	a.renderHTML(c, http.StatusOK, "discussions/show.html", gin.H{
		"page":            "discussion-details",
		"title":           "Discussion Details",
		"discussion":      discussion,
		"descriptionHTML": renderMarkdown(discussion.Description),
	})
}

// EditDiscussion renders the edit form itself; it is the last stage of its chain.
func (a *API) EditDiscussion(c *gin.Context) {
	id, err := discussionID(c)
	var discussion *db.Discussion
	if err == nil {
		discussion, err = a.discussions.FindByID(c.Request.Context(), id, service.ExpandAll)
	}
	if err != nil {
		a.fail(c, "error fetching discussion by ID", err, zap.String("id", c.Param("id")))
		return
	}

	a.renderHTML(c, http.StatusOK, "discussions/edit.html", gin.H{
		"discussion": discussion,
		"page":       "edit-discussion",
		"title":      "Edit Discussion",
		"submitted":  a.takeSubmission(c),
	})
}

// UpdateDiscussion replaces the editable fields of a discussion. The author is never rebound.
func (a *API) UpdateDiscussion(c *gin.Context) {
	if c.GetBool(skipKey) {
		return
	}

	id, err := discussionID(c)
	var discussion *db.Discussion
	if err == nil {
		discussion, err = a.discussions.FindByIDAndUpdate(c.Request.Context(), id, discussionParams(c), service.ExpandAuthor)
	}
	if err != nil {
		if !errors.Is(err, service.ErrDiscussionNotFound) {
			a.keepSubmission(c)
			a.addFlash(c, flashError, fmt.Sprintf("Failed to update discussion because: %s.", err.Error()))
			c.Set(redirectKey, formPath(c))
		}
		a.fail(c, "error updating discussion by ID", err, zap.String("id", c.Param("id")))
		return
	}

	a.addFlash(c, flashSuccess, fmt.Sprintf("Discussion %q updated successfully!", discussion.Title))
	c.Set(redirectKey, discussionPath(id))
	c.Set(discussionKey, discussion)
}

// DeleteDiscussion removes a discussion. Removal failures never abort the chain:
// a missing record is treated as already deleted, other failures are logged and
// reported through a flash message.
func (a *API) DeleteDiscussion(c *gin.Context) {
	id, err := discussionID(c)
	if err == nil {
		err = a.discussions.FindByIDAndRemove(c.Request.Context(), id)
	}

	switch {
	case err == nil:
		a.addFlash(c, flashSuccess, "Discussion deleted.")
	case errors.Is(err, service.ErrDiscussionNotFound):
		a.logger.Info("discussion already removed", zap.String("id", c.Param("id")))
	default:
		a.logger.Error("error deleting discussion by ID", zap.String("id", c.Param("id")), zap.Error(err))
		a.addFlash(c, flashError, "The discussion could not be deleted, please try again.")
	}

	c.Set(redirectKey, "/discussions")
}
