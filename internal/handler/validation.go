package handler

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/discussboard/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.uber.org/zap"
)

const (
	maxTags      = 10
	maxTagLength = 32
)

type discussionForm struct {
	Title       string   `form:"title" binding:"notblank,max=200"`
	Description string   `form:"description" binding:"notblank,max=20000"`
	Category    string   `form:"category" binding:"max=32"`
	Tags        []string `form:"tags"`
}

var (
	registerOnce sync.Once
	registerErr  error
)

// formRules are the custom tags used by discussionForm.
var formRules = map[string]validator.Func{
	"notblank": validators.NotBlank,
}

// registerValidators installs formRules on gin's binding validator once per process.
func registerValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
			return
		}
		registerErr = registerRules(v, formRules)
	})
	return registerErr
}

func registerRules(v *validator.Validate, rules map[string]validator.Func) error {
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register validation %q: %w", tag, err)
		}
	}
	return nil
}

// ValidateDiscussion checks a submitted discussion form. Invalid submissions are
// flagged with skip so the create/update stage defers to RedirectView, which sends
// the user back to the form with the collected messages.
func (a *API) ValidateDiscussion(c *gin.Context) {
	messages := a.validateDiscussionForm(c)
	if len(messages) == 0 {
		return
	}

	a.keepSubmission(c)
	for _, message := range messages {
		a.addFlash(c, flashError, message)
	}
	c.Set(skipKey, true)
	c.Set(redirectKey, formPath(c))
}

func (a *API) validateDiscussionForm(c *gin.Context) []string {
	if err := registerValidators(); err != nil {
		a.logger.Error("discussion form rules unavailable", zap.Error(err))
		return []string{"The submitted form could not be checked, please try again later."}
	}

	var form discussionForm
	var messages []string

	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return []string{"The submitted form could not be read."}
		}
		for _, fe := range fieldErrors {
			messages = append(messages, describeFieldError(fe))
		}
	}

	category := strings.ToLower(strings.TrimSpace(form.Category))
	if category != "" && len(a.categories) > 0 && !slices.Contains(a.categories, category) {
		messages = append(messages, fmt.Sprintf("Category must be one of: %s.", strings.Join(a.categories, ", ")))
	}

	tags := service.NormalizeTags(form.Tags)
	if len(tags) > maxTags {
		messages = append(messages, fmt.Sprintf("A discussion can have at most %d tags.", maxTags))
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > maxTagLength {
			messages = append(messages, fmt.Sprintf("Tag %q must be at most %d characters.", tag, maxTagLength))
		}
	}

	return messages
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "notblank", "required":
		return fmt.Sprintf("%s is required.", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}
