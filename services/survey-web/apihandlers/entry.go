package apihandlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iankuys/c2c-survey-app/pkg/pages"
	"github.com/iankuys/c2c-survey-app/pkg/survey"
)

func (h *HttpEndpoints) index(c *gin.Context) {
	if code := c.Query("error_code"); code != "" {
		msg, _ := pages.BubbleMessage(code)
		h.render(c, http.StatusOK, pages.Index, pages.Data{ErrorMessage: msg})
		return
	}
	if code := c.Query("msg"); code != "" {
		msg, known := pages.BubbleMessage(code)
		if !known {
			h.render(c, http.StatusOK, pages.Index, pages.Data{ErrorMessage: msg})
			return
		}
		h.render(c, http.StatusOK, pages.Index, pages.Data{InfoMessage: msg})
		return
	}

	rawKey := c.Query("key")
	if rawKey == "" {
		h.render(c, http.StatusOK, pages.Index, pages.Data{})
		return
	}

	result, err := h.engine.Enter(c.Request.Context(), survey.EntryRequest{
		RawKey:    rawKey,
		Skip:      c.Query("skip") == "1",
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, survey.ErrInvalidKey) {
			h.logActivity(c, "", "index", "invalid key attempt")
			msg, _ := pages.BubbleMessage(pages.MsgBadKey)
			h.render(c, http.StatusOK, pages.Index, pages.Data{ErrorMessage: msg})
			return
		}
		h.renderServiceError(c, result.Identity.AccessKey, "index", err)
		return
	}

	key := result.Identity.AccessKey
	switch result.State {
	case survey.StateComplete:
		h.logActivity(c, key, "index", "already completed survey")
		h.redirect(c, "/thankyou", nil)
	case survey.StateSkipped:
		h.logActivity(c, key, "index", "skipped survey")
		h.redirect(c, "/thankyou", nil)
	case survey.StateAwaitingOutro:
		h.logActivity(c, key, "index", "all screens completed, continuing to outro")
		h.redirectWithKey(c, "/outro", key)
	case survey.StateNew:
		h.logActivity(c, key, "index", "started survey")
		h.redirectWithKey(c, "/intro", key)
	default:
		h.logActivity(c, key, "index", "resuming survey")
		if result.ResumeScreen <= 1 {
			h.redirectWithKey(c, "/intro", key)
			return
		}
		h.redirectToScreen(c, key, result.ResumeScreen)
	}
}

// check accepts a key or an email address from the landing page form.
func (h *HttpEndpoints) check(c *gin.Context) {
	input := strings.TrimSpace(c.PostForm("key"))
	if input == "" {
		input = strings.TrimSpace(c.Query("key"))
	}
	if input == "" {
		h.redirect(c, "/", nil)
		return
	}

	result, err := h.engine.ResolveCheckInput(c.Request.Context(), input)
	if result.ViaEmail && h.reminder != nil {
		h.sendKeyByEmail(c, input, result, err)
		return
	}
	if err != nil {
		if errors.Is(err, survey.ErrInvalidKey) {
			h.logActivity(c, "", "check", "email address did not resolve to an access key")
			h.redirectWithError(c, pages.MsgBadKey)
			return
		}
		h.renderServiceError(c, "", "check", err)
		return
	}

	if result.ViaEmail {
		h.logActivity(c, result.Key, "check", "resolved access key from email address")
	}
	h.redirect(c, "/", url.Values{"key": {result.Key}})
}

// sendKeyByEmail mails the key when the address resolves. The response is the same for
// every address so that it does not tell who is enrolled.
func (h *HttpEndpoints) sendKeyByEmail(c *gin.Context, email string, result survey.CheckResult, err error) {
	switch {
	case err == nil:
		h.logActivity(c, result.Key, "check", "sending access key reminder")
		h.reminder.SendAccessKeyReminderAsync(email, result.Key)
	case errors.Is(err, survey.ErrInvalidKey):
		h.logActivity(c, "", "check", "email address did not resolve to an access key")
	default:
		logServiceError(c, "", "check", err)
	}
	h.redirect(c, "/", url.Values{"msg": {pages.MsgKeySent}})
}
