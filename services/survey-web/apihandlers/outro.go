package apihandlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/iankuys/c2c-survey-app/pkg/pages"
	"github.com/iankuys/c2c-survey-app/pkg/records"
	"github.com/iankuys/c2c-survey-app/pkg/survey"
)

func (h *HttpEndpoints) outroForm(c *gin.Context) {
	rawKey := c.Query("key")
	if rawKey == "" {
		h.redirect(c, "/", url.Values{"msg": {pages.MsgMissingKey}})
		return
	}

	result, err := h.engine.OutroStatus(c.Request.Context(), rawKey)
	if err != nil {
		if errors.Is(err, survey.ErrInvalidKey) {
			h.redirectWithError(c, pages.MsgBadKey)
			return
		}
		h.renderServiceError(c, result.Identity.AccessKey, "outro", err)
		return
	}

	key := result.Identity.AccessKey
	if result.Outcome == survey.OutcomeThankYou {
		h.logActivity(c, key, "outro", "already completed outro questionnaire")
		h.redirect(c, "/thankyou", nil)
		return
	}
	h.logActivity(c, key, "outro", "rendering questionnaire")
	h.renderOutro(c, http.StatusOK, key, "")
}

func (h *HttpEndpoints) outroSubmit(c *gin.Context) {
	rawKey := c.Query("key")
	if rawKey == "" {
		h.redirect(c, "/", url.Values{"msg": {pages.MsgMissingKey}})
		return
	}

	answers := survey.OutroAnswersFromForm(c.PostForm)
	result, err := h.engine.SubmitOutro(c.Request.Context(), rawKey, answers)
	key := result.Identity.AccessKey
	if err != nil {
		switch {
		case errors.Is(err, survey.ErrInvalidKey):
			h.redirectWithError(c, pages.MsgBadKey)
		case errors.Is(err, survey.ErrIncompleteOutro):
			h.logActivity(c, key, "outro", "incomplete questionnaire submitted")
			msg, _ := pages.BubbleMessage(pages.MsgIncompleteOutro)
			h.renderOutro(c, http.StatusBadRequest, key, msg)
		default:
			h.renderServiceError(c, key, "outro", err)
		}
		return
	}

	h.logActivity(c, key, "outro", "outro submitted")
	h.redirect(c, "/thankyou", nil)
}

func (h *HttpEndpoints) renderOutro(c *gin.Context, status int, accessKey string, errorMessage string) {
	h.render(c, status, pages.Outro, pages.Data{
		Key:          accessKey,
		ErrorMessage: errorMessage,
		MaxScreens:   h.engine.MaxScreens(),
		Questions:    h.outroContent.QuestionList(records.OutroAnswerField),
	})
}
