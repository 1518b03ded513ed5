package apihandlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iankuys/c2c-survey-app/pkg/pages"
	"github.com/iankuys/c2c-survey-app/pkg/survey"
)

func (h *HttpEndpoints) intro(c *gin.Context) {
	rawKey := c.Query("key")
	if rawKey == "" {
		h.redirectWithError(c, pages.MsgMissingKey)
		return
	}

	result, err := h.engine.RecordIntroView(c.Request.Context(), rawKey)
	if err != nil {
		if errors.Is(err, survey.ErrInvalidKey) {
			h.redirectWithError(c, pages.MsgBadKey)
			return
		}
		h.renderServiceError(c, result.Identity.AccessKey, "intro", err)
		return
	}

	key := result.Identity.AccessKey
	if result.Outcome == survey.OutcomeThankYou {
		h.redirect(c, "/thankyou", nil)
		return
	}
	h.logActivity(c, key, "intro", "rendering intro")
	h.render(c, http.StatusOK, pages.Intro, pages.Data{Key: key, IntroVideoURL: h.introVideoURL})
}

func (h *HttpEndpoints) videos(c *gin.Context) {
	rawKey := c.Query("key")
	if rawKey == "" {
		h.redirectWithError(c, pages.MsgMissingKey)
		return
	}

	result, err := h.engine.ServeScreen(c.Request.Context(), rawKey, c.Query("screen"))
	key := result.Identity.AccessKey
	if err != nil {
		switch {
		case errors.Is(err, survey.ErrInvalidKey):
			h.redirectWithError(c, pages.MsgBadKey)
		case errors.Is(err, survey.ErrMalformedScreenRequest):
			h.logActivity(c, key, "videos", "malformed screen request")
			msg, _ := pages.BubbleMessage(pages.MsgScreenRequest)
			h.render(c, http.StatusBadRequest, pages.Error, pages.Data{Key: key, ErrorMessage: msg})
		case errors.Is(err, survey.ErrScreenUnavailable):
			slog.Error("screen cannot be served", slog.String("accessKey", key), slog.String("error", err.Error()))
			msg, _ := pages.BubbleMessage(pages.MsgScreenLoad)
			h.render(c, http.StatusInternalServerError, pages.Error, pages.Data{Key: key, ErrorMessage: msg})
		default:
			h.renderServiceError(c, key, "videos", err)
		}
		return
	}

	switch result.Outcome {
	case survey.OutcomeThankYou:
		h.redirect(c, "/thankyou", nil)
	case survey.OutcomeOutro:
		h.redirectWithKey(c, "/outro", key)
	case survey.OutcomeFallback:
		h.logActivity(c, key, "videos", fmt.Sprintf("requested screen %d is beyond the last screen", result.Requested))
		msg, _ := pages.BubbleMessage(pages.MsgVideoLoad)
		h.render(c, http.StatusOK, pages.Error, pages.Data{Key: key, ErrorMessage: msg})
	default:
		view := result.View
		h.checkProgressHint(c, key, view.Screen)
		h.logActivity(c, key, "videos", fmt.Sprintf("starting screen %d (videos %d & %d) [%s %s]",
			view.Screen, view.VideoA.Position, view.VideoB.Position, view.VideoA.ID, view.VideoB.ID))
		h.render(c, http.StatusOK, pages.Videos, pages.Data{
			Key:        key,
			Screen:     view.Screen,
			MaxScreens: view.MaxScreens,
			VideoA:     pages.Video(view.VideoA),
			VideoB:     pages.Video(view.VideoB),
		})
	}
}

// SelectionRequest is posted by the video page once a video was chosen.
type SelectionRequest struct {
	UserAgent        string `json:"user_agent"`
	ScreenTimeStart  string `json:"screen_time_start"`
	ScreenTimeEnd    string `json:"screen_time_end"`
	VideoAWatchCount int    `json:"vidA_watch_count"`
	VideoBWatchCount int    `json:"vidB_watch_count"`
	SelectedVideoID  string `json:"selected_vid_id" binding:"required"`
	SelectedVideoPos int    `json:"selected_vid_position"`
}

type SelectionResponse struct {
	Next   string `json:"next"`
	Screen int    `json:"screen,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (h *HttpEndpoints) videoSelected(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("invalid selection payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, SelectionResponse{Error: "invalid payload"})
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Request.UserAgent()
	}
	result, err := h.engine.RecordSelection(c.Request.Context(), c.Query("key"), survey.Selection{
		VideoID:          req.SelectedVideoID,
		Position:         req.SelectedVideoPos,
		ScreenStart:      req.ScreenTimeStart,
		ScreenEnd:        req.ScreenTimeEnd,
		VideoAWatchCount: req.VideoAWatchCount,
		VideoBWatchCount: req.VideoBWatchCount,
		UserAgent:        userAgent,
	})
	key := result.Identity.AccessKey
	if err != nil {
		switch {
		case errors.Is(err, survey.ErrInvalidKey):
			c.JSON(http.StatusUnauthorized, SelectionResponse{
				Next:  h.location("/", url.Values{"error_code": {pages.MsgBadKey}}),
				Error: "invalid key",
			})
		case errors.Is(err, survey.ErrInvalidSelection):
			slog.Warn("rejected selection", slog.String("accessKey", key), slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, SelectionResponse{Error: "invalid selection"})
		case errors.Is(err, survey.ErrScreenUnavailable):
			slog.Error("selection for unavailable screen", slog.String("accessKey", key), slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, SelectionResponse{
				Next:  h.location("/", url.Values{"error_code": {pages.MsgScreenLoad}}),
				Error: "screen unavailable",
			})
		default:
			logServiceError(c, key, "video_selected", err)
			c.JSON(http.StatusInternalServerError, SelectionResponse{Error: "records service unavailable"})
		}
		return
	}

	resp := SelectionResponse{Screen: result.Screen}
	switch result.Outcome {
	case survey.OutcomeThankYou:
		resp.Next = h.location("/thankyou", nil)
	case survey.OutcomeOutro:
		resp.Next = h.location("/outro", url.Values{"key": {key}})
	default:
		resp.Next = h.location("/videos", url.Values{"key": {key}, "screen": {strconv.Itoa(result.NextScreen)}})
	}
	if result.Screen > 0 {
		h.logActivity(c, key, "video_selected", fmt.Sprintf("selected video %s on screen %d", req.SelectedVideoID, result.Screen))
		h.setProgressHint(c, key, result.Screen)
	}
	c.JSON(http.StatusOK, resp)
}
