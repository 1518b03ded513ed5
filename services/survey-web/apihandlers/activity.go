package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	mw "github.com/iankuys/c2c-survey-app/pkg/apihelpers/middlewares"
	activitylog "github.com/iankuys/c2c-survey-app/pkg/db/activity-log"
	"github.com/iankuys/c2c-survey-app/pkg/pages"
	"github.com/iankuys/c2c-survey-app/pkg/redcap"
)

// logActivity writes one line of the participant trail and, if configured, stores it.
func (h *HttpEndpoints) logActivity(c *gin.Context, accessKey string, src string, message string) {
	requestID := mw.GetRequestID(c)
	slog.Info(message,
		slog.String("accessKey", accessKey),
		slog.String("src", src),
		slog.String("requestID", requestID),
	)

	if h.activityStore == nil {
		return
	}
	err := h.activityStore.AddEntry(activitylog.ActivityEntry{
		Time:      time.Now(),
		AccessKey: accessKey,
		Source:    src,
		Message:   message,
		RequestID: requestID,
	})
	if err != nil {
		slog.Error("could not store activity", slog.String("accessKey", accessKey), slog.String("error", err.Error()))
	}
}

// renderServiceError answers a failed records service call with the error page.
func (h *HttpEndpoints) renderServiceError(c *gin.Context, accessKey string, src string, err error) {
	logServiceError(c, accessKey, src, err)
	msg, _ := pages.BubbleMessage(pages.MsgUnknown)
	h.render(c, http.StatusInternalServerError, pages.Error, pages.Data{Key: accessKey, ErrorMessage: msg})
}

func logServiceError(c *gin.Context, accessKey string, src string, err error) {
	attrs := []any{
		slog.String("accessKey", accessKey),
		slog.String("src", src),
		slog.String("requestID", mw.GetRequestID(c)),
		slog.String("error", err.Error()),
	}
	var serviceErr *redcap.ServiceError
	if errors.As(err, &serviceErr) {
		attrs = append(attrs, slog.String("operation", serviceErr.Operation))
	}
	slog.Error("records service request failed", attrs...)
}
