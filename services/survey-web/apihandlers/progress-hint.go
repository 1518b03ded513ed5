package apihandlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	jwthandling "github.com/iankuys/c2c-survey-app/pkg/jwt-handling"
)

const progressHintCookie = "survey_progress"

// setProgressHint remembers the last completed screen in a signed cookie.
func (h *HttpEndpoints) setProgressHint(c *gin.Context, accessKey string, completedScreen int) {
	if h.progressHint.SignKey == "" {
		return
	}
	token, err := jwthandling.GenerateProgressHintToken(h.progressHint.ExpiresIn, accessKey, completedScreen, h.progressHint.SignKey)
	if err != nil {
		slog.Error("could not sign progress hint", slog.String("accessKey", accessKey), slog.String("error", err.Error()))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(progressHintCookie, token, int(h.progressHint.ExpiresIn.Seconds()), h.basePath+"/", "", c.Request.TLS != nil, true)
}

// checkProgressHint compares the cookie with the screen the records service decided on.
// The hint never changes what is served.
func (h *HttpEndpoints) checkProgressHint(c *gin.Context, accessKey string, servedScreen int) {
	if h.progressHint.SignKey == "" {
		return
	}
	token, err := c.Cookie(progressHintCookie)
	if err != nil {
		return
	}
	claims, valid, err := jwthandling.ValidateProgressHintToken(token, h.progressHint.SignKey)
	if err != nil || !valid || claims.Subject != accessKey {
		return
	}
	if claims.CompletedScreen+1 != servedScreen {
		slog.Warn("progress hint differs from records service",
			slog.String("accessKey", accessKey),
			slog.Int("hintCompletedScreen", claims.CompletedScreen),
			slog.Int("servedScreen", servedScreen),
		)
	}
}
