package apihandlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	mw "github.com/iankuys/c2c-survey-app/pkg/apihelpers/middlewares"
	activitylog "github.com/iankuys/c2c-survey-app/pkg/db/activity-log"
	"github.com/iankuys/c2c-survey-app/pkg/pages"
	"github.com/iankuys/c2c-survey-app/pkg/survey"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ActivityStore persists participant activity lines.
type ActivityStore interface {
	AddEntry(entry activitylog.ActivityEntry) error
}

// AccessKeyReminder mails a participant their key.
type AccessKeyReminder interface {
	SendAccessKeyReminderAsync(to string, accessKey string)
}

type ProgressHintConfig struct {
	SignKey   string
	ExpiresIn time.Duration
}

type HttpEndpoints struct {
	engine        *survey.Engine
	outroContent  pages.OutroContent
	basePath      string
	introVideoURL string

	keyAttempts   *mw.ClientRateLimiter
	reminder      AccessKeyReminder
	activityStore ActivityStore
	progressHint  ProgressHintConfig
}

func NewHTTPHandler(
	engine *survey.Engine,
	outroContent pages.OutroContent,
	basePath string,
	introVideoURL string,
	keyAttempts *mw.ClientRateLimiter,
	reminder AccessKeyReminder,
	activityStore ActivityStore,
	progressHint ProgressHintConfig,
) *HttpEndpoints {
	return &HttpEndpoints{
		engine:        engine,
		outroContent:  outroContent,
		basePath:      basePath,
		introVideoURL: introVideoURL,
		keyAttempts:   keyAttempts,
		reminder:      reminder,
		activityStore: activityStore,
		progressHint:  progressHint,
	}
}

func (h *HttpEndpoints) AddRoutes(rg *gin.RouterGroup) {
	keyAttempts := []gin.HandlerFunc{}
	if h.keyAttempts != nil {
		keyAttempts = append(keyAttempts, mw.LimitKeyAttempts(h.keyAttempts, h.tooManyAttempts))
	}

	rg.GET("/", append(keyAttempts, h.index)...)
	rg.GET("/check", append(keyAttempts, h.check)...)
	rg.POST("/check", append(keyAttempts, h.check)...)

	rg.GET("/intro", h.intro)
	rg.GET("/videos", h.videos)
	rg.POST("/video_selected", mw.RequirePayload(), h.videoSelected)

	rg.GET("/outro", h.outroForm)
	rg.POST("/outro", h.outroSubmit)
	rg.GET("/thankyou", h.thankYou)
}

// location builds a URL below the base path.
func (h *HttpEndpoints) location(path string, query url.Values) string {
	loc := h.basePath + path
	if len(query) > 0 {
		loc += "?" + query.Encode()
	}
	return loc
}

func (h *HttpEndpoints) redirect(c *gin.Context, path string, query url.Values) {
	c.Redirect(http.StatusFound, h.location(path, query))
}

func (h *HttpEndpoints) redirectWithKey(c *gin.Context, path string, accessKey string) {
	h.redirect(c, path, url.Values{"key": {accessKey}})
}

func (h *HttpEndpoints) redirectToScreen(c *gin.Context, accessKey string, screen int) {
	h.redirect(c, "/videos", url.Values{"key": {accessKey}, "screen": {strconv.Itoa(screen)}})
}

func (h *HttpEndpoints) redirectWithError(c *gin.Context, code string) {
	h.redirect(c, "/", url.Values{"error_code": {code}})
}

func (h *HttpEndpoints) render(c *gin.Context, status int, name string, data pages.Data) {
	data.BasePath = h.basePath
	c.HTML(status, name, data)
}

func (h *HttpEndpoints) thankYou(c *gin.Context) {
	h.render(c, http.StatusOK, pages.ThankYou, pages.Data{})
}

func (h *HttpEndpoints) tooManyAttempts(c *gin.Context) {
	msg, _ := pages.BubbleMessage(pages.MsgTooManyAttempts)
	h.render(c, http.StatusTooManyRequests, pages.Error, pages.Data{ErrorMessage: msg})
}

func (h *HttpEndpoints) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, pages.NotFound, pages.Data{})
}
