package emailsending

import (
	"errors"
	"log/slog"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/iankuys/c2c-survey-app/pkg/messaging/templates"
	smtp_client "github.com/iankuys/c2c-survey-app/pkg/smtp-client"
	"github.com/jordan-wright/email"
)

const (
	ReminderTemplateName = "access-key-reminder"

	DefaultReminderSubject  = "Your survey access key"
	DefaultReminderTemplate = `<p>Hello,</p>
<p>you asked us to send you your personal access key for the survey: <b>{{.access_key}}</b></p>
<p>You can continue the survey here: <a href="{{.survey_link}}">{{.survey_link}}</a></p>
<p>If you did not request this email, you can ignore it.</p>`
)

// Mailer hands a prepared message to a delivery channel.
type Mailer interface {
	SendMail(e *email.Email, overrides *smtp_client.HeaderOverrides) error
}

type ReminderSender struct {
	mailer      Mailer
	subject     string
	templateDef string
	surveyURL   string
	overrides   *smtp_client.HeaderOverrides
}

// NewReminderSender checks the template once so that sending can only fail on delivery.
func NewReminderSender(
	mailer Mailer,
	subject string,
	templateDef string,
	surveyURL string,
	overrides *smtp_client.HeaderOverrides,
) (*ReminderSender, error) {
	if mailer == nil {
		return nil, errors.New("mailer is required")
	}
	if strings.TrimSpace(subject) == "" {
		subject = DefaultReminderSubject
	}
	if strings.TrimSpace(templateDef) == "" {
		templateDef = DefaultReminderTemplate
	}
	if err := templates.CheckTemplateParsable(ReminderTemplateName, templateDef); err != nil {
		return nil, err
	}
	return &ReminderSender{
		mailer:      mailer,
		subject:     subject,
		templateDef: templateDef,
		surveyURL:   surveyURL,
		overrides:   overrides,
	}, nil
}

func (s *ReminderSender) SendAccessKeyReminder(to string, accessKey string) error {
	e, err := s.BuildAccessKeyReminder(to, accessKey)
	if err != nil {
		return err
	}
	return s.mailer.SendMail(e, s.overrides)
}

// SendAccessKeyReminderAsync sends in the background. Failures are only logged.
func (s *ReminderSender) SendAccessKeyReminderAsync(to string, accessKey string) {
	go func() {
		if err := s.SendAccessKeyReminder(to, accessKey); err != nil {
			slog.Error("failed to send access key reminder", slog.String("accessKey", accessKey), slog.String("error", err.Error()))
			return
		}
		slog.Info("sent access key reminder", slog.String("accessKey", accessKey))
	}()
}

func (s *ReminderSender) BuildAccessKeyReminder(to string, accessKey string) (*email.Email, error) {
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("no recipient")
	}
	content, err := templates.ResolveTemplate(ReminderTemplateName, s.templateDef, map[string]string{
		"access_key":  accessKey,
		"survey_link": s.surveyLink(accessKey),
	})
	if err != nil {
		return nil, err
	}

	e := email.NewEmail()
	e.To = []string{to}
	e.Subject = s.subject
	e.HTML = []byte(content)
	e.Headers = textproto.MIMEHeader{}
	return e, nil
}

func (s *ReminderSender) surveyLink(accessKey string) string {
	if s.surveyURL == "" {
		return ""
	}
	u, err := url.Parse(s.surveyURL)
	if err != nil {
		slog.Warn("invalid survey url for reminder", slog.String("url", s.surveyURL))
		return s.surveyURL
	}
	q := u.Query()
	q.Set("key", accessKey)
	u.RawQuery = q.Encode()
	return u.String()
}
