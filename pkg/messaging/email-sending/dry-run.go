package emailsending

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	smtp_client "github.com/iankuys/c2c-survey-app/pkg/smtp-client"
	"github.com/jordan-wright/email"
)

// DryRunMailer writes every message as an .eml file instead of delivering it.
type DryRunMailer struct {
	Dir     string
	Servers smtp_client.SmtpServerList
}

func (m DryRunMailer) SendMail(e *email.Email, overrides *smtp_client.HeaderOverrides) error {
	msg := smtp_client.ApplyHeaders(e, m.Servers, overrides)
	if msg.From == "" {
		msg.From = "noreply@localhost"
	}
	content, err := msg.Bytes()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.Dir, os.ModePerm); err != nil {
		return err
	}
	fname := filepath.Join(m.Dir, fmt.Sprintf("%s-%s.eml", time.Now().Format("20060102-150405"), uuid.NewString()))
	if err := os.WriteFile(fname, content, 0o600); err != nil {
		return err
	}
	slog.Debug("email written to file", slog.String("file", fname))
	return nil
}
