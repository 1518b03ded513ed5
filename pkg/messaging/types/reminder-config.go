package types

import (
	smtp_client "github.com/iankuys/c2c-survey-app/pkg/smtp-client"
)

// EmailReminderConfig configures the access key reminder sent from /check.
type EmailReminderConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	SmtpServerConfigPath string `json:"smtp_server_config_path" yaml:"smtp_server_config_path"`
	// DryRunDir writes .eml files into this directory instead of sending
	DryRunDir string `json:"dry_run_dir" yaml:"dry_run_dir"`

	Subject         string                       `json:"subject" yaml:"subject"`
	TemplateFile    string                       `json:"template_file" yaml:"template_file"`
	SurveyURL       string                       `json:"survey_url" yaml:"survey_url"`
	HeaderOverrides *smtp_client.HeaderOverrides `json:"header_overrides" yaml:"header_overrides"`
}
