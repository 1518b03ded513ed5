package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iankuys/c2c-survey-app/pkg/accesskey"
	"github.com/iankuys/c2c-survey-app/pkg/apihelpers"
	mw "github.com/iankuys/c2c-survey-app/pkg/apihelpers/middlewares"
	"github.com/iankuys/c2c-survey-app/pkg/db"
	activitylog "github.com/iankuys/c2c-survey-app/pkg/db/activity-log"
	"github.com/iankuys/c2c-survey-app/pkg/identity"
	emailsending "github.com/iankuys/c2c-survey-app/pkg/messaging/email-sending"
	"github.com/iankuys/c2c-survey-app/pkg/messaging/templates"
	messagingTypes "github.com/iankuys/c2c-survey-app/pkg/messaging/types"
	"github.com/iankuys/c2c-survey-app/pkg/pages"
	"github.com/iankuys/c2c-survey-app/pkg/records"
	"github.com/iankuys/c2c-survey-app/pkg/redcap"
	sc "github.com/iankuys/c2c-survey-app/pkg/smtp-client"
	"github.com/iankuys/c2c-survey-app/pkg/survey"
	"github.com/iankuys/c2c-survey-app/pkg/utils"
	"github.com/iankuys/c2c-survey-app/pkg/videopool"
	"gopkg.in/yaml.v2"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_RECORDS_SERVICE_API_TOKEN  = "RECORDS_SERVICE_API_TOKEN"
	ENV_REGISTRY_SERVICE_API_TOKEN = "REGISTRY_SERVICE_API_TOKEN"
	ENV_PROGRESS_HINT_SIGN_KEY     = "PROGRESS_HINT_SIGN_KEY"
	ENV_ACTIVITY_LOG_DB_USERNAME   = "ACTIVITY_LOG_DB_USERNAME"
	ENV_ACTIVITY_LOG_DB_PASSWORD   = "ACTIVITY_LOG_DB_PASSWORD"
	ENV_SMTP_USERNAME              = "SMTP_USERNAME"
	ENV_SMTP_PASSWORD              = "SMTP_PASSWORD"
	ENV_METRICS_API_KEY            = "METRICS_API_KEY"
)

const (
	defaultBasePath             = "/retention/survey"
	defaultKeyAttemptsPerMinute = 30
	defaultKeyAttemptsBurst     = 10
	defaultRecordsTimeout       = 30 * time.Second
	defaultProgressHintTTL      = 30 * 24 * time.Hour
)

type RecordsServiceConfig struct {
	URL      string        `json:"url" yaml:"url"`
	APIToken string        `json:"api_token" yaml:"api_token"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`

	MTLS struct {
		Use              bool                        `json:"use" yaml:"use"`
		CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
	} `json:"mtls" yaml:"mtls"`
}

type SurveyWebConfig struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`
		BasePath     string   `json:"base_path" yaml:"base_path"`

		// Proxies allowed to set X-Forwarded-For. Empty trusts none, so clients are
		// identified by their connection address.
		TrustedProxies []string `json:"trusted_proxies" yaml:"trusted_proxies"`

		// Mutual TLS configs
		MTLS struct {
			Use              bool                        `json:"use" yaml:"use"`
			CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
		} `json:"mtls" yaml:"mtls"`

		MetricsAPIKeys       []string `json:"metrics_api_keys" yaml:"metrics_api_keys"`
		KeyAttemptsPerMinute int      `json:"key_attempts_per_minute" yaml:"key_attempts_per_minute"`
		KeyAttemptsBurst     int      `json:"key_attempts_burst" yaml:"key_attempts_burst"`
	} `json:"gin_config" yaml:"gin_config"`

	SurveyConfig struct {
		MaxScreens    int    `json:"max_screens" yaml:"max_screens"`
		KeyLength     int    `json:"key_length" yaml:"key_length"`
		MappingFile   string `json:"mapping_file" yaml:"mapping_file"`
		VideosFile    string `json:"videos_file" yaml:"videos_file"`
		ContentDir    string `json:"content_dir" yaml:"content_dir"`
		IntroVideoURL string `json:"intro_video_url" yaml:"intro_video_url"`
	} `json:"survey_config" yaml:"survey_config"`

	RecordsService RecordsServiceConfig `json:"records_service" yaml:"records_service"`

	// Registry project with the participants' email addresses
	RegistryService struct {
		RecordsServiceConfig `yaml:",inline"`
		EmailReportID        string `json:"email_report_id" yaml:"email_report_id"`
	} `json:"registry_service" yaml:"registry_service"`

	ProgressHint struct {
		SignKey   string        `json:"sign_key" yaml:"sign_key"`
		ExpiresIn time.Duration `json:"expires_in" yaml:"expires_in"`
	} `json:"progress_hint" yaml:"progress_hint"`

	ActivityLogDB struct {
		Use       bool            `json:"use" yaml:"use"`
		Retention time.Duration   `json:"retention" yaml:"retention"`
		DB        db.DBConfigYaml `json:"db" yaml:"db"`
	} `json:"activity_log_db" yaml:"activity_log_db"`

	EmailReminders messagingTypes.EmailReminderConfig `json:"email_reminders" yaml:"email_reminders"`
}

var (
	surveyEngine         *survey.Engine
	outroContent         pages.OutroContent
	keyAttemptLimiter    *mw.ClientRateLimiter
	activityLogDBService *activitylog.ActivityLogDBService
	accessKeyReminder    *emailsending.ReminderSender
	reminderSmtpClients  *sc.SmtpClients
)

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(conf.Logging)

	// Override secrets from environment variables
	secretsOverride()
	applyDefaults()

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	initSurveyEngine()
	initOutroContent()
	initActivityLog()
	initEmailReminders()

	keyAttemptLimiter = mw.NewClientRateLimiter(conf.GinConfig.KeyAttemptsPerMinute, conf.GinConfig.KeyAttemptsBurst)
}

func secretsOverride() {
	if token := os.Getenv(ENV_RECORDS_SERVICE_API_TOKEN); token != "" {
		conf.RecordsService.APIToken = token
	}

	if token := os.Getenv(ENV_REGISTRY_SERVICE_API_TOKEN); token != "" {
		conf.RegistryService.APIToken = token
	}

	if signKey := os.Getenv(ENV_PROGRESS_HINT_SIGN_KEY); signKey != "" {
		conf.ProgressHint.SignKey = signKey
	}

	if dbUsername := os.Getenv(ENV_ACTIVITY_LOG_DB_USERNAME); dbUsername != "" {
		conf.ActivityLogDB.DB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_ACTIVITY_LOG_DB_PASSWORD); dbPassword != "" {
		conf.ActivityLogDB.DB.Password = dbPassword
	}

	if apiKey := os.Getenv(ENV_METRICS_API_KEY); apiKey != "" {
		conf.GinConfig.MetricsAPIKeys = append(conf.GinConfig.MetricsAPIKeys, apiKey)
	}
	// SMTP credentials are applied when the server list is read, see initEmailReminders
}

func applyDefaults() {
	if conf.GinConfig.BasePath == "" {
		conf.GinConfig.BasePath = defaultBasePath
	}
	if conf.GinConfig.BasePath == "/" {
		conf.GinConfig.BasePath = ""
	}
	if conf.GinConfig.KeyAttemptsPerMinute == 0 {
		conf.GinConfig.KeyAttemptsPerMinute = defaultKeyAttemptsPerMinute
	}
	if conf.GinConfig.KeyAttemptsBurst == 0 {
		conf.GinConfig.KeyAttemptsBurst = defaultKeyAttemptsBurst
	}
	if conf.SurveyConfig.KeyLength == 0 {
		conf.SurveyConfig.KeyLength = accesskey.DefaultLength
	}
	if conf.RecordsService.Timeout == 0 {
		conf.RecordsService.Timeout = defaultRecordsTimeout
	}
	if conf.RegistryService.Timeout == 0 {
		conf.RegistryService.Timeout = defaultRecordsTimeout
	}
	if conf.ProgressHint.ExpiresIn == 0 {
		conf.ProgressHint.ExpiresIn = defaultProgressHintTTL
	}
}

func recordsClient(c RecordsServiceConfig) redcap.ClientConfig {
	client := redcap.ClientConfig{
		URL:     c.URL,
		Token:   c.APIToken,
		Timeout: c.Timeout,
	}
	if c.MTLS.Use {
		paths := c.MTLS.CertificatePaths
		client.MTLSCertificatePaths = &paths
	}
	return client
}

func initSurveyEngine() {
	if conf.RecordsService.URL == "" || conf.RecordsService.APIToken == "" {
		slog.Error("records service url or api token missing")
		panic("records service url or api token missing")
	}
	if conf.SurveyConfig.MaxScreens < 1 {
		slog.Error("max_screens must be at least 1", slog.Int("maxScreens", conf.SurveyConfig.MaxScreens))
		panic("invalid max_screens")
	}

	mapping, err := identity.LoadMappingCSV(conf.SurveyConfig.MappingFile)
	if err != nil {
		slog.Error("could not load access key mapping", slog.String("file", conf.SurveyConfig.MappingFile), slog.String("error", err.Error()))
		panic(err)
	}
	slog.Info("loaded access key mapping", slog.Int("entries", mapping.Len()))

	pool, err := videopool.LoadFromFile(conf.SurveyConfig.VideosFile)
	if err != nil {
		slog.Error("could not load video pool", slog.String("file", conf.SurveyConfig.VideosFile), slog.String("error", err.Error()))
		panic(err)
	}
	slog.Info("loaded video pool", slog.Int("videos", pool.Len()))

	var directory identity.EmailDirectory
	if conf.RegistryService.URL != "" && conf.RegistryService.EmailReportID != "" {
		if conf.RegistryService.APIToken == "" {
			slog.Error("registry service api token missing")
			panic("registry service api token missing")
		}
		directory = records.NewEmailDirectory(recordsClient(conf.RegistryService.RecordsServiceConfig), conf.RegistryService.EmailReportID)
	} else {
		slog.Warn("registry service not configured, email lookup at /check is disabled")
	}

	surveyEngine, err = survey.NewEngine(
		records.NewGateway(recordsClient(conf.RecordsService), conf.SurveyConfig.MaxScreens),
		pool,
		identity.NewResolver(mapping, directory),
		accesskey.NewSanitizer(conf.SurveyConfig.KeyLength),
		conf.SurveyConfig.MaxScreens,
	)
	if err != nil {
		slog.Error("could not create survey engine", slog.String("error", err.Error()))
		panic(err)
	}
}

func initOutroContent() {
	var err error
	outroContent, err = pages.LoadOutroContent(conf.SurveyConfig.ContentDir, survey.OutroQuestionCount)
	if err != nil {
		slog.Error("could not load outro content", slog.String("dir", conf.SurveyConfig.ContentDir), slog.String("error", err.Error()))
		panic(err)
	}
}

func initActivityLog() {
	if !conf.ActivityLogDB.Use {
		return
	}
	var err error
	activityLogDBService, err = activitylog.NewActivityLogDBService(
		db.DBConfigFromYamlObj(conf.ActivityLogDB.DB),
		conf.ActivityLogDB.Retention,
	)
	if err != nil {
		slog.Error("Error connecting to Activity Log DB", slog.String("error", err.Error()))
		panic(err)
	}
}

func initEmailReminders() {
	rc := conf.EmailReminders
	if !rc.Enabled {
		return
	}

	templateDef := ""
	if rc.TemplateFile != "" {
		var err error
		templateDef, err = templates.LoadTemplateFile(emailsending.ReminderTemplateName, rc.TemplateFile)
		if err != nil {
			slog.Error("could not load reminder template", slog.String("file", rc.TemplateFile), slog.String("error", err.Error()))
			panic(err)
		}
	}

	servers := sc.SmtpServerList{}
	if rc.SmtpServerConfigPath != "" {
		if err := servers.ReadFromFile(rc.SmtpServerConfigPath); err != nil {
			panic(err)
		}
		username := os.Getenv(ENV_SMTP_USERNAME)
		password := os.Getenv(ENV_SMTP_PASSWORD)
		for i := range servers.Servers {
			if username != "" {
				servers.Servers[i].SetUsername(username)
			}
			if password != "" {
				servers.Servers[i].SetPassword(password)
			}
		}
	}

	var mailer emailsending.Mailer
	if rc.DryRunDir != "" {
		slog.Info("email reminders are written to files", slog.String("dir", rc.DryRunDir))
		mailer = emailsending.DryRunMailer{Dir: rc.DryRunDir, Servers: servers}
	} else {
		var err error
		reminderSmtpClients, err = sc.NewSmtpClients(servers)
		if err != nil {
			slog.Error("Error creating SMTP clients", slog.String("error", err.Error()))
			panic(err)
		}
		mailer = reminderSmtpClients
	}

	var err error
	accessKeyReminder, err = emailsending.NewReminderSender(mailer, rc.Subject, templateDef, rc.SurveyURL, rc.HeaderOverrides)
	if err != nil {
		slog.Error("could not set up access key reminders", slog.String("error", err.Error()))
		panic(err)
	}
}
