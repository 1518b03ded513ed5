package main

import (
	"os"
	"time"

	"github.com/iankuys/c2c-survey-app/pkg/accesskey"
	"github.com/iankuys/c2c-survey-app/pkg/apihelpers"
	"github.com/iankuys/c2c-survey-app/pkg/records"
	"github.com/iankuys/c2c-survey-app/pkg/utils"
	"gopkg.in/yaml.v2"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_REGISTRY_SERVICE_API_TOKEN = "REGISTRY_SERVICE_API_TOKEN"
	ENV_ACCESS_KEY_SALT_PREFIX     = "ACCESS_KEY_SALT_PREFIX"
)

const (
	defaultParticipantIDField = records.FieldRegistryParticipantID
	defaultEnrollmentEvent    = records.EventRegistryEnrollment
	defaultMaxRetries         = 8
	defaultInstrument         = "basic_information"
	defaultCompletion         = "1"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	RegistryService struct {
		URL      string        `json:"url" yaml:"url"`
		APIToken string        `json:"api_token" yaml:"api_token"`
		Timeout  time.Duration `json:"timeout" yaml:"timeout"`

		MTLS struct {
			Use              bool                        `json:"use" yaml:"use"`
			CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
		} `json:"mtls" yaml:"mtls"`

		ParticipantIDField string `json:"participant_id_field" yaml:"participant_id_field"`
		EnrollmentEvent    string `json:"enrollment_event" yaml:"enrollment_event"`
	} `json:"registry_service" yaml:"registry_service"`

	KeyGeneration struct {
		SaltPrefix string `json:"salt_prefix" yaml:"salt_prefix"`
		KeyLength  int    `json:"key_length" yaml:"key_length"`
		MaxRetries int    `json:"max_retries" yaml:"max_retries"`
	} `json:"key_generation" yaml:"key_generation"`

	Output struct {
		ImportCSV  string `json:"import_csv" yaml:"import_csv"`
		MappingCSV string `json:"mapping_csv" yaml:"mapping_csv"`

		// Instrument holding the key; its completion column is "<instrument>_complete"
		Instrument           string `json:"instrument" yaml:"instrument"`
		InstrumentCompletion string `json:"instrument_completion" yaml:"instrument_completion"`
	} `json:"output" yaml:"output"`
}

var conf config

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

	secretsOverride()
	applyDefaults()

	if conf.RegistryService.URL == "" || conf.RegistryService.APIToken == "" {
		panic("registry service url or api token missing")
	}
	if conf.KeyGeneration.SaltPrefix == "" {
		panic("salt prefix missing")
	}
	if conf.Output.ImportCSV == "" || conf.Output.MappingCSV == "" {
		panic("output files missing")
	}
}

func secretsOverride() {
	if token := os.Getenv(ENV_REGISTRY_SERVICE_API_TOKEN); token != "" {
		conf.RegistryService.APIToken = token
	}

	if salt := os.Getenv(ENV_ACCESS_KEY_SALT_PREFIX); salt != "" {
		conf.KeyGeneration.SaltPrefix = salt
	}
}

func applyDefaults() {
	if conf.RegistryService.ParticipantIDField == "" {
		conf.RegistryService.ParticipantIDField = defaultParticipantIDField
	}
	if conf.RegistryService.EnrollmentEvent == "" {
		conf.RegistryService.EnrollmentEvent = defaultEnrollmentEvent
	}
	if conf.RegistryService.Timeout == 0 {
		conf.RegistryService.Timeout = time.Minute
	}
	if conf.KeyGeneration.KeyLength == 0 {
		conf.KeyGeneration.KeyLength = accesskey.DefaultLength
	}
	if conf.KeyGeneration.MaxRetries == 0 {
		conf.KeyGeneration.MaxRetries = defaultMaxRetries
	}
	if conf.Output.Instrument == "" {
		conf.Output.Instrument = defaultInstrument
	}
	if conf.Output.InstrumentCompletion == "" {
		conf.Output.InstrumentCompletion = defaultCompletion
	}
}
