package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/iankuys/c2c-survey-app/pkg/db"
	activitylog "github.com/iankuys/c2c-survey-app/pkg/db/activity-log"
	"github.com/iankuys/c2c-survey-app/pkg/utils"
	"gopkg.in/yaml.v2"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_ACTIVITY_LOG_DB_USERNAME = "ACTIVITY_LOG_DB_USERNAME"
	ENV_ACTIVITY_LOG_DB_PASSWORD = "ACTIVITY_LOG_DB_PASSWORD"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// DB configs
	DBConfigs struct {
		ActivityLogDB db.DBConfigYaml `json:"activity_log_db" yaml:"activity_log_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// Must match the retention of the survey web service
	ActivityLogRetention time.Duration `json:"activity_log_retention" yaml:"activity_log_retention"`

	// Task configurations
	TaskConfigs TaskConfigs `json:"task_configs" yaml:"task_configs"`
}

type TaskConfigs struct {
	DropIndexes   DropIndexesMode `json:"drop_indexes" yaml:"drop_indexes"`
	CreateIndexes bool            `json:"create_indexes" yaml:"create_indexes"`
	GetIndexes    bool            `json:"get_indexes" yaml:"get_indexes"`
}

type DropIndexesMode string

const (
	DropIndexesModeAll      DropIndexesMode = "all"
	DropIndexesModeDefaults DropIndexesMode = "defaults"
	DropIndexesModeNone     DropIndexesMode = "none"
)

func (mode DropIndexesMode) IsValid() bool {
	switch mode {
	case DropIndexesModeAll, DropIndexesModeDefaults, DropIndexesModeNone, "":
		return true
	default:
		return false
	}
}

var conf config

var activityLogDBService *activitylog.ActivityLogDBService

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

	if !conf.TaskConfigs.DropIndexes.IsValid() {
		panic(fmt.Sprintf("invalid drop indexes mode: %q. Use one of: %v", conf.TaskConfigs.DropIndexes, []DropIndexesMode{DropIndexesModeAll, DropIndexesModeDefaults, DropIndexesModeNone}))
	}

	// Init logger:
	utils.InitLogger(conf.Logging)

	// Override secrets from environment variables
	secretsOverride()

	// Index creation is a task of this job, not a side effect of connecting
	dbConf := db.DBConfigFromYamlObj(conf.DBConfigs.ActivityLogDB)
	dbConf.RunIndexCreation = false
	activityLogDBService, err = activitylog.NewActivityLogDBService(dbConf, conf.ActivityLogRetention)
	if err != nil {
		slog.Error("Error connecting to Activity Log DB", slog.String("error", err.Error()))
		panic(err)
	}
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_ACTIVITY_LOG_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.ActivityLogDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_ACTIVITY_LOG_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.ActivityLogDB.Password = dbPassword
	}
}
