package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/iankuys/c2c-survey-app/pkg/redcap"
	"github.com/iankuys/c2c-survey-app/pkg/redcap/emulator"
	"github.com/iankuys/c2c-survey-app/pkg/utils"
	"gopkg.in/yaml.v2"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"
)

type ProjectConfig struct {
	// Path the project's API is served at, e.g. "/survey/api/"
	Path          string `json:"path" yaml:"path"`
	Token         string `json:"token" yaml:"token"`
	RecordIDField string `json:"record_id_field" yaml:"record_id_field"`
	// SeedFile holds a JSON list of flat records imported at start
	SeedFile string `json:"seed_file" yaml:"seed_file"`
	// Reports maps report IDs to JSON files with the report rows
	Reports map[string]string `json:"reports" yaml:"reports"`
}

type config struct {
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode bool   `json:"debug_mode" yaml:"debug_mode"`
		Port      string `json:"port" yaml:"port"`
	} `json:"gin_config" yaml:"gin_config"`

	Projects []ProjectConfig `json:"projects" yaml:"projects"`
}

var projects map[string]*emulator.Store

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

	utils.InitLogger(conf.Logging)

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if len(conf.Projects) == 0 {
		panic("no projects configured for the records emulator")
	}

	projects = map[string]*emulator.Store{}
	for _, p := range conf.Projects {
		store, err := newProjectStore(p)
		if err != nil {
			slog.Error("could not set up project", slog.String("path", p.Path), slog.String("error", err.Error()))
			panic(err)
		}
		projects[p.Path] = store
	}
}

func newProjectStore(p ProjectConfig) (*emulator.Store, error) {
	if p.Path == "" || p.Token == "" || p.RecordIDField == "" {
		return nil, errMissingProjectSettings
	}
	store := emulator.NewStore(p.Token, p.RecordIDField)

	if p.SeedFile != "" {
		rows, err := readRecordsFile(p.SeedFile)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if err := store.Put(r); err != nil {
				return nil, err
			}
		}
		slog.Info("seeded project", slog.String("path", p.Path), slog.Int("records", len(rows)))
	}

	for reportID, file := range p.Reports {
		rows, err := readRecordsFile(file)
		if err != nil {
			return nil, err
		}
		store.SetReport(reportID, rows)
	}
	return store, nil
}

func readRecordsFile(path string) ([]redcap.Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rows := []redcap.Record{}
	if err := json.Unmarshal(content, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
