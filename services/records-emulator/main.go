package main

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
)

var conf config

var errMissingProjectSettings = errors.New("project needs path, token and record_id_field")

func main() {
	// Start webserver
	router := gin.Default()

	for path, store := range projects {
		store.AddRoutes(router.Group(path))
		slog.Info("serving emulated project", slog.String("path", path), slog.String("recordIDField", store.RecordIDField()))
	}

	slog.Info("Starting Records Service Emulator on port " + conf.GinConfig.Port)
	err := router.Run(":" + conf.GinConfig.Port)
	if err != nil {
		slog.Error("Exited Records Service Emulator", slog.String("error", err.Error()))
		return
	}
}
