package main

import (
	"fmt"
	"log/slog"
	"time"
)

func main() {
	start := time.Now()
	defer func() {
		if err := activityLogDBService.Close(); err != nil {
			slog.Error("Error closing Activity Log DB", slog.String("error", err.Error()))
		}
	}()

	dropIndexes()

	createIndexes()

	getIndexes()

	slog.Info("DB migration finished", slog.String("duration", time.Since(start).String()))
}

func dropIndexes() {
	switch conf.TaskConfigs.DropIndexes {
	case DropIndexesModeAll:
		activityLogDBService.DropIndexForActivity(true)
	case DropIndexesModeDefaults:
		activityLogDBService.DropIndexForActivity(false)
	}
}

func createIndexes() {
	if !conf.TaskConfigs.CreateIndexes {
		return
	}
	if err := activityLogDBService.CreateIndexForActivity(); err != nil {
		slog.Error("Error creating indexes for activity log", slog.String("error", err.Error()))
		return
	}
	slog.Info("Created indexes for activity log", slog.String("retention", conf.ActivityLogRetention.String()))
}

func getIndexes() {
	if !conf.TaskConfigs.GetIndexes {
		return
	}
	indexes, err := activityLogDBService.GetIndexes()
	if err != nil {
		slog.Error("Error listing indexes for activity log", slog.String("error", err.Error()))
		return
	}
	for _, index := range indexes {
		slog.Info("Activity log index", slog.String("index", fmt.Sprintf("%v", index)))
	}
}
