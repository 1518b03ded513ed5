package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/iankuys/c2c-survey-app/pkg/apihelpers"
	mw "github.com/iankuys/c2c-survey-app/pkg/apihelpers/middlewares"
	"github.com/iankuys/c2c-survey-app/pkg/pages"
	"github.com/iankuys/c2c-survey-app/services/survey-web/apihandlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var conf SurveyWebConfig

func main() {
	pageTemplates, err := pages.Load()
	if err != nil {
		slog.Error("Error loading page templates", slog.String("error", err.Error()))
		return
	}

	// Start webserver
	router := gin.Default()
	if err := router.SetTrustedProxies(conf.GinConfig.TrustedProxies); err != nil {
		slog.Error("Invalid trusted proxies", slog.String("error", err.Error()))
		return
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.GinConfig.AllowOrigins,
		AllowMethods:     []string{"POST", "GET"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length"},
		ExposeHeaders:    []string{"Content-Type", "Content-Length", mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(mw.RequestID(), mw.NoStore())
	router.SetHTMLTemplate(pageTemplates)

	router.GET("/healthz", apihandlers.HealthCheckHandle)
	router.GET("/metrics", mw.HasValidAPIKey(conf.GinConfig.MetricsAPIKeys), gin.WrapH(promhttp.Handler()))

	handlers := apihandlers.NewHTTPHandler(
		surveyEngine,
		outroContent,
		conf.GinConfig.BasePath,
		conf.SurveyConfig.IntroVideoURL,
		keyAttemptLimiter,
		reminder(),
		activityStore(),
		apihandlers.ProgressHintConfig{
			SignKey:   conf.ProgressHint.SignKey,
			ExpiresIn: conf.ProgressHint.ExpiresIn,
		},
	)
	handlers.AddRoutes(router.Group(conf.GinConfig.BasePath))
	router.NoRoute(handlers.NotFound)

	if conf.GinConfig.DebugMode {
		if err := apihelpers.WriteRoutesToFile(router, "survey-web-routes.txt"); err != nil {
			slog.Error("could not write routes file", slog.String("error", err.Error()))
		}
	}

	defer closeServices()

	// Start the server
	slog.Info("Starting Survey Web on port " + conf.GinConfig.Port)
	if !conf.GinConfig.MTLS.Use {
		err := router.Run(":" + conf.GinConfig.Port)
		if err != nil {
			slog.Error("Exited Survey Web", slog.String("error", err.Error()))
			return
		}
	} else {
		// Create tls config for mutual TLS
		tlsConfig, err := apihelpers.LoadTLSConfig(conf.GinConfig.MTLS.CertificatePaths)
		if err != nil {
			slog.Error("Error loading TLS config.", slog.String("error", err.Error()))
			return
		}

		server := &http.Server{
			Addr:      ":" + conf.GinConfig.Port,
			Handler:   router,
			TLSConfig: tlsConfig,
		}

		err = server.ListenAndServeTLS(conf.GinConfig.MTLS.CertificatePaths.ServerCertPath, conf.GinConfig.MTLS.CertificatePaths.ServerKeyPath)
		if err != nil {
			slog.Error("Exited Survey Web", slog.String("error", err.Error()))
			return
		}
	}
}

// reminder and activityStore keep unset services as nil interfaces.
func reminder() apihandlers.AccessKeyReminder {
	if accessKeyReminder == nil {
		return nil
	}
	return accessKeyReminder
}

func activityStore() apihandlers.ActivityStore {
	if activityLogDBService == nil {
		return nil
	}
	return activityLogDBService
}

func closeServices() {
	if activityLogDBService != nil {
		if err := activityLogDBService.Close(); err != nil {
			slog.Error("Error closing Activity Log DB", slog.String("error", err.Error()))
		}
	}
	if reminderSmtpClients != nil {
		reminderSmtpClients.Close()
	}
}
