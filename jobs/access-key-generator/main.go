package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/iankuys/c2c-survey-app/pkg/accesskey"
	"github.com/iankuys/c2c-survey-app/pkg/identity"
	"github.com/iankuys/c2c-survey-app/pkg/records"
	"github.com/iankuys/c2c-survey-app/pkg/redcap"
)

func main() {
	slog.Info("Starting access key generator job")
	start := time.Now()

	client := redcap.ClientConfig{
		URL:     conf.RegistryService.URL,
		Token:   conf.RegistryService.APIToken,
		Timeout: conf.RegistryService.Timeout,
	}
	if conf.RegistryService.MTLS.Use {
		paths := conf.RegistryService.MTLS.CertificatePaths
		client.MTLSCertificatePaths = &paths
	}

	ids, err := records.RegistryParticipantIDs(context.Background(), client, conf.RegistryService.ParticipantIDField, conf.RegistryService.EnrollmentEvent)
	if err != nil {
		slog.Error("Error exporting participant IDs", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("exported participant IDs", slog.Int("count", len(ids)))

	generator := accesskey.Generator{
		SaltPrefix: conf.KeyGeneration.SaltPrefix,
		Length:     conf.KeyGeneration.KeyLength,
		MaxRetries: conf.KeyGeneration.MaxRetries,
	}
	keys, failed := generator.Generate(ids)
	slog.Info("generated access keys", slog.Int("generated", len(keys)), slog.Int("failed", len(failed)))

	completionField := conf.Output.Instrument + "_complete"
	startRecords := make([]redcap.Record, 0, len(keys))
	identities := make([]identity.Identity, 0, len(keys))
	for _, k := range keys {
		startRecords = append(startRecords, records.StartRecord(k.AccessKey, k.ParticipantID, completionField, conf.Output.InstrumentCompletion))
		identities = append(identities, identity.Identity{AccessKey: k.AccessKey, ParticipantID: k.ParticipantID})
	}

	if err := writeFile(conf.Output.ImportCSV, func(w io.Writer) error {
		return redcap.WriteRecordsCSV(w, records.StartRecordColumns(completionField), startRecords)
	}); err != nil {
		slog.Error("Error writing import CSV", slog.String("file", conf.Output.ImportCSV), slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := writeFile(conf.Output.MappingCSV, func(w io.Writer) error {
		return identity.WriteMappingCSV(w, identities)
	}); err != nil {
		slog.Error("Error writing mapping CSV", slog.String("file", conf.Output.MappingCSV), slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Access key generator job completed",
		slog.String("importCSV", conf.Output.ImportCSV),
		slog.String("mappingCSV", conf.Output.MappingCSV),
		slog.Duration("duration", time.Since(start)),
	)
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
