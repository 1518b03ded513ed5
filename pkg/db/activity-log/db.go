package activitylog

import (
	"context"
	"log/slog"
	"time"

	"github.com/iankuys/c2c-survey-app/pkg/db"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection names
const (
	COLLECTION_NAME_ACTIVITY = "participant-activity"
)

type ActivityLogDBService struct {
	DBClient     *mongo.Client
	timeout      int
	DBNamePrefix string
	retention    time.Duration
}

// NewActivityLogDBService connects to the activity log database. With a positive retention
// entries expire after that duration.
func NewActivityLogDBService(configs db.DBConfig, retention time.Duration) (*ActivityLogDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)
	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	err = dbClient.Ping(ctx, nil)
	defer conCancel()

	if err != nil {
		return nil, err
	}

	alDBSc := &ActivityLogDBService{
		DBClient:     dbClient,
		timeout:      configs.Timeout,
		DBNamePrefix: configs.DBNamePrefix,
		retention:    retention,
	}

	if configs.RunIndexCreation {
		alDBSc.ensureIndexes()
	}
	return alDBSc, nil
}

func (dbService *ActivityLogDBService) getDBName() string {
	return dbService.DBNamePrefix + "survey-activity"
}

func (dbService *ActivityLogDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

func (dbService *ActivityLogDBService) collectionActivity() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_ACTIVITY)
}

func (dbService *ActivityLogDBService) ensureIndexes() {
	slog.Debug("Ensuring indexes for activity log DB")

	err := dbService.CreateIndexForActivity()
	if err != nil {
		slog.Error("Error creating indexes for activity log: ", slog.String("error", err.Error()))
	}
}

func (dbService *ActivityLogDBService) Close() error {
	ctx, cancel := dbService.getContext()
	defer cancel()
	return dbService.DBClient.Disconnect(ctx)
}
