package activitylog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/iankuys/c2c-survey-app/pkg/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityEntry is one line of a participant's trail through the survey.
type ActivityEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Time      time.Time          `bson:"time" json:"time"`
	AccessKey string             `bson:"accessKey" json:"accessKey"`
	Source    string             `bson:"src" json:"src"`
	Message   string             `bson:"message" json:"message"`
	RequestID string             `bson:"requestID,omitempty" json:"requestID,omitempty"`
}

const indexNameExpiry = "time_1"

// indexesForActivityCollection includes the expiry index only with a positive retention.
func indexesForActivityCollection(retention time.Duration) []mongo.IndexModel {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "accessKey", Value: 1},
				{Key: "time", Value: -1},
			},
			Options: options.Index().SetName("accessKey_1_time_-1"),
		},
	}
	if retention > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "time", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())).SetName(indexNameExpiry),
		})
	}
	return indexes
}

func (dbService *ActivityLogDBService) CreateIndexForActivity() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionActivity().Indexes().CreateMany(ctx, indexesForActivityCollection(dbService.retention))
	return err
}

// DropIndexForActivity removes every index, or only the ones CreateIndexForActivity makes.
func (dbService *ActivityLogDBService) DropIndexForActivity(dropAll bool) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if dropAll {
		_, err := dbService.collectionActivity().Indexes().DropAll(ctx)
		if err != nil {
			slog.Error("Error dropping all indexes for activity log", slog.String("error", err.Error()))
		}
		return
	}

	// the expiry index may exist from an earlier run with retention
	indexes := indexesForActivityCollection(dbService.retention)
	if dbService.retention <= 0 {
		indexes = append(indexes, mongo.IndexModel{Options: options.Index().SetName(indexNameExpiry)})
	}
	for _, index := range indexes {
		if index.Options == nil || index.Options.Name == nil {
			slog.Error("Index name is nil for activity log collection", slog.String("index", fmt.Sprintf("%+v", index)))
			continue
		}
		indexName := *index.Options.Name
		_, err := dbService.collectionActivity().Indexes().DropOne(ctx, indexName)
		if err != nil {
			slog.Debug("Could not drop index for activity log", slog.String("error", err.Error()), slog.String("indexName", indexName))
		}
	}
}

func (dbService *ActivityLogDBService) GetIndexes() ([]bson.M, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()
	return db.ListCollectionIndexes(ctx, dbService.collectionActivity())
}

func (dbService *ActivityLogDBService) AddEntry(entry ActivityEntry) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	_, err := dbService.collectionActivity().InsertOne(ctx, entry)
	return err
}
