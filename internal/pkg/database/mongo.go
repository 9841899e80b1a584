package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecocheck/ecocheck/internal/pkg/env"
)

var (
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
)

// SetupMongo connects to MONGO_URI and selects MONGO_DB.
func SetupMongo(ctx context.Context) error {
	if mongoClient != nil && mongoDB != nil {
		return nil
	}

	uri := env.GetEnv("MONGO_URI", "mongodb://localhost:27017")
	name := env.GetEnv("MONGO_DB", "ecocheck")

	start := time.Now()
	log.Infof("[Mongo] Connecting uri=%s db=%s", redactURI(uri), name)

	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	c, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err = c.Ping(dctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}

	mongoClient = c
	mongoDB = c.Database(name)

	if err := createIndexes(mongoDB); err != nil {
		log.Warnf("[Mongo] Index creation warnings: %v", err)
	}

	log.Infof("[Mongo] Connected in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// GetMongoDB returns the selected database, nil before SetupMongo.
func GetMongoDB() *mongo.Database {
	return mongoDB
}

func DisconnectMongo(ctx context.Context) error {
	if mongoClient == nil {
		return nil
	}
	defer func() { mongoClient, mongoDB = nil, nil }()
	return mongoClient.Disconnect(ctx)
}

func createIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []string
	reports := db.Collection("reports")
	for name, keys := range map[string]bson.D{
		"status_since":  {{Key: "status", Value: 1}, {Key: "pending_confirmation_since", Value: 1}},
		"user_location": {{Key: "user_location", Value: 1}, {Key: "created_at", Value: -1}},
		"reporter":      {{Key: "reporter_id", Value: 1}, {Key: "created_at", Value: -1}},
	} {
		if _, err := reports.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys}); err != nil {
			errs = append(errs, name+": "+err.Error())
		}
	}
	if _, err := db.Collection("notifications").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		errs = append(errs, "notifications.user_id: "+err.Error())
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}
