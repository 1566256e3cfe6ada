package db

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	TenantsCollection       *mongo.Collection
	UserCollection          *mongo.Collection
	EventsCollection        *mongo.Collection
	BookingsCollection      *mongo.Collection
	NotificationsCollection *mongo.Collection
	BookingLogsCollection   *mongo.Collection
	Client                  *mongo.Client
)

// Init connects to MongoDB and wires the collection handles. It is called
// from main, not from package init, so packages under test never dial Mongo.
func Init() {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "eventra"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database(dbName)
	TenantsCollection = database.Collection("tenants")
	UserCollection = database.Collection("users")
	EventsCollection = database.Collection("events")
	BookingsCollection = database.Collection("bookings")
	NotificationsCollection = database.Collection("notifications")
	BookingLogsCollection = database.Collection("bookinglogs")
}

// Close disconnects the client. Used during graceful shutdown.
func Close(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}
