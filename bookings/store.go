package bookings

import (
	"context"
	"errors"
	"time"

	"eventra/db"
	"eventra/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore backs the engine with the shared collections.
type MongoStore struct{}

func (MongoStore) EventByID(ctx context.Context, eventID string) (models.Event, error) {
	var event models.Event
	err := db.EventsCollection.FindOne(ctx, bson.M{"eventid": eventID}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Event{}, ErrEventNotFound
	}
	return event, err
}

func (MongoStore) BookingByID(ctx context.Context, bookingID string) (models.Booking, error) {
	var booking models.Booking
	err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": bookingID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Booking{}, ErrBookingNotFound
	}
	return booking, err
}

func (MongoStore) HasActiveBooking(ctx context.Context, eventID, userID string) (bool, error) {
	count, err := db.BookingsCollection.CountDocuments(ctx, bson.M{
		"event":  eventID,
		"user":   userID,
		"status": bson.M{"$ne": models.StatusCanceled},
	})
	return count > 0, err
}

func (MongoStore) CountByStatus(ctx context.Context, eventID, status string) (int64, error) {
	return db.BookingsCollection.CountDocuments(ctx, bson.M{"event": eventID, "status": status})
}

func (MongoStore) InsertBooking(ctx context.Context, b models.Booking) error {
	_, err := db.BookingsCollection.InsertOne(ctx, b)
	return err
}

func (MongoStore) SetStatus(ctx context.Context, bookingID, status string, at time.Time) error {
	res, err := db.BookingsCollection.UpdateOne(ctx,
		bson.M{"bookingid": bookingID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (MongoStore) OldestWaitlisted(ctx context.Context, eventID, tenantID string) (models.Booking, bool, error) {
	filter := bson.M{"event": eventID, "status": models.StatusWaitlisted}
	if tenantID != "" {
		filter["tenant"] = tenantID
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	var booking models.Booking
	err := db.BookingsCollection.FindOne(ctx, filter, opts).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Booking{}, false, nil
	}
	if err != nil {
		return models.Booking{}, false, err
	}
	return booking, true, nil
}

func (MongoStore) InsertNotification(ctx context.Context, n models.Notification) error {
	_, err := db.NotificationsCollection.InsertOne(ctx, n)
	return err
}

func (MongoStore) InsertLog(ctx context.Context, l models.BookingLog) error {
	_, err := db.BookingLogsCollection.InsertOne(ctx, l)
	return err
}
