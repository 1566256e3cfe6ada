package seed

import (
	"context"
	"log"
	"time"

	"eventra/db"
	"eventra/models"
	"eventra/utils"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

// Run populates an empty database with a small tenant tree, one admin
// and a couple of events so the API is usable right away. It is a no-op
// when tenants already exist.
func Run(ctx context.Context) error {
	count, err := db.TenantsCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("seed: tenants already present, skipping")
		return nil
	}

	now := time.Now().UTC()

	root := models.Tenant{
		TenantID:  utils.GenerateID(14),
		Name:      "Acme HQ",
		CreatedAt: now,
		UpdatedAt: now,
	}
	east := models.Tenant{
		TenantID:  utils.GenerateID(14),
		Name:      "Acme East",
		Parent:    root.TenantID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	west := models.Tenant{
		TenantID:  utils.GenerateID(14),
		Name:      "Acme West",
		Parent:    root.TenantID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, t := range []models.Tenant{root, east, west} {
		if _, err := db.TenantsCollection.InsertOne(ctx, t); err != nil {
			return err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		UserID:    utils.GenerateID(14),
		Name:      "Admin",
		Email:     "admin@example.com",
		Password:  string(hashed),
		Role:      models.RoleAdmin,
		Tenant:    root.TenantID,
		CreatedAt: now,
	}
	if _, err := db.UserCollection.InsertOne(ctx, admin); err != nil {
		return err
	}

	events := []models.Event{
		{
			EventID:   utils.GenerateID(14),
			Title:     "East Launch Party",
			Date:      now.AddDate(0, 1, 0),
			Capacity:  50,
			Organizer: admin.UserID,
			Tenant:    east.TenantID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			EventID:   utils.GenerateID(14),
			Title:     "West Tech Meetup",
			Date:      now.AddDate(0, 2, 0),
			Capacity:  2,
			Organizer: admin.UserID,
			Tenant:    west.TenantID,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	for _, ev := range events {
		if _, err := db.EventsCollection.InsertOne(ctx, ev); err != nil {
			return err
		}
	}

	log.Printf("seed: created %d tenants, 1 admin (admin@example.com), %d events", 3, len(events))
	return nil
}
