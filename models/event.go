package models

import "time"

type Event struct {
	EventID     string    `json:"eventid" bson:"eventid"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Date        time.Time `json:"date" bson:"date"`
	Capacity    int       `json:"capacity" bson:"capacity"`
	Organizer   string    `json:"organizer" bson:"organizer"`
	Banner      string    `json:"banner,omitempty" bson:"banner,omitempty"`
	Tenant      string    `json:"tenant,omitempty" bson:"tenant,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
