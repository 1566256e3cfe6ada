package models

import "time"

// Booking statuses
const (
	StatusConfirmed  = "confirmed"
	StatusWaitlisted = "waitlisted"
	StatusCanceled   = "canceled"
)

// Notification types
const (
	NotifyBookingConfirmed = "booking_confirmed"
	NotifyWaitlisted       = "waitlisted"
	NotifyBookingCanceled  = "booking_canceled"
	NotifyWaitlistPromoted = "waitlist_promoted"
)

// Booking log actions
const (
	ActionAutoConfirm         = "auto_confirm"
	ActionAutoWaitlist        = "auto_waitlist"
	ActionCancelConfirmed     = "cancel_confirmed"
	ActionPromoteFromWaitlist = "promote_from_waitlist"
)

type Booking struct {
	BookingID string    `json:"bookingid" bson:"bookingid"`
	Event     string    `json:"event" bson:"event"`
	User      string    `json:"user" bson:"user"`
	Status    string    `json:"status" bson:"status"`
	Tenant    string    `json:"tenant,omitempty" bson:"tenant,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

type Notification struct {
	NotificationID string    `json:"notificationid" bson:"notificationid"`
	User           string    `json:"user" bson:"user"`
	Booking        string    `json:"booking,omitempty" bson:"booking,omitempty"`
	Type           string    `json:"type" bson:"type"`
	Title          string    `json:"title" bson:"title"`
	Message        string    `json:"message,omitempty" bson:"message,omitempty"`
	Read           bool      `json:"read" bson:"read"`
	Tenant         string    `json:"tenant,omitempty" bson:"tenant,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}

// BookingLog is an append-only audit record; nothing ever updates one.
type BookingLog struct {
	LogID     string    `json:"logid" bson:"logid"`
	Booking   string    `json:"booking" bson:"booking"`
	Event     string    `json:"event" bson:"event"`
	User      string    `json:"user" bson:"user"`
	Action    string    `json:"action" bson:"action"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty"`
	Tenant    string    `json:"tenant,omitempty" bson:"tenant,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// EventStats is one dashboard row.
type EventStats struct {
	EventID          string    `json:"eventid"`
	Title            string    `json:"title"`
	Date             time.Time `json:"date"`
	Capacity         int       `json:"capacity"`
	ConfirmedCount   int64     `json:"confirmedCount"`
	WaitlistedCount  int64     `json:"waitlistedCount"`
	CanceledCount    int64     `json:"canceledCount"`
	PercentageFilled float64   `json:"percentageFilled"`
}

type DashboardSummary struct {
	TotalEvents     int   `json:"totalEvents"`
	TotalConfirmed  int64 `json:"totalConfirmed"`
	TotalWaitlisted int64 `json:"totalWaitlisted"`
	TotalCanceled   int64 `json:"totalCanceled"`
}
