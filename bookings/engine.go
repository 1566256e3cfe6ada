// Package bookings drives the booking lifecycle: create goes to confirmed or
// the waitlist depending on event capacity, a cancellation frees a seat and
// promotes the oldest waitlisted booking. Every transition writes a
// notification and an append-only log entry.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"eventra/models"
	"eventra/utils"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrAlreadyBooked   = errors.New("already booked")
	ErrForbidden       = errors.New("forbidden")
)

// Store is the slice of the document store the engine needs. The Mongo
// implementation is in store.go; tests use an in-memory fake.
type Store interface {
	EventByID(ctx context.Context, eventID string) (models.Event, error)
	BookingByID(ctx context.Context, bookingID string) (models.Booking, error)
	HasActiveBooking(ctx context.Context, eventID, userID string) (bool, error)
	CountByStatus(ctx context.Context, eventID, status string) (int64, error)
	InsertBooking(ctx context.Context, b models.Booking) error
	SetStatus(ctx context.Context, bookingID, status string, at time.Time) error
	OldestWaitlisted(ctx context.Context, eventID, tenantID string) (models.Booking, bool, error)
	InsertNotification(ctx context.Context, n models.Notification) error
	InsertLog(ctx context.Context, l models.BookingLog) error
}

// Publisher pushes a freshly written notification to live listeners. May be
// nil; persistence does not depend on it.
type Publisher interface {
	Publish(n models.Notification)
}

type Engine struct {
	store Store
	pub   Publisher

	// Capacity check plus status write are separate store operations, so the
	// sequence is serialized per event. Same lock covers promotion, which
	// keeps two concurrent cancellations from promoting the same booking.
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now   func() time.Time
	newID func() string
}

func NewEngine(store Store, pub Publisher) *Engine {
	return &Engine{
		store: store,
		pub:   pub,
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
		newID: func() string { return utils.GenerateID(16) },
	}
}

func (e *Engine) lockEvent(eventID string) func() {
	e.mu.Lock()
	l, ok := e.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[eventID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Book creates a booking for the actor on the given event. The booking comes
// back confirmed while confirmed seats remain, waitlisted otherwise.
func (e *Engine) Book(ctx context.Context, eventID string, actor *models.User, tenant string) (models.Booking, error) {
	unlock := e.lockEvent(eventID)
	defer unlock()

	event, err := e.store.EventByID(ctx, eventID)
	if err != nil {
		return models.Booking{}, err
	}

	active, err := e.store.HasActiveBooking(ctx, eventID, actor.UserID)
	if err != nil {
		return models.Booking{}, err
	}
	if active {
		return models.Booking{}, ErrAlreadyBooked
	}

	confirmed, err := e.store.CountByStatus(ctx, eventID, models.StatusConfirmed)
	if err != nil {
		return models.Booking{}, err
	}

	booking := models.Booking{
		BookingID: e.newID(),
		Event:     eventID,
		User:      actor.UserID,
		Tenant:    tenant,
		CreatedAt: e.now().UTC(),
	}

	if confirmed < int64(event.Capacity) {
		booking.Status = models.StatusConfirmed
	} else {
		booking.Status = models.StatusWaitlisted
	}

	if err := e.store.InsertBooking(ctx, booking); err != nil {
		return models.Booking{}, err
	}

	if booking.Status == models.StatusConfirmed {
		e.notify(ctx, models.Notification{
			User:    booking.User,
			Booking: booking.BookingID,
			Type:    models.NotifyBookingConfirmed,
			Title:   "Booking Confirmed",
			Message: fmt.Sprintf("Your booking for %s is confirmed!", event.Title),
			Tenant:  tenant,
		})
		e.logAction(ctx, booking, models.ActionAutoConfirm, "Auto-confirmed on booking")
	} else {
		e.notify(ctx, models.Notification{
			User:    booking.User,
			Booking: booking.BookingID,
			Type:    models.NotifyWaitlisted,
			Title:   "Waitlisted",
			Message: fmt.Sprintf("You are waitlisted for %s.", event.Title),
			Tenant:  tenant,
		})
		e.logAction(ctx, booking, models.ActionAutoWaitlist, "Auto-waitlisted on booking")
	}

	return booking, nil
}

// Cancel transitions a booking to canceled and promotes the oldest
// waitlisted booking for the same event and tenant, at most one per
// cancellation. Canceling an already-canceled booking is a no-op: no second
// notification, log entry, or promotion. Canceled is terminal.
func (e *Engine) Cancel(ctx context.Context, bookingID string, actor *models.User) (models.Booking, error) {
	booking, err := e.store.BookingByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}

	if booking.User != actor.UserID && !actor.IsStaff() {
		return models.Booking{}, ErrForbidden
	}

	unlock := e.lockEvent(booking.Event)
	defer unlock()

	// Re-read under the lock: a concurrent cancel may have won the race
	// between the first read and here, and only one cancel per booking may
	// write the transition and promote.
	booking, err = e.store.BookingByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if booking.Status == models.StatusCanceled {
		return booking, nil
	}

	event, err := e.store.EventByID(ctx, booking.Event)
	if err != nil {
		return models.Booking{}, err
	}

	now := e.now().UTC()
	if err := e.store.SetStatus(ctx, booking.BookingID, models.StatusCanceled, now); err != nil {
		return models.Booking{}, err
	}
	booking.Status = models.StatusCanceled
	booking.UpdatedAt = now

	e.notify(ctx, models.Notification{
		User:    booking.User,
		Booking: booking.BookingID,
		Type:    models.NotifyBookingCanceled,
		Title:   "Booking Canceled",
		Message: fmt.Sprintf("Your booking for %s was canceled.", event.Title),
		Tenant:  booking.Tenant,
	})
	e.logAction(ctx, booking, models.ActionCancelConfirmed, "Booking canceled by user")

	e.promote(ctx, event, booking.Tenant)

	return booking, nil
}

// promote moves the oldest waitlisted booking for the event to confirmed.
// Caller holds the event lock.
func (e *Engine) promote(ctx context.Context, event models.Event, tenant string) {
	next, ok, err := e.store.OldestWaitlisted(ctx, event.EventID, tenant)
	if err != nil {
		log.Printf("bookings: waitlist lookup failed for event %s: %v", event.EventID, err)
		return
	}
	if !ok {
		return
	}

	if err := e.store.SetStatus(ctx, next.BookingID, models.StatusConfirmed, e.now().UTC()); err != nil {
		log.Printf("bookings: promotion failed for booking %s: %v", next.BookingID, err)
		return
	}
	next.Status = models.StatusConfirmed

	e.notify(ctx, models.Notification{
		User:    next.User,
		Booking: next.BookingID,
		Type:    models.NotifyWaitlistPromoted,
		Title:   "Promoted from Waitlist",
		Message: fmt.Sprintf("You have been promoted to confirmed for %s.", event.Title),
		Tenant:  tenant,
	})
	e.logAction(ctx, next, models.ActionPromoteFromWaitlist, "Promoted from waitlist after cancellation")
}

func (e *Engine) notify(ctx context.Context, n models.Notification) {
	n.NotificationID = e.newID()
	n.CreatedAt = e.now().UTC()
	if err := e.store.InsertNotification(ctx, n); err != nil {
		log.Printf("bookings: notification write failed: %v", err)
		return
	}
	if e.pub != nil {
		e.pub.Publish(n)
	}
}

func (e *Engine) logAction(ctx context.Context, b models.Booking, action, note string) {
	entry := models.BookingLog{
		LogID:     e.newID(),
		Booking:   b.BookingID,
		Event:     b.Event,
		User:      b.User,
		Action:    action,
		Note:      note,
		Tenant:    b.Tenant,
		CreatedAt: e.now().UTC(),
	}
	if err := e.store.InsertLog(ctx, entry); err != nil {
		log.Printf("bookings: log write failed: %v", err)
	}
}
