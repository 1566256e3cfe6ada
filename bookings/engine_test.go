package bookings

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"eventra/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu            sync.Mutex
	events        map[string]models.Event
	bookings      map[string]models.Booking
	notifications []models.Notification
	logs          []models.BookingLog
}

func newMemStore(events ...models.Event) *memStore {
	s := &memStore{
		events:   make(map[string]models.Event),
		bookings: make(map[string]models.Booking),
	}
	for _, ev := range events {
		s.events[ev.EventID] = ev
	}
	return s
}

func (s *memStore) EventByID(_ context.Context, eventID string) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return models.Event{}, ErrEventNotFound
	}
	return ev, nil
}

func (s *memStore) BookingByID(_ context.Context, bookingID string) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return models.Booking{}, ErrBookingNotFound
	}
	return b, nil
}

func (s *memStore) HasActiveBooking(_ context.Context, eventID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.Event == eventID && b.User == userID && b.Status != models.StatusCanceled {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CountByStatus(_ context.Context, eventID, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.bookings {
		if b.Event == eventID && b.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *memStore) InsertBooking(_ context.Context, b models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.BookingID] = b
	return nil
}

func (s *memStore) SetStatus(_ context.Context, bookingID, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = at
	s.bookings[bookingID] = b
	return nil
}

func (s *memStore) OldestWaitlisted(_ context.Context, eventID, tenantID string) (models.Booking, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest models.Booking
	found := false
	for _, b := range s.bookings {
		if b.Event != eventID || b.Status != models.StatusWaitlisted {
			continue
		}
		if tenantID != "" && b.Tenant != tenantID {
			continue
		}
		if !found || b.CreatedAt.Before(oldest.CreatedAt) {
			oldest = b
			found = true
		}
	}
	return oldest, found, nil
}

func (s *memStore) InsertNotification(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *memStore) InsertLog(_ context.Context, l models.BookingLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, l)
	return nil
}

func (s *memStore) notificationTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n.Type)
	}
	return out
}

func (s *memStore) logActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.logs))
	for _, l := range s.logs {
		out = append(out, l.Action)
	}
	return out
}

// gatedStore holds the first reads of a booking at a barrier so two
// cancels both observe it live before either takes the event lock.
type gatedStore struct {
	*memStore
	barrier sync.WaitGroup
	gateMu  sync.Mutex
	gated   int
}

func newGatedStore(inner *memStore) *gatedStore {
	return &gatedStore{memStore: inner}
}

func (s *gatedStore) arm(n int) {
	s.gateMu.Lock()
	defer s.gateMu.Unlock()
	s.gated = n
	s.barrier.Add(n)
}

func (s *gatedStore) BookingByID(ctx context.Context, bookingID string) (models.Booking, error) {
	s.gateMu.Lock()
	wait := s.gated > 0
	if wait {
		s.gated--
	}
	s.gateMu.Unlock()
	if wait {
		s.barrier.Done()
		s.barrier.Wait()
	}
	return s.memStore.BookingByID(ctx, bookingID)
}

func countOf(values []string, want string) int {
	n := 0
	for _, v := range values {
		if v == want {
			n++
		}
	}
	return n
}

// testEngine wires a deterministic clock and id sequence so waitlist
// ordering in tests is stable.
func testEngine(store Store) *Engine {
	e := NewEngine(store, nil)

	var mu sync.Mutex
	tick := 0
	e.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(tick) * time.Second)
	}
	seq := 0
	e.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id%03d", seq)
	}
	return e
}

func attendee(id string) *models.User {
	return &models.User{UserID: id, Role: models.RoleAttendee, Tenant: "T"}
}

func TestBookConfirmsUntilCapacity(t *testing.T) {
	store := newMemStore(models.Event{EventID: "e1", Title: "Launch", Capacity: 2, Tenant: "T"})
	e := testEngine(store)

	b1, err := e.Book(context.Background(), "e1", attendee("u1"), "T")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, b1.Status)

	b2, err := e.Book(context.Background(), "e1", attendee("u2"), "T")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, b2.Status)

	b3, err := e.Book(context.Background(), "e1", attendee("u3"), "T")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaitlisted, b3.Status)

	assert.Equal(t, []string{
		models.NotifyBookingConfirmed,
		models.NotifyBookingConfirmed,
		models.NotifyWaitlisted,
	}, store.notificationTypes())
	assert.Equal(t, []string{
		models.ActionAutoConfirm,
		models.ActionAutoConfirm,
		models.ActionAutoWaitlist,
	}, store.logActions())
}

func TestBookUnknownEvent(t *testing.T) {
	e := testEngine(newMemStore())
	_, err := e.Book(context.Background(), "nope", attendee("u1"), "T")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestBookRejectsDuplicate(t *testing.T) {
	store := newMemStore(models.Event{EventID: "e1", Title: "Launch", Capacity: 5, Tenant: "T"})
	e := testEngine(store)

	_, err := e.Book(context.Background(), "e1", attendee("u1"), "T")
	require.NoError(t, err)

	_, err = e.Book(context.Background(), "e1", attendee("u1"), "T")
	assert.ErrorIs(t, err, ErrAlreadyBooked)
}

func TestBookAgainAfterCancel(t *testing.T) {
	store := newMemStore(models.Event{EventID: "e1", Title: "Launch", Capacity: 5, Tenant: "T"})
	e := testEngine(store)

	b, err := e.Book(context.Background(), "e1", attendee("u1"), "T")
	require.NoError(t, err)

	_, err = e.Cancel(context.Background(), b.BookingID, attendee("u1"))
	require.NoError(t, err)

	_, err = e.Book(context.Background(), "e1", attendee("u1"), "T")
	assert.NoError(t, err, "a canceled booking does not block rebooking")
}

func TestCancelPromotesOldestWaitlisted(t *testing.T) {
	store := newMemStore(models.Event{EventID: "e1", Title: "Launch", Capacity: 1, Tenant: "T"})
	e := testEngine(store)

	b1, err := e.Book(context.Background(), "e1", attendee("u1"), "T")
	require.NoError(t, err)
	b2, err := e.Book(context.Background(), "e1", attendee("u2"), "T")
	require.NoError(t, err)
	b3, err := e.Book(context.Background(), "e1", attendee("u3"), "T")
	require.NoError(t, err)
	require.Equal(t, models.StatusWaitlisted, b2.Status)
	require.Equal(t, models.StatusWaitlisted, b3.Status)

	canceled, err := e.Cancel(context.Background(), b1.BookingID, attendee("u1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, canceled.Status)

	promoted, err := store.BookingByID(context.Background(), b2.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, promoted.Status, "oldest waitlisted wins the freed seat")

	still, err := store.BookingByID(context.Background(), b3.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaitlisted, still.Status)

	assert.Contains(t, store.notificationTypes(), models.NotifyWaitlistPromoted)
	assert.Contains(t, store.logActions(), models.ActionPromoteFromWaitlist)
}

func TestCancelIsIdempotent(t *testing.T) {
	store := newMemStore(models.Event{EventID: "e1", Title: "Launch", Capacity: 1, Tenant: "T"})
	e := testEngine(store)

	b1, err := e.Book(context.Background(), "e1", attendee("u1"), "T")
	require.NoError(t, err)
	_, err = e.Book(context.Background(), "e1", attendee("u2"), "T")
	require.NoError(t, err)
	_, err = e.Book(context.Background(), "e1", attendee("u3"), "T")
	require.NoError(t, err)

	_, err = e.Cancel(context.Background(), b1.BookingID, attendee("u1"))
	require.NoError(t, err)
	logsAfterFirst := len(store.logActions())

	again, err := e.Cancel(context.Background(), b1.BookingID, attendee("u1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, again.Status)
	assert.Len(t, store.logActions(), logsAfterFirst, "repeat cancel writes nothing and promotes no one")

	confirmed, err := store.CountByStatus(context.Background(), "e1", models.StatusConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, confirmed, "only one promotion per freed seat")
}

func TestCancelOwnership(t *testing.T) {
	store := newMemStore(models.Event{EventID: "e1", Title: "Launch", Capacity: 5, Tenant: "T"})
	e := testEngine(store)

	b, err := e.Book(context.Background(), "e1", attendee("u1"), "T")
	require.NoError(t, err)

	_, err = e.Cancel(context.Background(), b.BookingID, attendee("u2"))
	assert.ErrorIs(t, err, ErrForbidden)

	staff := &models.User{UserID: "org1", Role: models.RoleOrganizer, Tenant: "T"}
	_, err = e.Cancel(context.Background(), b.BookingID, staff)
	assert.NoError(t, err)
}

func TestCancelUnknownBooking(t *testing.T) {
	e := testEngine(newMemStore())
	_, err := e.Cancel(context.Background(), "nope", attendee("u1"))
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestConcurrentCancelSameBookingPromotesOnce(t *testing.T) {
	inner := newMemStore(models.Event{EventID: "e1", Title: "Launch", Capacity: 1, Tenant: "T"})
	store := newGatedStore(inner)
	e := testEngine(store)

	b1, err := e.Book(context.Background(), "e1", attendee("u1"), "T")
	require.NoError(t, err)
	_, err = e.Book(context.Background(), "e1", attendee("u2"), "T")
	require.NoError(t, err)
	b3, err := e.Book(context.Background(), "e1", attendee("u3"), "T")
	require.NoError(t, err)

	// Both cancels read the booking as still confirmed before either locks.
	store.arm(2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Cancel(context.Background(), b1.BookingID, attendee("u1"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	confirmed, err := inner.CountByStatus(context.Background(), "e1", models.StatusConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, confirmed, "one freed seat confirms one booking")

	still, err := inner.BookingByID(context.Background(), b3.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaitlisted, still.Status)

	assert.Equal(t, 1, countOf(inner.logActions(), models.ActionCancelConfirmed))
	assert.Equal(t, 1, countOf(inner.logActions(), models.ActionPromoteFromWaitlist))
	assert.Equal(t, 1, countOf(inner.notificationTypes(), models.NotifyBookingCanceled))
	assert.Equal(t, 1, countOf(inner.notificationTypes(), models.NotifyWaitlistPromoted))
}

func TestConcurrentCancelDistinctBookings(t *testing.T) {
	inner := newMemStore(models.Event{EventID: "e1", Title: "Launch", Capacity: 2, Tenant: "T"})
	store := newGatedStore(inner)
	e := testEngine(store)

	b1, err := e.Book(context.Background(), "e1", attendee("u1"), "T")
	require.NoError(t, err)
	b2, err := e.Book(context.Background(), "e1", attendee("u2"), "T")
	require.NoError(t, err)
	_, err = e.Book(context.Background(), "e1", attendee("u3"), "T")
	require.NoError(t, err)
	_, err = e.Book(context.Background(), "e1", attendee("u4"), "T")
	require.NoError(t, err)

	store.arm(2)
	var wg sync.WaitGroup
	for _, c := range []struct {
		booking string
		user    string
	}{{b1.BookingID, "u1"}, {b2.BookingID, "u2"}} {
		wg.Add(1)
		go func(bookingID, userID string) {
			defer wg.Done()
			_, err := e.Cancel(context.Background(), bookingID, attendee(userID))
			assert.NoError(t, err)
		}(c.booking, c.user)
	}
	wg.Wait()

	confirmed, err := inner.CountByStatus(context.Background(), "e1", models.StatusConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 2, confirmed, "both freed seats are refilled")

	waitlisted, err := inner.CountByStatus(context.Background(), "e1", models.StatusWaitlisted)
	require.NoError(t, err)
	assert.EqualValues(t, 0, waitlisted)

	assert.Equal(t, 2, countOf(inner.logActions(), models.ActionCancelConfirmed))
	assert.Equal(t, 2, countOf(inner.logActions(), models.ActionPromoteFromWaitlist))
}

func TestConcurrentBookingNeverOvershootsCapacity(t *testing.T) {
	const capacity = 3
	const attendees = 20

	store := newMemStore(models.Event{EventID: "e1", Title: "Rush", Capacity: capacity, Tenant: "T"})
	e := testEngine(store)

	var wg sync.WaitGroup
	for i := 0; i < attendees; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.Book(context.Background(), "e1", attendee(fmt.Sprintf("u%d", i)), "T")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	confirmed, err := store.CountByStatus(context.Background(), "e1", models.StatusConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, capacity, confirmed)

	waitlisted, err := store.CountByStatus(context.Background(), "e1", models.StatusWaitlisted)
	require.NoError(t, err)
	assert.EqualValues(t, attendees-capacity, waitlisted)
}
