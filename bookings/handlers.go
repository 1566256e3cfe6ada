package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"eventra/access"
	"eventra/db"
	"eventra/models"
	"eventra/mq"
	"eventra/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default is the engine behind the HTTP handlers, wired in main.
var Default *Engine

func InitDefault() {
	Default = NewEngine(MongoStore{}, mq.DefaultPublisher{})
}

// BookEvent handles POST /api/book-event {"event": id}.
func BookEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Event string `json:"event"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if body.Event == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Event required")
		return
	}

	req := access.FromRequest(r)
	if req.Actor == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if dec := access.Default.ResourceCreate(r.Context(), req, nil); !dec.Allowed {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	booking, err := Default.Book(ctx, body.Event, req.Actor, access.StampTenant(req))
	switch {
	case errors.Is(err, ErrEventNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
	case errors.Is(err, ErrAlreadyBooked):
		utils.RespondWithError(w, http.StatusBadRequest, "Already booked")
	case err != nil:
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
	default:
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": booking})
	}
}

// CancelBooking handles POST /api/cancel-booking {"booking": id}.
func CancelBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Booking string `json:"booking"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if body.Booking == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Booking required")
		return
	}

	req := access.FromRequest(r)
	if req.Actor == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	booking, err := Default.Cancel(ctx, body.Booking, req.Actor)
	switch {
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrEventNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
	case errors.Is(err, ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
	case err != nil:
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
	default:
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": booking})
	}
}

// ListBookings handles GET /api/bookings, scoped by the read predicate.
func ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := access.FromRequest(r)
	dec := access.Default.ResourceRead(r.Context(), req, nil)
	if !dec.Allowed {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	filter := bson.M{}
	if v := r.URL.Query().Get("event"); v != "" {
		filter["event"] = v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter["status"] = v
	}
	if dec.Filter != nil {
		filter = bson.M{"$and": []bson.M{filter, dec.Filter}}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	list, err := utils.FindAndDecode[models.Booking](ctx, db.BookingsCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": list})
}
