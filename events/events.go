package events

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"eventra/access"
	"eventra/db"
	"eventra/models"
	"eventra/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateEvent handles POST /api/events.
func CreateEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Date        time.Time `json:"date"`
		Capacity    int       `json:"capacity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(body.Title) == "" || body.Date.IsZero() {
		utils.RespondWithError(w, http.StatusBadRequest, "Title and date required")
		return
	}
	if body.Capacity < 1 {
		utils.RespondWithError(w, http.StatusBadRequest, "Capacity must be positive")
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

	event := models.Event{
		EventID:     utils.GenerateID(14),
		Title:       strings.TrimSpace(body.Title),
		Description: body.Description,
		Date:        body.Date.UTC(),
		Capacity:    body.Capacity,
		Organizer:   req.Actor.UserID,
		Tenant:      access.StampTenant(req),
		CreatedAt:   time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := db.EventsCollection.InsertOne(ctx, event); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"event": event})
}

// GetEvents handles GET /api/events, scoped by the read predicate.
func GetEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := access.FromRequest(r)
	dec := access.Default.ResourceRead(r.Context(), req, nil)
	if !dec.Allowed {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	filter := bson.M{}
	if dec.Filter != nil {
		filter = dec.Filter
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "date", Value: 1}})
	list, err := utils.FindAndDecode[models.Event](ctx, db.EventsCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"events": list})
}

// GetEvent handles GET /api/events/:eventid.
func GetEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	req := access.FromRequest(r)
	dec := access.Default.ResourceRead(r.Context(), req, nil)
	if !dec.Allowed {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	filter := bson.M{"eventid": ps.ByName("eventid")}
	if dec.Filter != nil {
		filter = bson.M{"$and": []bson.M{filter, dec.Filter}}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var event models.Event
	if err := db.EventsCollection.FindOne(ctx, filter).Decode(&event); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"event": event})
}

// EditEvent handles PUT /api/events/:eventid. Organizer or admin only; the
// tenant field is restamped server-side, never taken from the payload.
func EditEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	var body struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Date        *time.Time `json:"date"`
		Capacity    *int       `json:"capacity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	req := access.FromRequest(r)
	if req.Actor == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !req.Actor.IsStaff() {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}
	dec := access.Default.ResourceRead(r.Context(), req, nil)
	if !dec.Allowed {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	filter := bson.M{"eventid": eventID}
	if dec.Filter != nil {
		filter = bson.M{"$and": []bson.M{filter, dec.Filter}}
	}

	update := bson.M{"updatedAt": time.Now().UTC()}
	if body.Title != nil && strings.TrimSpace(*body.Title) != "" {
		update["title"] = strings.TrimSpace(*body.Title)
	}
	if body.Description != nil {
		update["description"] = *body.Description
	}
	if body.Date != nil {
		update["date"] = body.Date.UTC()
	}
	if body.Capacity != nil {
		if *body.Capacity < 1 {
			utils.RespondWithError(w, http.StatusBadRequest, "Capacity must be positive")
			return
		}
		update["capacity"] = *body.Capacity
	}
	if stamped := access.StampTenant(req); stamped != "" {
		update["tenant"] = stamped
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res := db.EventsCollection.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Event
	if err := res.Decode(&updated); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"event": updated})
}

// DeleteEvent handles DELETE /api/events/:eventid.
func DeleteEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	req := access.FromRequest(r)
	if req.Actor == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !req.Actor.IsStaff() {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}
	dec := access.Default.ResourceRead(r.Context(), req, nil)
	if !dec.Allowed {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	filter := bson.M{"eventid": eventID}
	if dec.Filter != nil {
		filter = bson.M{"$and": []bson.M{filter, dec.Filter}}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.EventsCollection.DeleteOne(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
