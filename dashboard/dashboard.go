package dashboard

import (
	"context"
	"net/http"
	"time"

	"eventra/access"
	"eventra/db"
	"eventra/models"
	"eventra/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetDashboard handles GET /api/dashboard. Staff only. Events are scoped
// through the resource-read predicate, so an organizer sees the stats of
// their tenant subtree and an admin sees everything.
func GetDashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

	filter := eventsFilter(dec.Filter, time.Now().UTC())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	events, err := utils.FindAndDecode[models.Event](ctx, db.EventsCollection, filter,
		options.Find().SetSort(bson.M{"date": 1}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	stats := make([]models.EventStats, 0, len(events))
	var summary models.DashboardSummary
	summary.TotalEvents = len(events)

	for _, ev := range events {
		st := models.EventStats{
			EventID:  ev.EventID,
			Title:    ev.Title,
			Date:     ev.Date,
			Capacity: ev.Capacity,
		}

		st.ConfirmedCount, err = countByStatus(ctx, ev.EventID, models.StatusConfirmed)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "db error")
			return
		}
		st.WaitlistedCount, err = countByStatus(ctx, ev.EventID, models.StatusWaitlisted)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "db error")
			return
		}
		st.CanceledCount, err = countByStatus(ctx, ev.EventID, models.StatusCanceled)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "db error")
			return
		}

		if ev.Capacity > 0 {
			st.PercentageFilled = float64(st.ConfirmedCount) / float64(ev.Capacity) * 100
		}

		summary.TotalConfirmed += st.ConfirmedCount
		summary.TotalWaitlisted += st.WaitlistedCount
		summary.TotalCanceled += st.CanceledCount

		stats = append(stats, st)
	}

	logFilter := bson.M{}
	if tenant := activeTenant(req); tenant != "" {
		logFilter["tenant"] = tenant
	}
	recentLogs, err := utils.FindAndDecode[models.BookingLog](ctx, db.BookingLogsCollection, logFilter,
		options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(5))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"events":     stats,
		"summary":    summary,
		"recentLogs": recentLogs,
	})
}

// eventsFilter narrows the access filter to upcoming events; past events
// carry no actionable stats.
func eventsFilter(scope bson.M, now time.Time) bson.M {
	upcoming := bson.M{"date": bson.M{"$gte": now}}
	if scope == nil {
		return upcoming
	}
	return bson.M{"$and": []bson.M{scope, upcoming}}
}

func countByStatus(ctx context.Context, eventID, status string) (int64, error) {
	return db.BookingsCollection.CountDocuments(ctx, bson.M{"event": eventID, "status": status})
}

func activeTenant(req access.Request) string {
	if req.Tenant != "" {
		return req.Tenant
	}
	if req.Actor != nil {
		return req.Actor.Tenant
	}
	return ""
}
