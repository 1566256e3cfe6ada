package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEventsFilterOnlyUpcoming(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.M{"date": bson.M{"$gte": now}}, eventsFilter(nil, now))

	scoped := eventsFilter(bson.M{"tenant": "T"}, now)
	assert.Equal(t, bson.M{"$and": []bson.M{
		{"tenant": "T"},
		{"date": bson.M{"$gte": now}},
	}}, scoped)
}
