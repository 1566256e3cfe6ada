// Package mq fans notifications out over redis pub/sub so any instance can
// push them to its connected websocket clients. Persistence happens before
// publish; a dropped message only costs the live push.
package mq

import (
	"context"
	"encoding/json"
	"log"

	"eventra/models"
	"eventra/rdx"
)

const notifyChannel = "notify-events"

// DefaultPublisher satisfies the booking engine's Publisher.
type DefaultPublisher struct{}

func (DefaultPublisher) Publish(n models.Notification) {
	Emit(context.Background(), n)
}

// Emit publishes a notification to the fan-out channel.
func Emit(ctx context.Context, n models.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		log.Printf("[Emit] Failed to marshal notification: %v", err)
		return
	}

	if err := rdx.Conn.Publish(ctx, notifyChannel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish notification: %v", err)
	}
}

// StartNotifyWorker listens on the fan-out channel and hands each
// notification to push (the websocket registry, wired in main). Blocks;
// run in a goroutine.
func StartNotifyWorker(push func(n models.Notification)) {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, notifyChannel)
	ch := sub.Channel()

	log.Println("[NotifyWorker] Listening for notifications...")

	for msg := range ch {
		var n models.Notification
		if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
			log.Printf("[NotifyWorker] Failed to parse notification: %v", err)
			continue
		}
		push(n)
	}
}
