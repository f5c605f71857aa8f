//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type mapActionEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      string    `json:"action"`
	TargetID  string    `json:"target_id"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6380", "Redis address for streams")
	userID := flag.String("user", "11111111-1111-1111-1111-111111111111", "user id")
	action := flag.String("action", "save", "map action")
	target := flag.String("target", "", "building or marker id")
	note := flag.String("note", "", "note for update_marker_note")
	flag.Parse()

	if *target == "" {
		log.Fatal("-target is required")
	}

	uid, err := uuid.Parse(*userID)
	if err != nil {
		log.Fatalf("Invalid user id: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := mapActionEvent{
		EventID:   uuid.New(),
		UserID:    uid,
		Kind:      *action,
		TargetID:  *target,
		CreatedAt: time.Now().UTC(),
	}
	if *note != "" {
		event.Note = note
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:map:actions",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: stream:map:actions\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Event ID: %s\n", event.EventID)
	fmt.Printf("   Action: %s -> %s\n", event.Kind, event.TargetID)

	// Ждём, пока воркер подтвердит сообщение
	timeout := time.After(30 * time.Second)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			fmt.Println("Timeout waiting for the worker to ack the event")
			return
		case <-ticker.C:
			groups, err := client.XInfoGroups(ctx, "stream:map:actions").Result()
			if err != nil {
				continue
			}
			for _, g := range groups {
				if g.Pending == 0 && g.LastDeliveredID >= result {
					fmt.Printf("Acked by group %s\n", g.Name)
					return
				}
			}
		}
	}
}
