// Package notify defines the notification interface and implementations
// for operator alert delivery.
package notify

import (
	"context"
)

// EventKind classifies an operator event.
type EventKind string

// Event kinds worth waking an operator for.
const (
	EventDailyLimitReached EventKind = "daily_limit_reached"
	EventThrottleStreak    EventKind = "throttle_streak"
)

// Event carries the data needed to send an operator notification.
type Event struct {
	Kind   EventKind
	Scope  string
	Detail string
	Count  int
}

// Notifier defines the interface for sending operator notifications.
// Sends are best effort; collection never blocks on delivery.
type Notifier interface {
	SendEvent(ctx context.Context, ev Event) error
}
