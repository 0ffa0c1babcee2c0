package notify

import (
	"context"
	"errors"
	"fmt"

	"busticket/internal/domain/models"
	"busticket/internal/utils"
)

// Message is one booking notification.
type Message = models.Notification

// Sink accepts notifications. Callers treat delivery as best effort.
type Sink interface {
	Notify(ctx context.Context, msg Message) error
}

// Recorder persists a notification into the admin feed.
type Recorder interface {
	Insert(ctx context.Context, n models.Notification) error
}

// LogSink writes one log line per message. Recipients are not logged.
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, msg Message) error {
	utils.LogEvent(utils.RequestIDFrom(ctx), "NOTIFY", string(msg.Kind),
		fmt.Sprintf("reference=%s travel_date=%s time=%s", msg.Reference, msg.TravelDate, msg.Time))
	return nil
}

// StoreSink appends to the notifications table.
type StoreSink struct {
	Store Recorder
}

func (s StoreSink) Notify(ctx context.Context, msg Message) error {
	if s.Store == nil {
		return errors.New("notification store not configured")
	}
	return s.Store.Insert(ctx, msg)
}

// MultiSink fans out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
