package services

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"pet-adoption-api/config"
	"pet-adoption-api/models"
)

// MailSender matches config.SendMail.
type MailSender func(to []string, subject, html string) error

// Dispatcher consumes the domain events emitted by the state machines
// and fans them out to notification rows, realtime rooms and email.
// Every delivery is at-least-once and best effort: failures are logged,
// never returned, because by the time an event exists its state change
// has already been committed.
type Dispatcher struct {
	db       *gorm.DB
	realtime RealtimePublisher
	sendMail MailSender

	// syncMail forces inline email delivery; tests flip it so they can
	// observe the send without racing a goroutine.
	syncMail bool
}

func NewDispatcher(db *gorm.DB, realtime RealtimePublisher) *Dispatcher {
	if db == nil {
		db = config.DB
	}
	return &Dispatcher{db: db, realtime: realtime, sendMail: config.SendMail}
}

// Dispatch delivers the given events in order. Safe to call with an
// empty slice.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case NotificationEvent:
			d.deliverNotification(ctx, e)
		case RealtimeEvent:
			d.publish(ctx, e.Room, e.Event, e.Payload)
		case EmailEvent:
			d.deliverEmail(e)
		default:
			log.Printf("dispatcher: unknown event type %T", ev)
		}
	}
}

func (d *Dispatcher) deliverNotification(ctx context.Context, e NotificationEvent) {
	for _, recipientID := range e.RecipientIDs {
		notification := models.Notification{
			ActorID:     e.ActorID,
			RecipientID: recipientID,
			Content:     e.Content,
			Category:    e.Category,
			DeepLink:    e.DeepLink,
			CreateAt:    time.Now(),
		}
		if err := d.db.Create(&notification).Error; err != nil {
			log.Printf("dispatcher: create notification for user %d: %v", recipientID, err)
			continue
		}
		d.publish(ctx, UserRoom(recipientID), EventNotification, notification)
	}
}

func (d *Dispatcher) publish(ctx context.Context, room, event string, payload interface{}) {
	if d.realtime == nil {
		return
	}
	if err := d.realtime.Publish(ctx, room, event, payload); err != nil {
		log.Printf("dispatcher: publish %s to %s: %v", event, room, err)
	}
}

func (d *Dispatcher) deliverEmail(e EmailEvent) {
	if d.sendMail == nil || len(e.To) == 0 {
		return
	}
	send := func() {
		if err := d.sendMail(e.To, e.Subject, e.HTML); err != nil {
			log.Printf("dispatcher: send mail %q: %v", e.Subject, err)
		}
	}
	if d.syncMail {
		send()
		return
	}
	go send()
}
