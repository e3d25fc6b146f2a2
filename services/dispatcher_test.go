package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestDispatcherNotificationEvent(t *testing.T) {
	db := newTestDB(t)
	_, client := newTestRedis(t)
	d := &Dispatcher{db: db, realtime: NewRedisPublisher(client)}

	sub := client.Subscribe(context.Background(), UserRoom(7), UserRoom(8))
	t.Cleanup(func() { sub.Close() })
	// One confirmation arrives per subscribed channel.
	for i := 0; i < 2; i++ {
		_, err := sub.Receive(context.Background())
		require.NoError(t, err)
	}

	d.Dispatch(context.Background(), []Event{NotificationEvent{
		ActorID:      1,
		RecipientIDs: []int{7, 8},
		Content:      "Your application moved forward.",
		Category:     models.NotificationCategoryAdoption,
		DeepLink:     "/adoption-form/3",
	}})

	var rows []models.Notification
	require.NoError(t, db.Order("recipient_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, 7, rows[0].RecipientID)
	assert.Equal(t, 8, rows[1].RecipientID)
	assert.Equal(t, "Your application moved forward.", rows[0].Content)
	assert.False(t, rows[0].IsRead)

	// Each recipient's room got a realtime copy of the stored row.
	for i := 0; i < 2; i++ {
		msg, err := sub.ReceiveTimeout(context.Background(), time.Second)
		require.NoError(t, err)
		m, ok := msg.(*redis.Message)
		require.True(t, ok, "expected a message, got %T", msg)

		var envelope struct {
			Event   string              `json:"event"`
			Payload models.Notification `json:"payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(m.Payload), &envelope))
		assert.Equal(t, EventNotification, envelope.Event)
		assert.NotZero(t, envelope.Payload.NotificationID)
	}
}

func TestDispatcherRealtimeEvent(t *testing.T) {
	db := newTestDB(t)
	_, client := newTestRedis(t)
	d := &Dispatcher{db: db, realtime: NewRedisPublisher(client)}

	sub := client.Subscribe(context.Background(), ShelterRoom(5))
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	d.Dispatch(context.Background(), []Event{RealtimeEvent{
		Room:  ShelterRoom(5),
		Event: EventSubmissionStatusChanged,
		Payload: SubmissionStatusPayload{
			SubmissionID: 11, PetID: 3, Status: models.SubmissionStatusScheduling,
		},
	}})

	msg, err := sub.ReceiveTimeout(context.Background(), time.Second)
	require.NoError(t, err)
	m, ok := msg.(*redis.Message)
	require.True(t, ok)

	var envelope struct {
		Event   string                  `json:"event"`
		Payload SubmissionStatusPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(m.Payload), &envelope))
	assert.Equal(t, EventSubmissionStatusChanged, envelope.Event)
	assert.Equal(t, 11, envelope.Payload.SubmissionID)
	assert.Equal(t, models.SubmissionStatusScheduling, envelope.Payload.Status)
}

func TestDispatcherWithoutRealtime(t *testing.T) {
	db := newTestDB(t)
	d := &Dispatcher{db: db}

	// No realtime backend configured: notifications still land in the
	// database, nothing panics.
	d.Dispatch(context.Background(), []Event{NotificationEvent{
		ActorID:      1,
		RecipientIDs: []int{2},
		Content:      "hello",
		Category:     models.NotificationCategorySystem,
	}})

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDispatcherEmail(t *testing.T) {
	db := newTestDB(t)

	var sent [][]string
	d := &Dispatcher{
		db: db,
		sendMail: func(to []string, subject, html string) error {
			sent = append(sent, to)
			return nil
		},
		syncMail: true,
	}

	d.Dispatch(context.Background(), []Event{EmailEvent{
		To:      []string{"adopter@example.com"},
		Subject: "Adoption approved",
		HTML:    "<p>congrats</p>",
	}})
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"adopter@example.com"}, sent[0])
}

func TestDispatcherEmailFailureSwallowed(t *testing.T) {
	db := newTestDB(t)
	d := &Dispatcher{
		db: db,
		sendMail: func(to []string, subject, html string) error {
			return errors.New("smtp down")
		},
		syncMail: true,
	}

	// Must not panic or surface the error.
	d.Dispatch(context.Background(), []Event{EmailEvent{
		To:      []string{"adopter@example.com"},
		Subject: "Adoption approved",
		HTML:    "<p>congrats</p>",
	}})
}
