package services

import "fmt"

// Realtime event names pushed to socket rooms. The socket gateway
// subscribes to the Redis channels and forwards verbatim.
const (
	EventSubmissionCreated       = "adoptionSubmission:created"
	EventSubmissionStatusChanged = "adoptionSubmission:statusChanged"
	EventInterviewSchedule       = "adoptionSubmission:interviewSchedule"
	EventSelectedSchedule        = "adoptionSubmission:selectedSchedule"
	EventAssigneeChanged         = "adoptionSubmission:assigneeChanged"
	EventConsentStatusChanged    = "consentForm:statusChanged"
	EventNotification            = "notification"
)

// UserRoom names the realtime room of a single user.
func UserRoom(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

// ShelterRoom names the realtime room shared by a shelter's members.
func ShelterRoom(shelterID int) string {
	return fmt.Sprintf("shelter:%d", shelterID)
}

// Event is an outbound side effect recorded by a state machine while it
// holds the transaction. Events are handed to the Dispatcher only after
// the state change has been committed, so delivery failures can never
// roll back a transition.
type Event interface {
	isEvent()
}

// NotificationEvent fans a message out to a set of recipients: one
// notification row each, plus a realtime push of the stored row.
type NotificationEvent struct {
	ActorID      int
	RecipientIDs []int
	Content      string
	Category     string
	DeepLink     string
}

// RealtimeEvent publishes a named payload to one room.
type RealtimeEvent struct {
	Room    string
	Event   string
	Payload interface{}
}

// EmailEvent sends a best effort HTML mail.
type EmailEvent struct {
	To      []string
	Subject string
	HTML    string
}

func (NotificationEvent) isEvent() {}
func (RealtimeEvent) isEvent()     {}
func (EmailEvent) isEvent()        {}

// SubmissionStatusPayload is the wire payload of
// adoptionSubmission:statusChanged events.
type SubmissionStatusPayload struct {
	SubmissionID int    `json:"submissionId"`
	PetID        int    `json:"petId"`
	Status       string `json:"status"`
}

// ConsentStatusPayload is the wire payload of consentForm:statusChanged
// events. AdopterID is filled only on the shelter room copy.
type ConsentStatusPayload struct {
	ConsentFormID int    `json:"consentFormId"`
	PetID         int    `json:"petId"`
	Status        string `json:"status"`
	AdopterID     int    `json:"adopterId,omitempty"`
}
