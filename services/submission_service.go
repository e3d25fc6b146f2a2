package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pet-adoption-api/config"
	"pet-adoption-api/models"
)

// submissionTransitions is the allowed transition table. A target outside
// the current status's row is rejected outright; the only bypass is the
// system cascade in rejectRivals, which fires inside the consent
// approval transaction.
var submissionTransitions = map[string][]string{
	models.SubmissionStatusPending: {
		models.SubmissionStatusPending,
		models.SubmissionStatusScheduling,
		models.SubmissionStatusRejected,
	},
	models.SubmissionStatusScheduling: {
		models.SubmissionStatusPending,
		models.SubmissionStatusInterviewing,
		models.SubmissionStatusRejected,
		models.SubmissionStatusScheduling,
	},
	models.SubmissionStatusInterviewing: {
		models.SubmissionStatusRejected,
		models.SubmissionStatusReviewed,
		models.SubmissionStatusInterviewing,
	},
	models.SubmissionStatusReviewed: {
		models.SubmissionStatusReviewed,
		models.SubmissionStatusApproved,
		models.SubmissionStatusRejected,
	},
	models.SubmissionStatusApproved: {models.SubmissionStatusApproved},
	models.SubmissionStatusRejected: {models.SubmissionStatusRejected},
}

// SubmissionService owns the adoption submission lifecycle: creation
// (validation + scoring), the status state machine and the interview
// sub-lifecycle. All status writes go through conditional updates so two
// concurrent transitions can never both succeed on stale state.
type SubmissionService struct {
	db         *gorm.DB
	dispatcher *Dispatcher
}

func NewSubmissionService(db *gorm.DB, dispatcher *Dispatcher) *SubmissionService {
	if db == nil {
		db = config.DB
	}
	return &SubmissionService{db: db, dispatcher: dispatcher}
}

func (s *SubmissionService) dispatch(ctx context.Context, events []Event) {
	if s.dispatcher == nil || len(events) == 0 {
		return
	}
	s.dispatcher.Dispatch(ctx, events)
}

// ===================== CREATION =====================

// CreateInput is the payload of a new adoption submission.
type CreateInput struct {
	UserID         int
	AdoptionFormID int
	Answers        []RawAnswer
}

// Create validates the application against the form's question set and
// the creation preconditions, scores it, and stores it as pending.
func (s *SubmissionService) Create(ctx context.Context, in CreateInput) (*models.AdoptionSubmission, error) {
	var form models.AdoptionForm
	if err := s.db.Preload("Questions.Question.Options").Preload("Pet").
		Where("adoption_form_id = ? AND delete_at IS NULL", in.AdoptionFormID).
		First(&form).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("adoption form")
		}
		return nil, err
	}

	if form.Status != models.FormStatusActive {
		return nil, newError(ErrCodeFormNotActive, "the adoption form is not open for applications")
	}
	if form.Pet == nil || form.Pet.Status != models.PetStatusAvailable {
		return nil, newError(ErrCodePetNotAvailable, "the pet is no longer available for adoption")
	}

	// Conflict of interest: shelter members cannot apply to their own
	// shelter's pets.
	var memberCount int64
	if err := s.db.Model(&models.ShelterMember{}).
		Where("shelter_id = ? AND user_id = ?", form.ShelterID, in.UserID).
		Count(&memberCount).Error; err != nil {
		return nil, err
	}
	if memberCount > 0 {
		return nil, newError(ErrCodeApplicantIsShelterMember,
			"shelter members cannot apply for their own shelter's pets")
	}

	var existing int64
	if err := s.db.Model(&models.AdoptionSubmission{}).
		Where("user_id = ? AND adoption_form_id = ?", in.UserID, in.AdoptionFormID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, newError(ErrCodeDuplicateSubmission, "you already applied for this pet")
	}

	questions := formQuestions(&form)
	normalized, err := ValidateAnswers(questions, in.Answers)
	if err != nil {
		return nil, err
	}

	total := MatchPercentage(questions, normalized)

	// Throttling snapshot: pets this user adopted within the last month.
	oneMonthAgo := time.Now().AddDate(0, -1, 0)
	var adoptionsLastMonth int64
	if err := s.db.Model(&models.Pet{}).
		Where("adopter_id = ? AND status = ? AND update_at >= ?",
			in.UserID, models.PetStatusAdopted, oneMonthAgo).
		Count(&adoptionsLastMonth).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	submission := models.AdoptionSubmission{
		SubmissionCode:     generateSubmissionCode(),
		AdoptionFormID:     in.AdoptionFormID,
		UserID:             in.UserID,
		AdoptionsLastMonth: int(adoptionsLastMonth),
		Total:              total,
		Status:             models.SubmissionStatusPending,
		CreateAt:           now,
		UpdateAt:           now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}
		for _, ans := range normalized {
			answer := models.SubmissionAnswer{
				SubmissionID: submission.SubmissionID,
				QuestionID:   ans.QuestionID,
				Selections:   ans.Selections,
			}
			if err := tx.Create(&answer).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, []Event{
		RealtimeEvent{
			Room:  ShelterRoom(form.ShelterID),
			Event: EventSubmissionCreated,
			Payload: SubmissionStatusPayload{
				SubmissionID: submission.SubmissionID,
				PetID:        form.PetID,
				Status:       submission.Status,
			},
		},
	})

	return &submission, nil
}

func formQuestions(form *models.AdoptionForm) []models.Question {
	questions := make([]models.Question, 0, len(form.Questions))
	for _, fq := range form.Questions {
		if fq.Question != nil {
			questions = append(questions, *fq.Question)
		}
	}
	return questions
}

func generateSubmissionCode() string {
	return "ADS-" + strings.ToUpper(uuid.NewString()[:8])
}

// ===================== STATUS TRANSITIONS =====================

// UpdateStatus moves a submission along the transition table. The write
// is conditional on the status it was validated against, so a concurrent
// transition makes this one fail with STALE_STATUS instead of silently
// overwriting.
func (s *SubmissionService) UpdateStatus(ctx context.Context, submissionID int, target string) (*models.AdoptionSubmission, error) {
	submission, err := s.getWithForm(submissionID)
	if err != nil {
		return nil, err
	}

	allowed, ok := submissionTransitions[submission.Status]
	if !ok {
		return nil, newError(ErrCodeConflict, "submission has unknown status %q", submission.Status)
	}
	if !contains(allowed, target) {
		return nil, ErrInvalidTransition(submission.Status, target, allowed)
	}

	if err := s.casStatus(submissionID, submission.Status, map[string]interface{}{
		"status":    target,
		"update_at": time.Now(),
	}); err != nil {
		return nil, err
	}
	submission.Status = target

	s.dispatch(ctx, s.statusChangedEvents(submission))
	return submission, nil
}

func (s *SubmissionService) statusChangedEvents(submission *models.AdoptionSubmission) []Event {
	petID := 0
	events := []Event{}
	if submission.AdoptionForm != nil {
		petID = submission.AdoptionForm.PetID
	}
	payload := SubmissionStatusPayload{
		SubmissionID: submission.SubmissionID,
		PetID:        petID,
		Status:       submission.Status,
	}
	events = append(events, RealtimeEvent{
		Room:    UserRoom(submission.UserID),
		Event:   EventSubmissionStatusChanged,
		Payload: payload,
	})
	if submission.AdoptionForm != nil {
		events = append(events, RealtimeEvent{
			Room:    ShelterRoom(submission.AdoptionForm.ShelterID),
			Event:   EventSubmissionStatusChanged,
			Payload: payload,
		})
	}
	return events
}

// casStatus performs the compare-and-swap status write. RowsAffected of
// zero means somebody else transitioned first.
func (s *SubmissionService) casStatus(submissionID int, expectedStatus string, updates map[string]interface{}) error {
	res := s.db.Model(&models.AdoptionSubmission{}).
		Where("submission_id = ? AND status = ?", submissionID, expectedStatus).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return newError(ErrCodeStaleStatus,
			"submission status changed concurrently, reload and retry")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (s *SubmissionService) getWithForm(submissionID int) (*models.AdoptionSubmission, error) {
	var submission models.AdoptionSubmission
	if err := s.db.Preload("AdoptionForm").
		Where("submission_id = ? AND delete_at IS NULL", submissionID).
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("adoption submission")
		}
		return nil, err
	}
	return &submission, nil
}

// ===================== INTERVIEW SUB-LIFECYCLE =====================

// ScheduleInterviewInput carries the staff side of interview scheduling.
type ScheduleInterviewInput struct {
	SubmissionID    int
	AvailableFrom   time.Time
	AvailableTo     time.Time
	Method          string
	AssignedStaffID int
	ReviewedByID    int
}

// ScheduleInterview attaches an interview window to a scheduling
// submission and advances it to interviewing. The assigned staff must
// belong to the shelter that owns the pet.
func (s *SubmissionService) ScheduleInterview(ctx context.Context, in ScheduleInterviewInput) (*models.AdoptionSubmission, error) {
	submission, err := s.getWithForm(in.SubmissionID)
	if err != nil {
		return nil, err
	}
	if submission.Status != models.SubmissionStatusScheduling {
		return nil, ErrInvalidTransition(submission.Status,
			models.SubmissionStatusInterviewing,
			submissionTransitions[submission.Status])
	}

	if !in.AvailableFrom.Before(in.AvailableTo) {
		return nil, newError(ErrCodeValidation, "interview window must start before it ends")
	}
	if !in.AvailableTo.After(time.Now()) {
		return nil, newError(ErrCodeValidation, "interview window must end in the future")
	}

	if submission.AdoptionForm == nil {
		return nil, ErrNotFound("adoption form")
	}
	var member models.ShelterMember
	if err := s.db.Where("shelter_id = ? AND user_id = ?",
		submission.AdoptionForm.ShelterID, in.AssignedStaffID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrCodeStaffNotInShelter,
				"assigned staff does not belong to the pet's shelter")
		}
		return nil, err
	}

	now := time.Now()
	interviewID := uuid.NewString()
	if err := s.casStatus(in.SubmissionID, models.SubmissionStatusScheduling, map[string]interface{}{
		"status":                      models.SubmissionStatusInterviewing,
		"interview_id":                interviewID,
		"interview_available_from":    in.AvailableFrom,
		"interview_available_to":      in.AvailableTo,
		"interview_method":            in.Method,
		"interview_assigned_staff_id": in.AssignedStaffID,
		"interview_reviewed_by_id":    in.ReviewedByID,
		"interview_create_at":         now,
		"interview_update_at":         now,
		"update_at":                   now,
	}); err != nil {
		return nil, err
	}

	submission.Status = models.SubmissionStatusInterviewing
	submission.Interview = models.Interview{
		InterviewID:     interviewID,
		AvailableFrom:   &in.AvailableFrom,
		AvailableTo:     &in.AvailableTo,
		Method:          in.Method,
		AssignedStaffID: &in.AssignedStaffID,
		ReviewedByID:    &in.ReviewedByID,
		CreateAt:        &now,
		UpdateAt:        &now,
	}

	events := []Event{
		NotificationEvent{
			ActorID:      in.ReviewedByID,
			RecipientIDs: []int{submission.UserID},
			Content:      "Your adoption application has an interview schedule, please pick a slot.",
			Category:     models.NotificationCategoryAdoption,
			DeepLink:     fmt.Sprintf("/adoption-form/%d", submission.AdoptionForm.PetID),
		},
		RealtimeEvent{
			Room:  UserRoom(submission.UserID),
			Event: EventInterviewSchedule,
			Payload: SubmissionStatusPayload{
				SubmissionID: submission.SubmissionID,
				PetID:        submission.AdoptionForm.PetID,
				Status:       submission.Status,
			},
		},
	}
	events = append(events, s.statusChangedEvents(submission)...)
	s.dispatch(ctx, events)

	return submission, nil
}

// SelectSchedule records the applicant's chosen interview instant. Only
// the submission's own applicant may call it, only once, and the instant
// must lie inside the offered window (boundaries included).
func (s *SubmissionService) SelectSchedule(ctx context.Context, submissionID, userID int, chosen time.Time) (*models.AdoptionSubmission, error) {
	submission, err := s.getWithForm(submissionID)
	if err != nil {
		return nil, err
	}
	if submission.UserID != userID {
		return nil, ErrForbidden("only the applicant may select the interview schedule")
	}
	if !submission.Interview.Exists() {
		return nil, newError(ErrCodeValidation, "no interview has been scheduled yet")
	}
	if submission.Interview.SelectedSchedule != nil {
		return nil, newError(ErrCodeAlreadySelected, "an interview slot was already selected")
	}

	from, to := submission.Interview.AvailableFrom, submission.Interview.AvailableTo
	if from == nil || to == nil || chosen.Before(*from) || chosen.After(*to) {
		return nil, newError(ErrCodeOutOfRange, "chosen time is outside the offered window")
	}

	now := time.Now()
	res := s.db.Model(&models.AdoptionSubmission{}).
		Where("submission_id = ? AND interview_selected_schedule IS NULL", submissionID).
		Updates(map[string]interface{}{
			"interview_selected_schedule": chosen,
			"interview_update_at":         now,
			"update_at":                   now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, newError(ErrCodeAlreadySelected, "an interview slot was already selected")
	}
	submission.Interview.SelectedSchedule = &chosen

	if submission.AdoptionForm != nil {
		s.dispatch(ctx, []Event{RealtimeEvent{
			Room:  ShelterRoom(submission.AdoptionForm.ShelterID),
			Event: EventSelectedSchedule,
			Payload: SubmissionStatusPayload{
				SubmissionID: submission.SubmissionID,
				PetID:        submission.AdoptionForm.PetID,
				Status:       submission.Status,
			},
		}})
	}
	return submission, nil
}

// AddFeedback stores the interviewer's feedback. Allowed only while the
// submission is interviewing and only by the assigned interviewer.
func (s *SubmissionService) AddFeedback(ctx context.Context, submissionID, staffID int, feedback string) (*models.AdoptionSubmission, error) {
	submission, err := s.getWithForm(submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Status != models.SubmissionStatusInterviewing {
		return nil, newError(ErrCodeValidation,
			"feedback can only be added while the submission is interviewing")
	}
	if submission.Interview.AssignedStaffID == nil || *submission.Interview.AssignedStaffID != staffID {
		return nil, ErrForbidden("only the assigned interviewer may add feedback")
	}

	now := time.Now()
	res := s.db.Model(&models.AdoptionSubmission{}).
		Where("submission_id = ? AND status = ?", submissionID, models.SubmissionStatusInterviewing).
		Updates(map[string]interface{}{
			"interview_feedback":  feedback,
			"interview_update_at": now,
			"update_at":           now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, newError(ErrCodeStaleStatus,
			"submission status changed concurrently, reload and retry")
	}
	submission.Interview.Feedback = feedback
	return submission, nil
}

// AddNote stores the post-interview note. Allowed only on reviewed
// submissions.
func (s *SubmissionService) AddNote(ctx context.Context, submissionID int, note string) (*models.AdoptionSubmission, error) {
	submission, err := s.getWithForm(submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Status != models.SubmissionStatusReviewed {
		return nil, newError(ErrCodeValidation,
			"a note can only be added once the submission is reviewed")
	}

	now := time.Now()
	if err := s.db.Model(&models.AdoptionSubmission{}).
		Where("submission_id = ?", submissionID).
		Updates(map[string]interface{}{
			"interview_note":      note,
			"interview_update_at": now,
			"update_at":           now,
		}).Error; err != nil {
		return nil, err
	}
	submission.Interview.Note = note
	return submission, nil
}

// ReassignInterviewer swaps the assigned interviewer before any feedback
// exists and notifies both sides. The submission status is untouched.
func (s *SubmissionService) ReassignInterviewer(ctx context.Context, submissionID, newStaffID, managerID int) error {
	submission, err := s.getWithFormAndPet(submissionID)
	if err != nil {
		return err
	}
	if !submission.Interview.Exists() {
		return newError(ErrCodeValidation, "no interview has been scheduled yet")
	}
	if submission.Interview.Feedback != "" {
		return newError(ErrCodeFeedbackAlreadyGiven,
			"cannot change interviewer after feedback was given")
	}
	if submission.AdoptionForm == nil {
		return ErrNotFound("adoption form")
	}

	var member models.ShelterMember
	if err := s.db.Where("shelter_id = ? AND user_id = ?",
		submission.AdoptionForm.ShelterID, newStaffID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrCodeStaffNotInShelter,
				"assigned staff does not belong to the pet's shelter")
		}
		return err
	}

	oldStaffID := 0
	if submission.Interview.AssignedStaffID != nil {
		oldStaffID = *submission.Interview.AssignedStaffID
	}

	now := time.Now()
	if err := s.db.Model(&models.AdoptionSubmission{}).
		Where("submission_id = ?", submissionID).
		Updates(map[string]interface{}{
			"interview_assigned_staff_id": newStaffID,
			"interview_update_at":         now,
			"update_at":                   now,
		}).Error; err != nil {
		return err
	}

	petID := submission.AdoptionForm.PetID
	petName := "the pet"
	if submission.AdoptionForm.Pet != nil {
		petName = submission.AdoptionForm.Pet.Name
	}
	shelterID := submission.AdoptionForm.ShelterID

	events := []Event{
		NotificationEvent{
			ActorID:      managerID,
			RecipientIDs: []int{newStaffID},
			Content:      fmt.Sprintf("You were assigned to interview the adoption application for %q.", petName),
			Category:     models.NotificationCategoryAdoption,
			DeepLink:     fmt.Sprintf("/shelters/%d/management/submission-forms/%d", shelterID, petID),
		},
	}
	if oldStaffID != 0 && oldStaffID != newStaffID {
		events = append(events, NotificationEvent{
			ActorID:      managerID,
			RecipientIDs: []int{oldStaffID},
			Content:      fmt.Sprintf("You are no longer the interviewer for the adoption application for %q.", petName),
			Category:     models.NotificationCategoryAdoption,
			DeepLink:     fmt.Sprintf("/shelters/%d/management/submission-forms", shelterID),
		})
	}
	events = append(events, RealtimeEvent{
		Room:  ShelterRoom(shelterID),
		Event: EventAssigneeChanged,
		Payload: map[string]interface{}{
			"submissionId":   submissionID,
			"petId":          petID,
			"oldPerformerId": oldStaffID,
			"newPerformerId": newStaffID,
		},
	})
	s.dispatch(ctx, events)
	return nil
}

func (s *SubmissionService) getWithFormAndPet(submissionID int) (*models.AdoptionSubmission, error) {
	var submission models.AdoptionSubmission
	if err := s.db.Preload("AdoptionForm.Pet").
		Where("submission_id = ? AND delete_at IS NULL", submissionID).
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("adoption submission")
		}
		return nil, err
	}
	return &submission, nil
}

// ===================== BULK REJECTION =====================

// rejectRivalsTx force-rejects every submission on the form except the
// winner's, regardless of current status. System cascade only: it runs
// inside the consent approval transaction so the rejections commit or
// roll back together with the pet and form updates.
func rejectRivalsTx(tx *gorm.DB, adoptionFormID, winnerUserID int) ([]models.AdoptionSubmission, error) {
	var rivals []models.AdoptionSubmission
	if err := tx.Where("adoption_form_id = ? AND user_id <> ? AND status <> ?",
		adoptionFormID, winnerUserID, models.SubmissionStatusRejected).
		Find(&rivals).Error; err != nil {
		return nil, err
	}
	if len(rivals) == 0 {
		return nil, nil
	}

	ids := make([]int, len(rivals))
	for i, r := range rivals {
		ids[i] = r.SubmissionID
	}
	if err := tx.Model(&models.AdoptionSubmission{}).
		Where("submission_id IN ?", ids).
		Updates(map[string]interface{}{
			"status":    models.SubmissionStatusRejected,
			"update_at": time.Now(),
		}).Error; err != nil {
		return nil, err
	}
	for i := range rivals {
		rivals[i].Status = models.SubmissionStatusRejected
	}
	return rivals, nil
}
