package services

import (
	"context"
	"testing"
	"time"

	"pet-adoption-api/models"
)

func TestCreateSubmission(t *testing.T) {
	db := newTestDB(t)
	shelter, manager, _ := seedShelter(t, db)
	pet := seedPet(t, db, shelter.ShelterID, models.PetStatusAvailable)
	q1 := seedQuestion(t, db, models.QuestionTypeSingleChoice, models.QuestionPriorityHigh,
		"*house", "apartment")
	q2 := seedQuestion(t, db, models.QuestionTypeYesNo, models.QuestionPriorityLow,
		"*"+models.YesNoAnswerYes, models.YesNoAnswerNo)
	form := seedForm(t, db, shelter.ShelterID, pet.PetID, manager.UserID, models.FormStatusActive, q1, q2)
	applicant := seedUser(t, db, "applicant")

	svc := NewSubmissionService(db, nil)
	submission, err := svc.Create(context.Background(), CreateInput{
		UserID:         applicant.UserID,
		AdoptionFormID: form.AdoptionFormID,
		Answers: []RawAnswer{
			raw(q1.QuestionID, `["house"]`),
			raw(q2.QuestionID, `["`+models.YesNoAnswerNo+`"]`),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if submission.Status != models.SubmissionStatusPending {
		t.Fatalf("expected pending, got %s", submission.Status)
	}
	if submission.SubmissionCode == "" {
		t.Fatal("expected a submission code")
	}
	// high correct (3) + low wrong (0) out of 4 = 75
	if submission.Total != 75 {
		t.Fatalf("expected total 75, got %d", submission.Total)
	}

	var answers []models.SubmissionAnswer
	if err := db.Where("submission_id = ?", submission.SubmissionID).Find(&answers).Error; err != nil {
		t.Fatalf("load answers: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected 2 stored answers, got %d", len(answers))
	}

	// Second application for the same form is refused.
	_, err = svc.Create(context.Background(), CreateInput{
		UserID:         applicant.UserID,
		AdoptionFormID: form.AdoptionFormID,
		Answers:        []RawAnswer{raw(q1.QuestionID, `["house"]`)},
	})
	assertCode(t, err, ErrCodeDuplicateSubmission)
}

func TestCreateSubmissionPreconditions(t *testing.T) {
	db := newTestDB(t)
	shelter, manager, staff := seedShelter(t, db)
	applicant := seedUser(t, db, "applicant")

	svc := NewSubmissionService(db, nil)

	t.Run("form not active", func(t *testing.T) {
		pet := seedPet(t, db, shelter.ShelterID, models.PetStatusAvailable)
		form := seedForm(t, db, shelter.ShelterID, pet.PetID, manager.UserID, models.FormStatusDraft)
		_, err := svc.Create(context.Background(), CreateInput{
			UserID:         applicant.UserID,
			AdoptionFormID: form.AdoptionFormID,
		})
		assertCode(t, err, ErrCodeFormNotActive)
	})

	t.Run("pet not available", func(t *testing.T) {
		pet := seedPet(t, db, shelter.ShelterID, models.PetStatusAdopted)
		form := seedForm(t, db, shelter.ShelterID, pet.PetID, manager.UserID, models.FormStatusActive)
		_, err := svc.Create(context.Background(), CreateInput{
			UserID:         applicant.UserID,
			AdoptionFormID: form.AdoptionFormID,
		})
		assertCode(t, err, ErrCodePetNotAvailable)
	})

	t.Run("shelter member cannot apply", func(t *testing.T) {
		pet := seedPet(t, db, shelter.ShelterID, models.PetStatusAvailable)
		form := seedForm(t, db, shelter.ShelterID, pet.PetID, manager.UserID, models.FormStatusActive)
		_, err := svc.Create(context.Background(), CreateInput{
			UserID:         staff.UserID,
			AdoptionFormID: form.AdoptionFormID,
		})
		assertCode(t, err, ErrCodeApplicantIsShelterMember)
	})

	t.Run("form missing", func(t *testing.T) {
		_, err := svc.Create(context.Background(), CreateInput{
			UserID:         applicant.UserID,
			AdoptionFormID: 99999,
		})
		assertCode(t, err, ErrCodeNotFound)
	})
}

func TestCreateSubmissionSnapshotsAdoptionsLastMonth(t *testing.T) {
	db := newTestDB(t)
	shelter, manager, _ := seedShelter(t, db)
	applicant := seedUser(t, db, "applicant")

	// Two recent adoptions and one old adoption by the applicant.
	for i, age := range []time.Duration{24 * time.Hour, 48 * time.Hour, 45 * 24 * time.Hour} {
		adopted := seedPet(t, db, shelter.ShelterID, models.PetStatusAdopted)
		if err := db.Model(&models.Pet{}).Where("pet_id = ?", adopted.PetID).
			Updates(map[string]interface{}{
				"adopter_id": applicant.UserID,
				"update_at":  time.Now().Add(-age),
			}).Error; err != nil {
			t.Fatalf("backdate adoption %d: %v", i, err)
		}
	}

	pet := seedPet(t, db, shelter.ShelterID, models.PetStatusAvailable)
	form := seedForm(t, db, shelter.ShelterID, pet.PetID, manager.UserID, models.FormStatusActive)

	submission, err := NewSubmissionService(db, nil).Create(context.Background(), CreateInput{
		UserID:         applicant.UserID,
		AdoptionFormID: form.AdoptionFormID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if submission.AdoptionsLastMonth != 2 {
		t.Fatalf("expected 2 adoptions in the last month, got %d", submission.AdoptionsLastMonth)
	}
}

func TestUpdateStatusTransitionTable(t *testing.T) {
	db := newTestDB(t)
	shelter, manager, _ := seedShelter(t, db)
	svc := NewSubmissionService(db, nil)

	tests := []struct {
		from, to string
		ok       bool
	}{
		{models.SubmissionStatusPending, models.SubmissionStatusScheduling, true},
		{models.SubmissionStatusPending, models.SubmissionStatusRejected, true},
		{models.SubmissionStatusPending, models.SubmissionStatusPending, true},
		{models.SubmissionStatusPending, models.SubmissionStatusReviewed, false},
		{models.SubmissionStatusPending, models.SubmissionStatusApproved, false},
		{models.SubmissionStatusScheduling, models.SubmissionStatusPending, true},
		{models.SubmissionStatusScheduling, models.SubmissionStatusInterviewing, true},
		{models.SubmissionStatusScheduling, models.SubmissionStatusApproved, false},
		{models.SubmissionStatusInterviewing, models.SubmissionStatusReviewed, true},
		{models.SubmissionStatusInterviewing, models.SubmissionStatusRejected, true},
		{models.SubmissionStatusInterviewing, models.SubmissionStatusPending, false},
		{models.SubmissionStatusInterviewing, models.SubmissionStatusScheduling, false},
		{models.SubmissionStatusReviewed, models.SubmissionStatusApproved, true},
		{models.SubmissionStatusReviewed, models.SubmissionStatusRejected, true},
		{models.SubmissionStatusReviewed, models.SubmissionStatusInterviewing, false},
		{models.SubmissionStatusApproved, models.SubmissionStatusRejected, false},
		{models.SubmissionStatusApproved, models.SubmissionStatusApproved, true},
		{models.SubmissionStatusRejected, models.SubmissionStatusPending, false},
		{models.SubmissionStatusRejected, models.SubmissionStatusRejected, true},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			applicant := seedUser(t, db, "applicant")
			pet := seedPet(t, db, shelter.ShelterID, models.PetStatusAvailable)
			form := seedForm(t, db, shelter.ShelterID, pet.PetID, manager.UserID, models.FormStatusActive)
			submission := seedSubmission(t, db, form.AdoptionFormID, applicant.UserID, tt.from)

			updated, err := svc.UpdateStatus(context.Background(), submission.SubmissionID, tt.to)
			if tt.ok {
				if err != nil {
					t.Fatalf("expected transition %s -> %s to pass: %v", tt.from, tt.to, err)
				}
				if updated.Status != tt.to {
					t.Fatalf("expected status %s, got %s", tt.to, updated.Status)
				}
				return
			}

			assertCode(t, err, ErrCodeInvalidTransition)

			// A refused transition must leave the row untouched.
			var reloaded models.AdoptionSubmission
			if err := db.First(&reloaded, submission.SubmissionID).Error; err != nil {
				t.Fatalf("reload: %v", err)
			}
			if reloaded.Status != tt.from {
				t.Fatalf("status changed on refused transition: %s", reloaded.Status)
			}
		})
	}
}

func TestScheduleInterview(t *testing.T) {
	db := newTestDB(t)
	shelter, manager, staff := seedShelter(t, db)
	applicant := seedUser(t, db, "applicant")
	outsider := seedUser(t, db, "outsider")
	pet := seedPet(t, db, shelter.ShelterID, models.PetStatusAvailable)
	form := seedForm(t, db, shelter.ShelterID, pet.PetID, manager.UserID, models.FormStatusActive)

	svc := NewSubmissionService(db, nil)
	from := time.Now().Add(24 * time.Hour)
	to := from.Add(48 * time.Hour)

	t.Run("requires scheduling status", func(t *testing.T) {
		submission := seedSubmission(t, db, form.AdoptionFormID, applicant.UserID, models.SubmissionStatusPending)
		_, err := svc.ScheduleInterview(context.Background(), ScheduleInterviewInput{
			SubmissionID: submission.SubmissionID, AvailableFrom: from, AvailableTo: to,
			Method: models.InterviewMethodOnline, AssignedStaffID: staff.UserID, ReviewedByID: manager.UserID,
		})
		assertCode(t, err, ErrCodeInvalidTransition)
	})

	t.Run("staff must belong to the shelter", func(t *testing.T) {
		other := seedUser(t, db, "applicant2")
		submission := seedSubmission(t, db, form.AdoptionFormID, other.UserID, models.SubmissionStatusScheduling)
		_, err := svc.ScheduleInterview(context.Background(), ScheduleInterviewInput{
			SubmissionID: submission.SubmissionID, AvailableFrom: from, AvailableTo: to,
			Method: models.InterviewMethodOnline, AssignedStaffID: outsider.UserID, ReviewedByID: manager.UserID,
		})
		assertCode(t, err, ErrCodeStaffNotInShelter)
	})

	t.Run("window must be ordered and future", func(t *testing.T) {
		other := seedUser(t, db, "applicant3")
		submission := seedSubmission(t, db, form.AdoptionFormID, other.UserID, models.SubmissionStatusScheduling)
		_, err := svc.ScheduleInterview(context.Background(), ScheduleInterviewInput{
			SubmissionID: submission.SubmissionID, AvailableFrom: to, AvailableTo: from,
			Method: models.InterviewMethodOnline, AssignedStaffID: staff.UserID, ReviewedByID: manager.UserID,
		})
		assertCode(t, err, ErrCodeValidation)

		past := time.Now().Add(-48 * time.Hour)
		_, err = svc.ScheduleInterview(context.Background(), ScheduleInterviewInput{
			SubmissionID: submission.SubmissionID, AvailableFrom: past, AvailableTo: past.Add(time.Hour),
			Method: models.InterviewMethodOnline, AssignedStaffID: staff.UserID, ReviewedByID: manager.UserID,
		})
		assertCode(t, err, ErrCodeValidation)
	})

	t.Run("happy path", func(t *testing.T) {
		other := seedUser(t, db, "applicant4")
		submission := seedSubmission(t, db, form.AdoptionFormID, other.UserID, models.SubmissionStatusScheduling)
		updated, err := svc.ScheduleInterview(context.Background(), ScheduleInterviewInput{
			SubmissionID: submission.SubmissionID, AvailableFrom: from, AvailableTo: to,
			Method: models.InterviewMethodInPerson, AssignedStaffID: staff.UserID, ReviewedByID: manager.UserID,
		})
		if err != nil {
			t.Fatalf("schedule: %v", err)
		}
		if updated.Status != models.SubmissionStatusInterviewing {
			t.Fatalf("expected interviewing, got %s", updated.Status)
		}
		if !updated.Interview.Exists() {
			t.Fatal("expected an interview id")
		}

		var reloaded models.AdoptionSubmission
		if err := db.First(&reloaded, submission.SubmissionID).Error; err != nil {
			t.Fatalf("reload: %v", err)
		}
		if !reloaded.Interview.Exists() || reloaded.Interview.AssignedStaffID == nil ||
			*reloaded.Interview.AssignedStaffID != staff.UserID {
			t.Fatalf("interview not persisted: %+v", reloaded.Interview)
		}
	})
}

func TestSelectSchedule(t *testing.T) {
	db := newTestDB(t)
	shelter, manager, staff := seedShelter(t, db)
	pet := seedPet(t, db, shelter.ShelterID, models.PetStatusAvailable)
	form := seedForm(t, db, shelter.ShelterID, pet.PetID, manager.UserID, models.FormStatusActive)

	svc := NewSubmissionService(db, nil)
	from := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	to := from.Add(48 * time.Hour)

	schedule := func(t *testing.T) (*models.AdoptionSubmission, *models.User) {
		t.Helper()
		applicant := seedUser(t, db, "applicant")
		submission := seedSubmission(t, db, form.AdoptionFormID, applicant.UserID, models.SubmissionStatusScheduling)
		if _, err := svc.ScheduleInterview(context.Background(), ScheduleInterviewInput{
			SubmissionID: submission.SubmissionID, AvailableFrom: from, AvailableTo: to,
			Method: models.InterviewMethodOnline, AssignedStaffID: staff.UserID, ReviewedByID: manager.UserID,
		}); err != nil {
			t.Fatalf("schedule: %v", err)
		}
		return submission, applicant
	}

	t.Run("only the applicant may select", func(t *testing.T) {
		submission, _ := schedule(t)
		stranger := seedUser(t, db, "stranger")
		_, err := svc.SelectSchedule(context.Background(), submission.SubmissionID, stranger.UserID, from.Add(time.Hour))
		assertCode(t, err, ErrCodeForbidden)
	})

	t.Run("boundaries are inclusive", func(t *testing.T) {
		first, applicant := schedule(t)
		if _, err := svc.SelectSchedule(context.Background(), first.SubmissionID, applicant.UserID, from); err != nil {
			t.Fatalf("selecting the window start should pass: %v", err)
		}

		second, applicant2 := schedule(t)
		if _, err := svc.SelectSchedule(context.Background(), second.SubmissionID, applicant2.UserID, to); err != nil {
			t.Fatalf("selecting the window end should pass: %v", err)
		}
	})

	t.Run("outside the window is refused", func(t *testing.T) {
		submission, applicant := schedule(t)
		_, err := svc.SelectSchedule(context.Background(), submission.SubmissionID, applicant.UserID, from.Add(-time.Second))
		assertCode(t, err, ErrCodeOutOfRange)

		_, err = svc.SelectSchedule(context.Background(), submission.SubmissionID, applicant.UserID, to.Add(time.Second))
		assertCode(t, err, ErrCodeOutOfRange)
	})

	t.Run("selection happens once", func(t *testing.T) {
		submission, applicant := schedule(t)
		if _, err := svc.SelectSchedule(context.Background(), submission.SubmissionID, applicant.UserID, from.Add(time.Hour)); err != nil {
			t.Fatalf("first selection: %v", err)
		}
		_, err := svc.SelectSchedule(context.Background(), submission.SubmissionID, applicant.UserID, from.Add(2*time.Hour))
		assertCode(t, err, ErrCodeAlreadySelected)
	})
}

func TestAddFeedbackAndReassign(t *testing.T) {
	db := newTestDB(t)
	shelter, manager, staff := seedShelter(t, db)
	applicant := seedUser(t, db, "applicant")
	pet := seedPet(t, db, shelter.ShelterID, models.PetStatusAvailable)
	form := seedForm(t, db, shelter.ShelterID, pet.PetID, manager.UserID, models.FormStatusActive)
	submission := seedSubmission(t, db, form.AdoptionFormID, applicant.UserID, models.SubmissionStatusScheduling)

	svc := NewSubmissionService(db, nil)
	from := time.Now().Add(24 * time.Hour)
	if _, err := svc.ScheduleInterview(context.Background(), ScheduleInterviewInput{
		SubmissionID: submission.SubmissionID, AvailableFrom: from, AvailableTo: from.Add(24 * time.Hour),
		Method: models.InterviewMethodOnline, AssignedStaffID: staff.UserID, ReviewedByID: manager.UserID,
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	// Only the assigned interviewer may leave feedback.
	_, err := svc.AddFeedback(context.Background(), submission.SubmissionID, manager.UserID, "nice chat")
	assertCode(t, err, ErrCodeForbidden)

	if _, err := svc.AddFeedback(context.Background(), submission.SubmissionID, staff.UserID, "great applicant"); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	// Once feedback exists the interviewer can no longer be swapped.
	staff2 := seedUser(t, db, "staff2")
	if err := db.Create(&models.ShelterMember{
		ShelterID: shelter.ShelterID, UserID: staff2.UserID, Roles: "staff", CreateAt: time.Now(),
	}).Error; err != nil {
		t.Fatalf("seed staff2: %v", err)
	}
	err = svc.ReassignInterviewer(context.Background(), submission.SubmissionID, staff2.UserID, manager.UserID)
	assertCode(t, err, ErrCodeFeedbackAlreadyGiven)

	// Notes require the reviewed status.
	_, err = svc.AddNote(context.Background(), submission.SubmissionID, "note")
	assertCode(t, err, ErrCodeValidation)

	if _, err := svc.UpdateStatus(context.Background(), submission.SubmissionID, models.SubmissionStatusReviewed); err != nil {
		t.Fatalf("to reviewed: %v", err)
	}
	if _, err := svc.AddNote(context.Background(), submission.SubmissionID, "solid candidate"); err != nil {
		t.Fatalf("note: %v", err)
	}
}

func TestReassignInterviewer(t *testing.T) {
	db := newTestDB(t)
	shelter, manager, staff := seedShelter(t, db)
	applicant := seedUser(t, db, "applicant")
	pet := seedPet(t, db, shelter.ShelterID, models.PetStatusAvailable)
	form := seedForm(t, db, shelter.ShelterID, pet.PetID, manager.UserID, models.FormStatusActive)
	submission := seedSubmission(t, db, form.AdoptionFormID, applicant.UserID, models.SubmissionStatusScheduling)

	svc := NewSubmissionService(db, nil)
	from := time.Now().Add(24 * time.Hour)
	if _, err := svc.ScheduleInterview(context.Background(), ScheduleInterviewInput{
		SubmissionID: submission.SubmissionID, AvailableFrom: from, AvailableTo: from.Add(24 * time.Hour),
		Method: models.InterviewMethodOnline, AssignedStaffID: staff.UserID, ReviewedByID: manager.UserID,
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	outsider := seedUser(t, db, "outsider")
	err := svc.ReassignInterviewer(context.Background(), submission.SubmissionID, outsider.UserID, manager.UserID)
	assertCode(t, err, ErrCodeStaffNotInShelter)

	staff2 := seedUser(t, db, "staff2")
	if err := db.Create(&models.ShelterMember{
		ShelterID: shelter.ShelterID, UserID: staff2.UserID, Roles: "staff", CreateAt: time.Now(),
	}).Error; err != nil {
		t.Fatalf("seed staff2: %v", err)
	}
	if err := svc.ReassignInterviewer(context.Background(), submission.SubmissionID, staff2.UserID, manager.UserID); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	var reloaded models.AdoptionSubmission
	if err := db.First(&reloaded, submission.SubmissionID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Interview.AssignedStaffID == nil || *reloaded.Interview.AssignedStaffID != staff2.UserID {
		t.Fatalf("interviewer not swapped: %+v", reloaded.Interview)
	}
	if reloaded.Status != models.SubmissionStatusInterviewing {
		t.Fatalf("status must not change on reassign, got %s", reloaded.Status)
	}
}
