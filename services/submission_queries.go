package services

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"pet-adoption-api/models"
)

// Read side of the submission lifecycle. Queries only; all mutation goes
// through the state machine methods.

// GetByID returns one submission with its applicant, form, pet, shelter
// and answers loaded.
func (s *SubmissionService) GetByID(submissionID int) (*models.AdoptionSubmission, error) {
	var submission models.AdoptionSubmission
	if err := s.db.
		Preload("User").
		Preload("AdoptionForm.Pet").
		Preload("AdoptionForm.Shelter").
		Preload("Answers.Question.Options").
		Where("submission_id = ? AND delete_at IS NULL", submissionID).
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("adoption submission")
		}
		return nil, err
	}
	return &submission, nil
}

// ListByUser returns all submissions the user has filed, newest first.
func (s *SubmissionService) ListByUser(userID int) ([]models.AdoptionSubmission, error) {
	var submissions []models.AdoptionSubmission
	if err := s.db.
		Preload("AdoptionForm.Pet").
		Preload("AdoptionForm.Shelter").
		Where("user_id = ? AND delete_at IS NULL", userID).
		Order("create_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

// HasUserSubmitted reports whether the user already filed for the form,
// returning the submission id when so.
func (s *SubmissionService) HasUserSubmitted(userID, adoptionFormID int) (bool, int, error) {
	var submission models.AdoptionSubmission
	err := s.db.Select("submission_id").
		Where("user_id = ? AND adoption_form_id = ?", userID, adoptionFormID).
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return true, submission.SubmissionID, nil
}

// ListByPetIDs returns the submissions filed against the given pets.
// For a pet still up for adoption the active and archived forms count;
// once adopted only the archived form does, so historical submissions
// stay visible after hand-over.
func (s *SubmissionService) ListByPetIDs(petIDs []int) ([]models.AdoptionSubmission, error) {
	if len(petIDs) == 0 {
		return nil, nil
	}

	var pets []models.Pet
	if err := s.db.Select("pet_id", "status").
		Where("pet_id IN ?", petIDs).
		Find(&pets).Error; err != nil {
		return nil, err
	}

	var adoptedIDs, openIDs []int
	for _, p := range pets {
		if p.Status == models.PetStatusAdopted {
			adoptedIDs = append(adoptedIDs, p.PetID)
		} else {
			openIDs = append(openIDs, p.PetID)
		}
	}

	var forms []models.AdoptionForm
	query := s.db.Select("adoption_form_id", "pet_id", "status")
	switch {
	case len(openIDs) > 0 && len(adoptedIDs) > 0:
		query = query.Where(
			"(pet_id IN ? AND status IN ?) OR (pet_id IN ? AND status = ?)",
			openIDs, []string{models.FormStatusActive, models.FormStatusArchived},
			adoptedIDs, models.FormStatusArchived)
	case len(openIDs) > 0:
		query = query.Where("pet_id IN ? AND status IN ?",
			openIDs, []string{models.FormStatusActive, models.FormStatusArchived})
	case len(adoptedIDs) > 0:
		query = query.Where("pet_id IN ? AND status = ?",
			adoptedIDs, models.FormStatusArchived)
	default:
		return nil, nil
	}
	if err := query.Find(&forms).Error; err != nil {
		return nil, err
	}
	if len(forms) == 0 {
		return nil, nil
	}

	formIDs := make([]int, len(forms))
	for i, f := range forms {
		formIDs[i] = f.AdoptionFormID
	}

	var submissions []models.AdoptionSubmission
	if err := s.db.
		Preload("User").
		Preload("AdoptionForm.Pet").
		Preload("AdoptionForm.Shelter").
		Preload("Answers.Question.Options").
		Where("adoption_form_id IN ? AND delete_at IS NULL", formIDs).
		Order("create_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

// ListByShelter returns all submissions filed against the shelter's
// forms, newest first.
func (s *SubmissionService) ListByShelter(shelterID int) ([]models.AdoptionSubmission, error) {
	var submissions []models.AdoptionSubmission
	if err := s.db.
		Preload("User").
		Preload("AdoptionForm.Pet").
		Joins("JOIN adoption_forms ON adoption_forms.adoption_form_id = adoption_submissions.adoption_form_id").
		Where("adoption_forms.shelter_id = ? AND adoption_submissions.delete_at IS NULL", shelterID).
		Order("adoption_submissions.create_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

// StaffInterviewCount is one staff member's interview load within a
// window.
type StaffInterviewCount struct {
	StaffID        int    `json:"staff_id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Avatar         string `json:"avatar"`
	InterviewCount int    `json:"interview_count"`
}

// InterviewCountsByStaff aggregates, per staff member of the shelter,
// the interviews whose offered window overlaps [from, to). Staff with no
// interviews are included with zero so managers can balance assignment;
// result is sorted by load ascending.
func (s *SubmissionService) InterviewCountsByStaff(shelterID int, from, to time.Time) ([]StaffInterviewCount, error) {
	var shelter models.Shelter
	if err := s.db.Preload("Members.User").
		Where("shelter_id = ?", shelterID).
		First(&shelter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("shelter")
		}
		return nil, err
	}

	staff := make([]models.ShelterMember, 0, len(shelter.Members))
	staffIDs := make([]int, 0, len(shelter.Members))
	for _, m := range shelter.Members {
		if m.HasRole("staff") {
			staff = append(staff, m)
			staffIDs = append(staffIDs, m.UserID)
		}
	}
	if len(staffIDs) == 0 {
		return nil, nil
	}

	type countRow struct {
		StaffID int `gorm:"column:staff_id"`
		Total   int `gorm:"column:total"`
	}
	var rows []countRow
	if err := s.db.Model(&models.AdoptionSubmission{}).
		Select("interview_assigned_staff_id AS staff_id, COUNT(*) AS total").
		Where("interview_assigned_staff_id IN ?", staffIDs).
		Where("interview_available_from < ? AND interview_available_to > ?", to, from).
		Group("interview_assigned_staff_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.StaffID] = row.Total
	}

	result := make([]StaffInterviewCount, 0, len(staff))
	for _, m := range staff {
		entry := StaffInterviewCount{
			StaffID:        m.UserID,
			InterviewCount: counts[m.UserID],
		}
		if m.User != nil {
			entry.FullName = m.User.FullName
			entry.Email = m.User.Email
			entry.Avatar = m.User.Avatar
		}
		result = append(result, entry)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].InterviewCount < result[j].InterviewCount
	})
	return result, nil
}
