package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pet-adoption-api/config"
	"pet-adoption-api/models"
	"pet-adoption-api/utils"
)

// FormService owns the adoption form lifecycle: shelters draft a
// listing, activate it (opening the pet for applications) and pull it
// back. Archiving happens only through consent approval.
type FormService struct {
	db *gorm.DB
}

func NewFormService(db *gorm.DB) *FormService {
	if db == nil {
		db = config.DB
	}
	return &FormService{db: db}
}

// CreateFormInput is the staff payload for a new adoption listing.
type CreateFormInput struct {
	ShelterID   int
	PetID       int
	Title       string
	Description string
	QuestionIDs []int
	CreatedBy   int
}

// Create stores a new draft form for a pet that is not yet listed.
func (s *FormService) Create(ctx context.Context, in CreateFormInput) (*models.AdoptionForm, error) {
	in.Title = utils.SanitizeInput(in.Title)
	in.Description = utils.SanitizeInput(in.Description)
	if in.Title == "" {
		return nil, newError(ErrCodeValidation, "title is required")
	}

	var shelter models.Shelter
	if err := s.db.Where("shelter_id = ? AND status = ?", in.ShelterID, "active").
		First(&shelter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("active shelter")
		}
		return nil, err
	}

	var pet models.Pet
	if err := s.db.Where("pet_id = ? AND status = ?", in.PetID, models.PetStatusUnavailable).
		First(&pet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrCodePetNotAvailable,
				"the pet cannot be listed in its current status")
		}
		return nil, err
	}

	now := time.Now()
	form := models.AdoptionForm{
		FormCode:    "ADF-" + strings.ToUpper(uuid.NewString()[:8]),
		PetID:       in.PetID,
		ShelterID:   in.ShelterID,
		Title:       in.Title,
		Description: in.Description,
		Status:      models.FormStatusDraft,
		CreatedBy:   in.CreatedBy,
		CreateAt:    now,
		UpdateAt:    now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&form).Error; err != nil {
			return err
		}
		for order, questionID := range in.QuestionIDs {
			link := models.AdoptionFormQuestion{
				AdoptionFormID: form.AdoptionFormID,
				QuestionID:     questionID,
				QuestionOrder:  order + 1,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(form.AdoptionFormID)
}

// UpdateFormInput carries the editable fields of a draft form.
type UpdateFormInput struct {
	Title       *string
	Description *string
	QuestionIDs []int // replaces the question set when non-nil
}

// Update edits a form. Drafts only.
func (s *FormService) Update(ctx context.Context, formID int, in UpdateFormInput) (*models.AdoptionForm, error) {
	form, err := s.getBare(formID)
	if err != nil {
		return nil, err
	}
	if form.Status != models.FormStatusDraft {
		return nil, newError(ErrCodeValidation, "only draft forms can be edited")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"update_at": time.Now()}
		if in.Title != nil {
			updates["title"] = *in.Title
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if err := tx.Model(form).Updates(updates).Error; err != nil {
			return err
		}
		if in.QuestionIDs != nil {
			if err := tx.Where("adoption_form_id = ?", formID).
				Delete(&models.AdoptionFormQuestion{}).Error; err != nil {
				return err
			}
			for order, questionID := range in.QuestionIDs {
				link := models.AdoptionFormQuestion{
					AdoptionFormID: formID,
					QuestionID:     questionID,
					QuestionOrder:  order + 1,
				}
				if err := tx.Create(&link).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(formID)
}

// ChangeStatus flips a form between draft and active and keeps the pet
// status in line: an active listing makes its pet available, a retracted
// one makes it unavailable. Adopted pets are never touched; archiving is
// reserved for the consent approval cascade.
func (s *FormService) ChangeStatus(ctx context.Context, formID int, target string) (*models.AdoptionForm, error) {
	if target != models.FormStatusDraft && target != models.FormStatusActive {
		return nil, newError(ErrCodeValidation, "form status can only be set to draft or active")
	}

	form, err := s.getBare(formID)
	if err != nil {
		return nil, err
	}
	if form.Status == models.FormStatusArchived {
		return nil, ErrInvalidTransition(form.Status, target, nil)
	}

	petStatus := models.PetStatusUnavailable
	if target == models.FormStatusActive {
		petStatus = models.PetStatusAvailable
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if target == models.FormStatusActive {
			// Only one active listing per pet.
			var active int64
			if err := tx.Model(&models.AdoptionForm{}).
				Where("pet_id = ? AND status = ? AND adoption_form_id <> ?",
					form.PetID, models.FormStatusActive, formID).
				Count(&active).Error; err != nil {
				return err
			}
			if active > 0 {
				return newError(ErrCodeConflict, "the pet already has an active adoption form")
			}
		}

		res := tx.Model(&models.AdoptionForm{}).
			Where("adoption_form_id = ? AND status = ?", formID, form.Status).
			Updates(map[string]interface{}{"status": target, "update_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrCodeStaleStatus,
				"form status changed concurrently, reload and retry")
		}

		res = tx.Model(&models.Pet{}).
			Where("pet_id = ? AND status <> ?", form.PetID, models.PetStatusAdopted).
			Updates(map[string]interface{}{"status": petStatus, "update_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrCodeConflict, "the pet status could not be updated")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	form.Status = target
	return form, nil
}

// Delete removes a form. Drafts only.
func (s *FormService) Delete(ctx context.Context, formID int) error {
	form, err := s.getBare(formID)
	if err != nil {
		return err
	}
	if form.Status != models.FormStatusDraft {
		return newError(ErrCodeValidation, "only draft forms can be deleted")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("adoption_form_id = ?", formID).
			Delete(&models.AdoptionFormQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.AdoptionForm{}, formID).Error
	})
}

// Duplicate drafts a fresh copy of the pet's most recent form, reusing
// its question set, so a shelter can relist quickly.
func (s *FormService) Duplicate(ctx context.Context, petID, shelterID, createdBy int) (*models.AdoptionForm, error) {
	var old models.AdoptionForm
	if err := s.db.Preload("Questions").
		Where("pet_id = ?", petID).
		Order("create_at DESC").
		First(&old).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("adoption form")
		}
		return nil, err
	}

	questionIDs := make([]int, 0, len(old.Questions))
	for _, q := range old.Questions {
		questionIDs = append(questionIDs, q.QuestionID)
	}
	return s.Create(ctx, CreateFormInput{
		ShelterID:   shelterID,
		PetID:       petID,
		Title:       old.Title,
		Description: old.Description,
		QuestionIDs: questionIDs,
		CreatedBy:   createdBy,
	})
}

// ===================== QUERIES =====================

func (s *FormService) getBare(formID int) (*models.AdoptionForm, error) {
	var form models.AdoptionForm
	if err := s.db.Where("adoption_form_id = ? AND delete_at IS NULL", formID).
		First(&form).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("adoption form")
		}
		return nil, err
	}
	return &form, nil
}

// GetByID returns one form with pet, shelter, creator and ordered
// questions loaded.
func (s *FormService) GetByID(formID int) (*models.AdoptionForm, error) {
	var form models.AdoptionForm
	if err := s.db.
		Preload("Pet").
		Preload("Shelter").
		Preload("Creator").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC")
		}).
		Preload("Questions.Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("option_order ASC")
		}).
		Where("adoption_form_id = ? AND delete_at IS NULL", formID).
		First(&form).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("adoption form")
		}
		return nil, err
	}
	return &form, nil
}

// ListByShelter returns the shelter's forms, newest first.
func (s *FormService) ListByShelter(shelterID int) ([]models.AdoptionForm, error) {
	var forms []models.AdoptionForm
	if err := s.db.
		Preload("Pet").
		Preload("Creator").
		Where("shelter_id = ? AND delete_at IS NULL", shelterID).
		Order("create_at DESC").
		Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// GetByPetID returns the pet's current form: the active one while the
// pet is up for adoption, the archived one after hand-over.
func (s *FormService) GetByPetID(petID int) (*models.AdoptionForm, error) {
	var pet models.Pet
	if err := s.db.Where("pet_id = ? AND status <> ?", petID, models.PetStatusDraft).
		First(&pet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("pet")
		}
		return nil, err
	}

	wantStatus := models.FormStatusActive
	if pet.Status == models.PetStatusAdopted {
		wantStatus = models.FormStatusArchived
	}

	var form models.AdoptionForm
	if err := s.db.
		Preload("Pet").
		Preload("Shelter").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC")
		}).
		Preload("Questions.Question.Options").
		Where("pet_id = ? AND status = ?", petID, wantStatus).
		Order("create_at DESC").
		First(&form).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("adoption form")
		}
		return nil, err
	}
	return &form, nil
}
