package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pet-adoption-api/config"
	"pet-adoption-api/models"
	"pet-adoption-api/utils"
)

// Consent transitions the shelter side may request. Cancelled and
// approved rows are terminal; rejected loops back into editing so the
// shelter can fix the paperwork and send again.
var consentShelterTransitions = map[string][]string{
	models.ConsentStatusDraft:    {models.ConsentStatusSend},
	models.ConsentStatusSend:     {models.ConsentStatusDraft},
	models.ConsentStatusRejected: {models.ConsentStatusDraft, models.ConsentStatusSend},
	models.ConsentStatusAccepted: {models.ConsentStatusApproved},
}

// Consent transitions the adopter may request. Draft and approved are
// never reachable from this side, which keeps the shelter review step
// impossible to skip.
var consentAdopterTransitions = map[string][]string{
	models.ConsentStatusSend: {
		models.ConsentStatusAccepted,
		models.ConsentStatusRejected,
		models.ConsentStatusCancelled,
	},
	models.ConsentStatusAccepted: {models.ConsentStatusCancelled},
}

// ConsentService owns the consent form lifecycle and the cross-entity
// finalization that fires when a consent is approved.
type ConsentService struct {
	db         *gorm.DB
	dispatcher *Dispatcher
}

func NewConsentService(db *gorm.DB, dispatcher *Dispatcher) *ConsentService {
	if db == nil {
		db = config.DB
	}
	return &ConsentService{db: db, dispatcher: dispatcher}
}

func (s *ConsentService) dispatch(ctx context.Context, events []Event) {
	if s.dispatcher == nil || len(events) == 0 {
		return
	}
	s.dispatcher.Dispatch(ctx, events)
}

// ===================== CRUD =====================

// CreateConsentInput is the shelter side payload for a new consent form.
type CreateConsentInput struct {
	ShelterID      int
	AdopterID      int
	PetID          int
	CreatedBy      int
	Title          string
	Commitments    string
	Note           string
	TokenMoney     int64
	DeliveryMethod string
	Address        string
	Attachments    []models.ConsentAttachment
}

// Create stores a new draft consent form. Only one consent form may ever
// exist per (pet, adopter) pair.
func (s *ConsentService) Create(ctx context.Context, in CreateConsentInput) (*models.ConsentForm, error) {
	in.Title = utils.SanitizeInput(in.Title)
	in.Commitments = utils.SanitizeInput(in.Commitments)

	var existing int64
	if err := s.db.Model(&models.ConsentForm{}).
		Where("pet_id = ? AND adopter_id = ?", in.PetID, in.AdopterID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, newError(ErrCodeDuplicateConsent,
			"a consent form already exists for this pet and adopter")
	}

	now := time.Now()
	form := models.ConsentForm{
		ShelterID:      in.ShelterID,
		AdopterID:      in.AdopterID,
		PetID:          in.PetID,
		CreatedBy:      in.CreatedBy,
		Title:          in.Title,
		Commitments:    in.Commitments,
		Note:           in.Note,
		TokenMoney:     in.TokenMoney,
		DeliveryMethod: in.DeliveryMethod,
		Address:        in.Address,
		Status:         models.ConsentStatusDraft,
		CreateAt:       now,
		UpdateAt:       now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&form).Error; err != nil {
			return err
		}
		for i := range in.Attachments {
			in.Attachments[i].ConsentFormID = form.ConsentFormID
			in.Attachments[i].CreateAt = now
			if err := tx.Create(&in.Attachments[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(form.ConsentFormID)
}

// UpdateConsentInput carries the editable fields of a draft consent.
type UpdateConsentInput struct {
	Title          *string
	Commitments    *string
	Note           *string
	TokenMoney     *int64
	DeliveryMethod *string
	Address        *string
}

// Update edits a consent form. Drafts only.
func (s *ConsentService) Update(ctx context.Context, consentFormID int, in UpdateConsentInput) (*models.ConsentForm, error) {
	form, err := s.getBare(consentFormID)
	if err != nil {
		return nil, err
	}
	if form.Status != models.ConsentStatusDraft {
		return nil, newError(ErrCodeValidation, "only draft consent forms can be edited")
	}

	updates := map[string]interface{}{"update_at": time.Now()}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Commitments != nil {
		updates["commitments"] = *in.Commitments
	}
	if in.Note != nil {
		updates["note"] = *in.Note
	}
	if in.TokenMoney != nil {
		updates["token_money"] = *in.TokenMoney
	}
	if in.DeliveryMethod != nil {
		updates["delivery_method"] = *in.DeliveryMethod
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if err := s.db.Model(form).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(consentFormID)
}

// AddAttachments appends uploaded files to a draft consent form.
func (s *ConsentService) AddAttachments(ctx context.Context, consentFormID int, attachments []models.ConsentAttachment) (*models.ConsentForm, error) {
	form, err := s.getBare(consentFormID)
	if err != nil {
		return nil, err
	}
	if form.Status != models.ConsentStatusDraft {
		return nil, newError(ErrCodeValidation, "only draft consent forms can be edited")
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i := range attachments {
			attachments[i].ConsentFormID = consentFormID
			attachments[i].CreateAt = now
			if err := tx.Create(&attachments[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(consentFormID)
}

// DeleteAttachment removes one attachment from a draft consent form.
func (s *ConsentService) DeleteAttachment(ctx context.Context, consentFormID, attachmentID int) error {
	form, err := s.getBare(consentFormID)
	if err != nil {
		return err
	}
	if form.Status != models.ConsentStatusDraft {
		return newError(ErrCodeValidation, "only draft consent forms can be edited")
	}
	res := s.db.Where("attachment_id = ? AND consent_form_id = ?", attachmentID, consentFormID).
		Delete(&models.ConsentAttachment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound("attachment")
	}
	return nil
}

// Delete removes a consent form. Drafts only.
func (s *ConsentService) Delete(ctx context.Context, consentFormID int) error {
	form, err := s.getBare(consentFormID)
	if err != nil {
		return err
	}
	if form.Status != models.ConsentStatusDraft {
		return newError(ErrCodeValidation, "only draft consent forms can be deleted")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("consent_form_id = ?", consentFormID).
			Delete(&models.ConsentAttachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ConsentForm{}, consentFormID).Error
	})
}

// ===================== QUERIES =====================

func (s *ConsentService) getBare(consentFormID int) (*models.ConsentForm, error) {
	var form models.ConsentForm
	if err := s.db.Where("consent_form_id = ? AND delete_at IS NULL", consentFormID).
		First(&form).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("consent form")
		}
		return nil, err
	}
	return &form, nil
}

// GetByID returns one consent form with its shelter, adopter, pet,
// creator and attachments loaded.
func (s *ConsentService) GetByID(consentFormID int) (*models.ConsentForm, error) {
	var form models.ConsentForm
	if err := s.db.
		Preload("Shelter").
		Preload("Adopter").
		Preload("Pet").
		Preload("Creator").
		Preload("Attachments").
		Where("consent_form_id = ? AND delete_at IS NULL", consentFormID).
		First(&form).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("consent form")
		}
		return nil, err
	}
	return &form, nil
}

// ListByShelter returns all consent forms of a shelter.
func (s *ConsentService) ListByShelter(shelterID int) ([]models.ConsentForm, error) {
	var forms []models.ConsentForm
	if err := s.db.
		Preload("Adopter").
		Preload("Pet").
		Preload("Attachments").
		Where("shelter_id = ? AND delete_at IS NULL", shelterID).
		Order("create_at DESC").
		Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// ListByUser returns all consent forms addressed to an adopter.
func (s *ConsentService) ListByUser(adopterID int) ([]models.ConsentForm, error) {
	var forms []models.ConsentForm
	if err := s.db.
		Preload("Shelter").
		Preload("Pet").
		Preload("Attachments").
		Where("adopter_id = ? AND delete_at IS NULL", adopterID).
		Order("create_at DESC").
		Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// ===================== STATE MACHINE =====================

// ChangeStatusShelter drives the shelter side transitions: sending the
// paperwork out, pulling it back for edits, and final approval.
func (s *ConsentService) ChangeStatusShelter(ctx context.Context, consentFormID int, target string, actorID int) (*models.ConsentForm, error) {
	form, err := s.GetByID(consentFormID)
	if err != nil {
		return nil, err
	}
	if form.Status == models.ConsentStatusCancelled {
		return nil, newError(ErrCodeConsentCancelled,
			"the adopter cancelled this consent form, pick another candidate")
	}

	allowed := consentShelterTransitions[form.Status]
	if !contains(allowed, target) {
		return nil, ErrInvalidTransition(form.Status, target, allowed)
	}

	if target == models.ConsentStatusApproved {
		return s.approve(ctx, form)
	}

	if err := s.casConsentStatus(s.db, consentFormID, form.Status, target); err != nil {
		return nil, err
	}
	form.Status = target

	events := []Event{}
	if target == models.ConsentStatusSend && form.Shelter != nil && form.Pet != nil {
		events = append(events,
			NotificationEvent{
				ActorID:      actorID,
				RecipientIDs: []int{form.AdopterID},
				Content: fmt.Sprintf("Shelter %s sent you the adoption consent form for %s.",
					form.Shelter.Name, form.Pet.Name),
				Category: models.NotificationCategoryAdoption,
				DeepLink: fmt.Sprintf("/adoption-form/%d", form.PetID),
			},
			RealtimeEvent{
				Room:  UserRoom(form.AdopterID),
				Event: EventConsentStatusChanged,
				Payload: ConsentStatusPayload{
					ConsentFormID: form.ConsentFormID,
					PetID:         form.PetID,
					Status:        target,
				},
			},
		)
	}
	events = append(events, s.shelterRoomStatusEvent(form))
	s.dispatch(ctx, events)

	return form, nil
}

// ChangeStatusUser drives the adopter side transitions: accepting the
// paperwork, requesting edits, or cancelling the adoption.
func (s *ConsentService) ChangeStatusUser(ctx context.Context, consentFormID int, target, note string, userID int) (*models.ConsentForm, error) {
	form, err := s.GetByID(consentFormID)
	if err != nil {
		return nil, err
	}
	if form.AdopterID != userID {
		return nil, ErrForbidden("only the adopter may change this consent form")
	}
	if form.Status == models.ConsentStatusCancelled {
		return nil, newError(ErrCodeConsentCancelled, "this consent form was already cancelled")
	}
	if target == models.ConsentStatusDraft || target == models.ConsentStatusApproved {
		return nil, ErrForbidden("the adopter cannot move a consent form to %q", target)
	}

	allowed := consentAdopterTransitions[form.Status]
	if !contains(allowed, target) {
		return nil, ErrInvalidTransition(form.Status, target, allowed)
	}

	oldStatus := form.Status

	if target == models.ConsentStatusCancelled {
		// Cancelling also rejects the adopter's own submission for the
		// pet; both must land together.
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.casConsentStatus(tx, consentFormID, oldStatus, target); err != nil {
				return err
			}
			if note != "" {
				if err := tx.Model(&models.ConsentForm{}).
					Where("consent_form_id = ?", consentFormID).
					Update("note", note).Error; err != nil {
					return err
				}
			}
			return rejectOwnSubmissionTx(tx, form.PetID, form.AdopterID)
		})
	} else {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.casConsentStatus(tx, consentFormID, oldStatus, target); err != nil {
				return err
			}
			if note != "" {
				return tx.Model(&models.ConsentForm{}).
					Where("consent_form_id = ?", consentFormID).
					Update("note", note).Error
			}
			return nil
		})
	}
	if err != nil {
		return nil, err
	}
	form.Status = target

	petName := ""
	if form.Pet != nil {
		petName = form.Pet.Name
	}
	memberIDs, memberErr := s.shelterMemberIDs(form.ShelterID)
	if memberErr != nil {
		memberIDs = nil
	}

	var content string
	switch target {
	case models.ConsentStatusAccepted:
		content = fmt.Sprintf("The adopter of %s accepted the consent form.", petName)
	case models.ConsentStatusRejected:
		content = fmt.Sprintf("The adopter of %s requested edits to the consent form.", petName)
	case models.ConsentStatusCancelled:
		content = fmt.Sprintf("The adopter of %s cancelled the adoption request.", petName)
	}

	events := []Event{}
	if len(memberIDs) > 0 && content != "" {
		events = append(events, NotificationEvent{
			ActorID:      userID,
			RecipientIDs: memberIDs,
			Content:      content,
			Category:     models.NotificationCategoryAdoption,
			DeepLink: fmt.Sprintf("/shelters/%d/management/consent-forms/%d",
				form.ShelterID, form.ConsentFormID),
		})
	}
	events = append(events,
		RealtimeEvent{
			Room:  UserRoom(form.AdopterID),
			Event: EventConsentStatusChanged,
			Payload: ConsentStatusPayload{
				ConsentFormID: form.ConsentFormID,
				PetID:         form.PetID,
				Status:        target,
			},
		},
		s.shelterRoomStatusEvent(form),
	)
	s.dispatch(ctx, events)

	return form, nil
}

func (s *ConsentService) shelterRoomStatusEvent(form *models.ConsentForm) Event {
	return RealtimeEvent{
		Room:  ShelterRoom(form.ShelterID),
		Event: EventConsentStatusChanged,
		Payload: ConsentStatusPayload{
			ConsentFormID: form.ConsentFormID,
			PetID:         form.PetID,
			Status:        form.Status,
			AdopterID:     form.AdopterID,
		},
	}
}

// casConsentStatus is the conditional status write; zero rows affected
// means a concurrent transition won.
func (s *ConsentService) casConsentStatus(db *gorm.DB, consentFormID int, expected, target string) error {
	res := db.Model(&models.ConsentForm{}).
		Where("consent_form_id = ? AND status = ?", consentFormID, expected).
		Updates(map[string]interface{}{"status": target, "update_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return newError(ErrCodeStaleStatus,
			"consent form status changed concurrently, reload and retry")
	}
	return nil
}

func (s *ConsentService) shelterMemberIDs(shelterID int) ([]int, error) {
	var members []models.ShelterMember
	if err := s.db.Select("user_id").
		Where("shelter_id = ?", shelterID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	ids := make([]int, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

// rejectOwnSubmissionTx force-rejects the adopter's own submission on
// the pet's active form after they cancel the consent.
func rejectOwnSubmissionTx(tx *gorm.DB, petID, adopterID int) error {
	var form models.AdoptionForm
	err := tx.Where("pet_id = ? AND status = ?", petID, models.FormStatusActive).
		First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // listing already closed, nothing to reject
	}
	if err != nil {
		return err
	}
	return tx.Model(&models.AdoptionSubmission{}).
		Where("adoption_form_id = ? AND user_id = ?", form.AdoptionFormID, adopterID).
		Updates(map[string]interface{}{
			"status":    models.SubmissionStatusRejected,
			"update_at": time.Now(),
		}).Error
}

// ===================== APPROVAL FINALIZATION =====================

// approve runs the four-entity finalization in a single transaction:
// consent accepted→approved, pet adopted, rival submissions rejected,
// active form archived. All or nothing; events fire only after commit.
func (s *ConsentService) approve(ctx context.Context, form *models.ConsentForm) (*models.ConsentForm, error) {
	var rivals []models.AdoptionSubmission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.casConsentStatus(tx, form.ConsentFormID, models.ConsentStatusAccepted,
			models.ConsentStatusApproved); err != nil {
			return err
		}

		res := tx.Model(&models.Pet{}).
			Where("pet_id = ? AND status <> ?", form.PetID, models.PetStatusAdopted).
			Updates(map[string]interface{}{
				"status":     models.PetStatusAdopted,
				"adopter_id": form.AdopterID,
				"update_at":  time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrCodeConflict, "the pet was already adopted")
		}

		var activeForm models.AdoptionForm
		if err := tx.Where("pet_id = ? AND status = ?", form.PetID, models.FormStatusActive).
			First(&activeForm).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound("active adoption form")
			}
			return err
		}

		var err error
		rivals, err = rejectRivalsTx(tx, activeForm.AdoptionFormID, form.AdopterID)
		if err != nil {
			return err
		}

		res = tx.Model(&models.AdoptionForm{}).
			Where("adoption_form_id = ? AND status = ?",
				activeForm.AdoptionFormID, models.FormStatusActive).
			Updates(map[string]interface{}{
				"status":    models.FormStatusArchived,
				"update_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrCodeConflict, "the adoption form is no longer active")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	form.Status = models.ConsentStatusApproved

	petName, shelterName := "", ""
	if form.Pet != nil {
		petName = form.Pet.Name
	}
	if form.Shelter != nil {
		shelterName = form.Shelter.Name
	}

	events := []Event{}
	for _, rival := range rivals {
		events = append(events,
			NotificationEvent{
				ActorID:      form.CreatedBy,
				RecipientIDs: []int{rival.UserID},
				Content: fmt.Sprintf("%s has been adopted by another applicant. Thank you for caring!",
					petName),
				Category: models.NotificationCategoryAdoption,
				DeepLink: fmt.Sprintf("/pet/%d", form.PetID),
			},
			RealtimeEvent{
				Room:  UserRoom(rival.UserID),
				Event: EventSubmissionStatusChanged,
				Payload: SubmissionStatusPayload{
					SubmissionID: rival.SubmissionID,
					PetID:        form.PetID,
					Status:       models.SubmissionStatusRejected,
				},
			},
		)
	}
	events = append(events,
		NotificationEvent{
			ActorID:      form.CreatedBy,
			RecipientIDs: []int{form.AdopterID},
			Content: fmt.Sprintf("Shelter %s approved the adoption consent form for %s!",
				shelterName, petName),
			Category: models.NotificationCategoryAdoption,
			DeepLink: fmt.Sprintf("/adoption-form/%d", form.PetID),
		},
		RealtimeEvent{
			Room:  UserRoom(form.AdopterID),
			Event: EventConsentStatusChanged,
			Payload: ConsentStatusPayload{
				ConsentFormID: form.ConsentFormID,
				PetID:         form.PetID,
				Status:        form.Status,
			},
		},
		s.shelterRoomStatusEvent(form),
	)
	if form.Adopter != nil && form.Adopter.Email != "" {
		events = append(events, EmailEvent{
			To:      []string{form.Adopter.Email},
			Subject: fmt.Sprintf("Adoption of %s approved", petName),
			HTML: fmt.Sprintf("<p>Congratulations! Shelter %s approved your adoption of <b>%s</b>.</p>",
				shelterName, petName),
		})
	}
	s.dispatch(ctx, events)

	return form, nil
}
