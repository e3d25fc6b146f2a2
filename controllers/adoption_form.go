package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pet-adoption-api/services"
)

type CreateFormRequest struct {
	PetID       int    `json:"pet_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	QuestionIDs []int  `json:"question_ids"`
}

// CreateAdoptionForm drafts a new adoption listing for a shelter pet
func CreateAdoptionForm(c *gin.Context) {
	var req CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shelterID := c.GetInt("shelterID")
	userID, _ := getCurrentUserID(c)

	form, err := services.NewFormService(nil).Create(c.Request.Context(), services.CreateFormInput{
		ShelterID:   shelterID,
		PetID:       req.PetID,
		Title:       req.Title,
		Description: req.Description,
		QuestionIDs: req.QuestionIDs,
		CreatedBy:   userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "form": form})
}

type UpdateFormRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	QuestionIDs []int   `json:"question_ids"`
}

// UpdateAdoptionForm edits a draft form
func UpdateAdoptionForm(c *gin.Context) {
	formID, ok := paramInt(c, "formID")
	if !ok {
		return
	}

	var req UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewFormService(nil)
	if !formBelongsToShelter(c, svc, formID) {
		return
	}

	form, err := svc.Update(c.Request.Context(), formID, services.UpdateFormInput{
		Title:       req.Title,
		Description: req.Description,
		QuestionIDs: req.QuestionIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "form": form})
}

type FormStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeAdoptionFormStatus activates or retracts a listing
func ChangeAdoptionFormStatus(c *gin.Context) {
	formID, ok := paramInt(c, "formID")
	if !ok {
		return
	}

	var req FormStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewFormService(nil)
	if !formBelongsToShelter(c, svc, formID) {
		return
	}

	form, err := svc.ChangeStatus(c.Request.Context(), formID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "form": form})
}

// DeleteAdoptionForm removes a draft form
func DeleteAdoptionForm(c *gin.Context) {
	formID, ok := paramInt(c, "formID")
	if !ok {
		return
	}

	svc := services.NewFormService(nil)
	if !formBelongsToShelter(c, svc, formID) {
		return
	}

	if err := svc.Delete(c.Request.Context(), formID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Form deleted"})
}

// DuplicateAdoptionForm drafts a copy of a pet's latest form
func DuplicateAdoptionForm(c *gin.Context) {
	petID, ok := paramInt(c, "petID")
	if !ok {
		return
	}

	shelterID := c.GetInt("shelterID")
	userID, _ := getCurrentUserID(c)

	form, err := services.NewFormService(nil).
		Duplicate(c.Request.Context(), petID, shelterID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "form": form})
}

// ListShelterAdoptionForms returns all forms of the shelter
func ListShelterAdoptionForms(c *gin.Context) {
	shelterID := c.GetInt("shelterID")

	forms, err := services.NewFormService(nil).ListByShelter(shelterID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "forms": forms})
}

// GetAdoptionForm returns one form with its questions
func GetAdoptionForm(c *gin.Context) {
	formID, ok := paramInt(c, "formID")
	if !ok {
		return
	}

	form, err := services.NewFormService(nil).GetByID(formID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "form": form})
}

// GetAdoptionFormByPet returns the pet's current listing
func GetAdoptionFormByPet(c *gin.Context) {
	petID, ok := paramInt(c, "petID")
	if !ok {
		return
	}

	form, err := services.NewFormService(nil).GetByPetID(petID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "form": form})
}

// formBelongsToShelter rejects cross-shelter access to a form.
func formBelongsToShelter(c *gin.Context, svc *services.FormService, formID int) bool {
	form, err := svc.GetByID(formID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if form.ShelterID != c.GetInt("shelterID") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Form belongs to another shelter"})
		return false
	}
	return true
}
