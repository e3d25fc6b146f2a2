package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pet-adoption-api/models"
	"pet-adoption-api/services"
)

func consentService() *services.ConsentService {
	return services.NewConsentService(nil, defaultDispatcher())
}

type AttachmentRequest struct {
	FileName string `json:"file_name" binding:"required"`
	URL      string `json:"url" binding:"required"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type CreateConsentRequest struct {
	AdopterID      int                 `json:"adopter_id" binding:"required"`
	PetID          int                 `json:"pet_id" binding:"required"`
	Title          string              `json:"title" binding:"required"`
	Commitments    string              `json:"commitments"`
	Note           string              `json:"note"`
	TokenMoney     int64               `json:"token_money"`
	DeliveryMethod string              `json:"delivery_method"`
	Address        string              `json:"address"`
	Attachments    []AttachmentRequest `json:"attachments"`
}

// CreateConsentForm drafts the hand-over paperwork for a chosen adopter
func CreateConsentForm(c *gin.Context) {
	var req CreateConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := getCurrentUserID(c)

	form, err := consentService().Create(c.Request.Context(), services.CreateConsentInput{
		ShelterID:      c.GetInt("shelterID"),
		AdopterID:      req.AdopterID,
		PetID:          req.PetID,
		CreatedBy:      userID,
		Title:          req.Title,
		Commitments:    req.Commitments,
		Note:           req.Note,
		TokenMoney:     req.TokenMoney,
		DeliveryMethod: req.DeliveryMethod,
		Address:        req.Address,
		Attachments:    toAttachments(req.Attachments),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "consent_form": form})
}

type UpdateConsentRequest struct {
	Title          *string `json:"title"`
	Commitments    *string `json:"commitments"`
	Note           *string `json:"note"`
	TokenMoney     *int64  `json:"token_money"`
	DeliveryMethod *string `json:"delivery_method"`
	Address        *string `json:"address"`
}

// UpdateConsentForm edits a draft consent form
func UpdateConsentForm(c *gin.Context) {
	consentID, ok := paramInt(c, "consentID")
	if !ok {
		return
	}

	var req UpdateConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := consentService()
	if !consentBelongsToShelter(c, svc, consentID) {
		return
	}

	form, err := svc.Update(c.Request.Context(), consentID, services.UpdateConsentInput{
		Title:          req.Title,
		Commitments:    req.Commitments,
		Note:           req.Note,
		TokenMoney:     req.TokenMoney,
		DeliveryMethod: req.DeliveryMethod,
		Address:        req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "consent_form": form})
}

// AddConsentAttachments appends files to a draft consent form
func AddConsentAttachments(c *gin.Context) {
	consentID, ok := paramInt(c, "consentID")
	if !ok {
		return
	}

	var req struct {
		Attachments []AttachmentRequest `json:"attachments" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := consentService()
	if !consentBelongsToShelter(c, svc, consentID) {
		return
	}

	form, err := svc.AddAttachments(c.Request.Context(), consentID, toAttachments(req.Attachments))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "consent_form": form})
}

// DeleteConsentAttachment removes a file from a draft consent form
func DeleteConsentAttachment(c *gin.Context) {
	consentID, ok := paramInt(c, "consentID")
	if !ok {
		return
	}
	attachmentID, ok := paramInt(c, "attachmentID")
	if !ok {
		return
	}

	svc := consentService()
	if !consentBelongsToShelter(c, svc, consentID) {
		return
	}

	if err := svc.DeleteAttachment(c.Request.Context(), consentID, attachmentID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Attachment deleted"})
}

// DeleteConsentForm removes a draft consent form
func DeleteConsentForm(c *gin.Context) {
	consentID, ok := paramInt(c, "consentID")
	if !ok {
		return
	}

	svc := consentService()
	if !consentBelongsToShelter(c, svc, consentID) {
		return
	}

	if err := svc.Delete(c.Request.Context(), consentID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Consent form deleted"})
}

type ConsentStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// ChangeConsentStatusShelter runs shelter side consent transitions,
// including final approval which hands the pet over
func ChangeConsentStatusShelter(c *gin.Context) {
	consentID, ok := paramInt(c, "consentID")
	if !ok {
		return
	}

	var req ConsentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := getCurrentUserID(c)

	svc := consentService()
	if !consentBelongsToShelter(c, svc, consentID) {
		return
	}

	form, err := svc.ChangeStatusShelter(c.Request.Context(), consentID, req.Status, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "consent_form": form})
}

// ChangeConsentStatusUser runs adopter side consent transitions
func ChangeConsentStatusUser(c *gin.Context) {
	consentID, ok := paramInt(c, "consentID")
	if !ok {
		return
	}

	var req ConsentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := getCurrentUserID(c)

	form, err := consentService().
		ChangeStatusUser(c.Request.Context(), consentID, req.Status, req.Note, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "consent_form": form})
}

// ListShelterConsentForms returns the shelter's consent forms
func ListShelterConsentForms(c *gin.Context) {
	forms, err := consentService().ListByShelter(c.GetInt("shelterID"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "consent_forms": forms})
}

// ListMyConsentForms returns consent forms addressed to the caller
func ListMyConsentForms(c *gin.Context) {
	userID, _ := getCurrentUserID(c)

	forms, err := consentService().ListByUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "consent_forms": forms})
}

// GetConsentForm returns one consent form. Visible to the adopter it is
// addressed to and to members of the issuing shelter.
func GetConsentForm(c *gin.Context) {
	consentID, ok := paramInt(c, "consentID")
	if !ok {
		return
	}

	form, err := consentService().GetByID(consentID)
	if err != nil {
		respondError(c, err)
		return
	}

	userID, _ := getCurrentUserID(c)
	if form.AdopterID != userID && !isShelterMember(userID, form.ShelterID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to view this consent form"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "consent_form": form})
}

func toAttachments(reqs []AttachmentRequest) []models.ConsentAttachment {
	attachments := make([]models.ConsentAttachment, 0, len(reqs))
	for _, a := range reqs {
		attachments = append(attachments, models.ConsentAttachment{
			FileName: a.FileName,
			URL:      a.URL,
			Size:     a.Size,
			MimeType: a.MimeType,
		})
	}
	return attachments
}

// consentBelongsToShelter rejects cross-shelter access to a consent form.
func consentBelongsToShelter(c *gin.Context, svc *services.ConsentService, consentID int) bool {
	form, err := svc.GetByID(consentID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if form.ShelterID != c.GetInt("shelterID") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Consent form belongs to another shelter"})
		return false
	}
	return true
}
