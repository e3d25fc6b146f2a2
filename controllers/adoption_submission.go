package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pet-adoption-api/config"
	"pet-adoption-api/models"
	"pet-adoption-api/services"
)

func submissionService() *services.SubmissionService {
	return services.NewSubmissionService(nil, defaultDispatcher())
}

type CreateSubmissionRequest struct {
	AdoptionFormID int                   `json:"adoption_form_id" binding:"required"`
	Answers        []services.RawAnswer  `json:"answers"`
}

// CreateAdoptionSubmission files an adoption application
func CreateAdoptionSubmission(c *gin.Context) {
	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := getCurrentUserID(c)

	submission, err := submissionService().Create(c.Request.Context(), services.CreateInput{
		UserID:         userID,
		AdoptionFormID: req.AdoptionFormID,
		Answers:        req.Answers,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "submission": submission})
}

// GetAdoptionSubmission returns one submission. Visible to its owner and
// to members of the shelter that runs the listing.
func GetAdoptionSubmission(c *gin.Context) {
	submissionID, ok := paramInt(c, "submissionID")
	if !ok {
		return
	}

	submission, err := submissionService().GetByID(submissionID)
	if err != nil {
		respondError(c, err)
		return
	}

	userID, _ := getCurrentUserID(c)
	if submission.UserID != userID && !isShelterMember(userID, submission.AdoptionForm.ShelterID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to view this submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "submission": submission})
}

// ListMySubmissions returns the caller's submissions
func ListMySubmissions(c *gin.Context) {
	userID, _ := getCurrentUserID(c)

	submissions, err := submissionService().ListByUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "submissions": submissions})
}

// CheckUserSubmitted reports whether the caller already applied on a form
func CheckUserSubmitted(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	formID, ok := paramInt(c, "formID")
	if !ok {
		return
	}

	submitted, submissionID, err := submissionService().HasUserSubmitted(userID, formID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"success": true, "submitted": submitted}
	if submitted {
		resp["submission_id"] = submissionID
	}
	c.JSON(http.StatusOK, resp)
}

// ListShelterSubmissions returns every submission against the shelter's forms
func ListShelterSubmissions(c *gin.Context) {
	shelterID := c.GetInt("shelterID")

	submissions, err := submissionService().ListByShelter(shelterID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "submissions": submissions})
}

// ListSubmissionsByPets returns submissions for the given pets
// (query ?pet_ids=1,2,3), adoption history included for adopted pets.
func ListSubmissionsByPets(c *gin.Context) {
	raw := strings.Split(c.Query("pet_ids"), ",")
	petIDs := make([]int, 0, len(raw))
	for _, part := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pet_ids"})
			return
		}
		petIDs = append(petIDs, id)
	}

	submissions, err := submissionService().ListByPetIDs(petIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "submissions": submissions})
}

type SubmissionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateSubmissionStatus moves a submission through the review pipeline
func UpdateSubmissionStatus(c *gin.Context) {
	submissionID, ok := paramInt(c, "submissionID")
	if !ok {
		return
	}

	var req SubmissionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := submissionService()
	if !submissionBelongsToShelter(c, svc, submissionID) {
		return
	}

	submission, err := svc.UpdateStatus(c.Request.Context(), submissionID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "submission": submission})
}

type ScheduleInterviewRequest struct {
	AvailableFrom   time.Time `json:"available_from" binding:"required"`
	AvailableTo     time.Time `json:"available_to" binding:"required"`
	Method          string    `json:"method" binding:"required"`
	AssignedStaffID int       `json:"assigned_staff_id" binding:"required"`
}

// ScheduleSubmissionInterview attaches an interview window and advances
// the submission to interviewing
func ScheduleSubmissionInterview(c *gin.Context) {
	submissionID, ok := paramInt(c, "submissionID")
	if !ok {
		return
	}

	var req ScheduleInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := getCurrentUserID(c)

	svc := submissionService()
	if !submissionBelongsToShelter(c, svc, submissionID) {
		return
	}

	submission, err := svc.ScheduleInterview(c.Request.Context(), services.ScheduleInterviewInput{
		SubmissionID:    submissionID,
		AvailableFrom:   req.AvailableFrom,
		AvailableTo:     req.AvailableTo,
		Method:          req.Method,
		AssignedStaffID: req.AssignedStaffID,
		ReviewedByID:    userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "submission": submission})
}

type SelectScheduleRequest struct {
	SelectedSchedule time.Time `json:"selected_schedule" binding:"required"`
}

// SelectInterviewSchedule lets the applicant pick their interview slot
func SelectInterviewSchedule(c *gin.Context) {
	submissionID, ok := paramInt(c, "submissionID")
	if !ok {
		return
	}

	var req SelectScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := getCurrentUserID(c)

	submission, err := submissionService().
		SelectSchedule(c.Request.Context(), submissionID, userID, req.SelectedSchedule)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "submission": submission})
}

type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// AddInterviewFeedback stores the interviewer's verdict
func AddInterviewFeedback(c *gin.Context) {
	submissionID, ok := paramInt(c, "submissionID")
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := getCurrentUserID(c)

	submission, err := submissionService().
		AddFeedback(c.Request.Context(), submissionID, userID, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "submission": submission})
}

type NoteRequest struct {
	Note string `json:"note" binding:"required"`
}

// AddSubmissionNote stores a reviewer note on a reviewed submission
func AddSubmissionNote(c *gin.Context) {
	submissionID, ok := paramInt(c, "submissionID")
	if !ok {
		return
	}

	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := submissionService()
	if !submissionBelongsToShelter(c, svc, submissionID) {
		return
	}

	submission, err := svc.AddNote(c.Request.Context(), submissionID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "submission": submission})
}

type ReassignRequest struct {
	AssignedStaffID int `json:"assigned_staff_id" binding:"required"`
}

// ReassignInterviewer hands the interview to another staff member
func ReassignInterviewer(c *gin.Context) {
	submissionID, ok := paramInt(c, "submissionID")
	if !ok {
		return
	}

	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := getCurrentUserID(c)

	svc := submissionService()
	if !submissionBelongsToShelter(c, svc, submissionID) {
		return
	}

	if err := svc.ReassignInterviewer(c.Request.Context(), submissionID, req.AssignedStaffID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Interviewer reassigned"})
}

// GetInterviewCounts returns per-staff interview load inside a window
// (query ?from=RFC3339&to=RFC3339), for spreading assignments evenly.
func GetInterviewCounts(c *gin.Context) {
	shelterID := c.GetInt("shelterID")

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to"})
		return
	}

	counts, err := submissionService().InterviewCountsByStaff(shelterID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "counts": counts})
}

// submissionBelongsToShelter rejects cross-shelter access to a submission.
func submissionBelongsToShelter(c *gin.Context, svc *services.SubmissionService, submissionID int) bool {
	submission, err := svc.GetByID(submissionID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if submission.AdoptionForm == nil || submission.AdoptionForm.ShelterID != c.GetInt("shelterID") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Submission belongs to another shelter"})
		return false
	}
	return true
}

func isShelterMember(userID, shelterID int) bool {
	var count int64
	config.DB.Model(&models.ShelterMember{}).
		Where("shelter_id = ? AND user_id = ?", shelterID, userID).
		Count(&count)
	return count > 0
}
