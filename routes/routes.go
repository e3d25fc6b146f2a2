package routes

import (
	"pet-adoption-api/controllers"
	"pet-adoption-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/register", controllers.Register)
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Pet Adoption API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.ListNotifications)
				notifications.PATCH("/:notificationID/read", controllers.MarkNotificationRead)
				notifications.PATCH("/read-all", controllers.MarkAllNotificationsRead)
				notifications.DELETE("/old", controllers.DeleteOldNotifications)
			}

			// Adoption listings (any authenticated user)
			protected.GET("/adoption-forms/:formID", controllers.GetAdoptionForm)
			protected.GET("/adoption-forms/:formID/submitted", controllers.CheckUserSubmitted)
			protected.GET("/pets/:petID/adoption-form", controllers.GetAdoptionFormByPet)

			// Applicant side of submissions
			submissions := protected.Group("/adoption-submissions")
			{
				submissions.POST("", controllers.CreateAdoptionSubmission)
				submissions.GET("/my", controllers.ListMySubmissions)
				submissions.GET("/:submissionID", controllers.GetAdoptionSubmission)
				submissions.POST("/:submissionID/interview/selection", controllers.SelectInterviewSchedule)
				submissions.POST("/:submissionID/interview/feedback", controllers.AddInterviewFeedback)
			}

			// Adopter side of consent forms
			consents := protected.Group("/consent-forms")
			{
				consents.GET("/my", controllers.ListMyConsentForms)
				consents.GET("/:consentID", controllers.GetConsentForm)
				consents.PATCH("/:consentID/status", controllers.ChangeConsentStatusUser)
			}

			// Shelter side, scoped by membership role
			shelter := protected.Group("/shelters/:shelterID")
			{
				staff := shelter.Group("")
				staff.Use(middleware.RequireShelterRole("staff", "manager"))
				{
					staff.GET("/adoption-forms", controllers.ListShelterAdoptionForms)
					staff.GET("/adoption-submissions", controllers.ListShelterSubmissions)
					staff.GET("/submissions-by-pets", controllers.ListSubmissionsByPets)
					staff.GET("/interview-counts", controllers.GetInterviewCounts)
					staff.GET("/consent-forms", controllers.ListShelterConsentForms)

					staff.PATCH("/adoption-submissions/:submissionID/status", controllers.UpdateSubmissionStatus)
					staff.POST("/adoption-submissions/:submissionID/interview", controllers.ScheduleSubmissionInterview)
					staff.POST("/adoption-submissions/:submissionID/note", controllers.AddSubmissionNote)
				}

				manager := shelter.Group("")
				manager.Use(middleware.RequireShelterRole("manager"))
				{
					manager.POST("/adoption-forms", controllers.CreateAdoptionForm)
					manager.PUT("/adoption-forms/:formID", controllers.UpdateAdoptionForm)
					manager.PATCH("/adoption-forms/:formID/status", controllers.ChangeAdoptionFormStatus)
					manager.DELETE("/adoption-forms/:formID", controllers.DeleteAdoptionForm)
					manager.POST("/pets/:petID/adoption-forms/duplicate", controllers.DuplicateAdoptionForm)

					manager.PATCH("/adoption-submissions/:submissionID/interview/assignee", controllers.ReassignInterviewer)

					manager.POST("/consent-forms", controllers.CreateConsentForm)
					manager.PUT("/consent-forms/:consentID", controllers.UpdateConsentForm)
					manager.PATCH("/consent-forms/:consentID/status", controllers.ChangeConsentStatusShelter)
					manager.POST("/consent-forms/:consentID/attachments", controllers.AddConsentAttachments)
					manager.DELETE("/consent-forms/:consentID/attachments/:attachmentID", controllers.DeleteConsentAttachment)
					manager.DELETE("/consent-forms/:consentID", controllers.DeleteConsentForm)
				}
			}
		}
	}
}
