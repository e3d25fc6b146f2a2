package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pet-adoption-api/models"
)

var testDBCounter int64

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared",
		atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	// One connection keeps the shared in-memory database alive and
	// serializes sqlite writes.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.Shelter{},
		&models.ShelterMember{},
		&models.Species{},
		&models.Breed{},
		&models.Pet{},
		&models.Question{},
		&models.QuestionOption{},
		&models.AdoptionForm{},
		&models.AdoptionFormQuestion{},
		&models.AdoptionSubmission{},
		&models.SubmissionAnswer{},
		&models.ConsentForm{},
		&models.ConsentAttachment{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// seedUser inserts an active user and returns it.
func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	now := time.Now()
	user := models.User{
		FullName: name,
		Email:    fmt.Sprintf("%s-%d@example.com", name, atomic.AddInt64(&testDBCounter, 1)),
		Password: "x",
		Status:   "active",
		CreateAt: now,
		UpdateAt: now,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return &user
}

// seedShelter inserts an active shelter with one manager and one staff
// member.
func seedShelter(t *testing.T, db *gorm.DB) (*models.Shelter, *models.User, *models.User) {
	t.Helper()
	now := time.Now()
	shelter := models.Shelter{
		Name:     "Happy Paws",
		Email:    "paws@example.com",
		Status:   "active",
		CreateAt: now,
		UpdateAt: now,
	}
	if err := db.Create(&shelter).Error; err != nil {
		t.Fatalf("seed shelter: %v", err)
	}

	manager := seedUser(t, db, "manager")
	staff := seedUser(t, db, "staff")
	memberships := []models.ShelterMember{
		{ShelterID: shelter.ShelterID, UserID: manager.UserID, Roles: "staff,manager", CreateAt: now},
		{ShelterID: shelter.ShelterID, UserID: staff.UserID, Roles: "staff", CreateAt: now},
	}
	for i := range memberships {
		if err := db.Create(&memberships[i]).Error; err != nil {
			t.Fatalf("seed membership: %v", err)
		}
	}
	return &shelter, manager, staff
}

// seedPet inserts a pet with the given status.
func seedPet(t *testing.T, db *gorm.DB, shelterID int, status string) *models.Pet {
	t.Helper()
	now := time.Now()
	pet := models.Pet{
		PetCode:  fmt.Sprintf("PET-%d", atomic.AddInt64(&testDBCounter, 1)),
		Name:     "Mochi",
		ShelterID: shelterID,
		Age:      2,
		Status:   status,
		CreateAt: now,
		UpdateAt: now,
	}
	if err := db.Create(&pet).Error; err != nil {
		t.Fatalf("seed pet: %v", err)
	}
	return &pet
}

// seedQuestion inserts a question with its options; titles prefixed with
// "*" are flagged correct.
func seedQuestion(t *testing.T, db *gorm.DB, qType, priority string, optionTitles ...string) *models.Question {
	t.Helper()
	now := time.Now()
	question := models.Question{
		Title:    "q-" + qType,
		Type:     qType,
		Priority: priority,
		CreateAt: now,
		UpdateAt: now,
	}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
	for i, title := range optionTitles {
		correct := false
		if len(title) > 0 && title[0] == '*' {
			correct = true
			title = title[1:]
		}
		opt := models.QuestionOption{
			QuestionID:  question.QuestionID,
			Title:       title,
			IsCorrect:   correct,
			OptionOrder: i + 1,
		}
		if err := db.Create(&opt).Error; err != nil {
			t.Fatalf("seed option: %v", err)
		}
		question.Options = append(question.Options, opt)
	}
	return &question
}

// seedForm inserts an adoption form with the given questions attached.
func seedForm(t *testing.T, db *gorm.DB, shelterID, petID, createdBy int, status string, questions ...*models.Question) *models.AdoptionForm {
	t.Helper()
	now := time.Now()
	form := models.AdoptionForm{
		FormCode:  fmt.Sprintf("ADF-%d", atomic.AddInt64(&testDBCounter, 1)),
		PetID:     petID,
		ShelterID: shelterID,
		Title:     "Adopt Mochi",
		Status:    status,
		CreatedBy: createdBy,
		CreateAt:  now,
		UpdateAt:  now,
	}
	if err := db.Create(&form).Error; err != nil {
		t.Fatalf("seed form: %v", err)
	}
	for i, q := range questions {
		link := models.AdoptionFormQuestion{
			AdoptionFormID: form.AdoptionFormID,
			QuestionID:     q.QuestionID,
			QuestionOrder:  i + 1,
		}
		if err := db.Create(&link).Error; err != nil {
			t.Fatalf("seed form question: %v", err)
		}
	}
	return &form
}

// seedSubmission inserts a submission with the given status.
func seedSubmission(t *testing.T, db *gorm.DB, formID, userID int, status string) *models.AdoptionSubmission {
	t.Helper()
	now := time.Now()
	submission := models.AdoptionSubmission{
		SubmissionCode: generateSubmissionCode(),
		AdoptionFormID: formID,
		UserID:         userID,
		Status:         status,
		CreateAt:       now,
		UpdateAt:       now,
	}
	if err := db.Create(&submission).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	return &submission
}

// assertCode fails unless err is a domain error with the wanted code.
func assertCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	de, ok := AsDomainError(err)
	if !ok {
		t.Fatalf("expected domain error %s, got %v", want, err)
	}
	if de.Code != want {
		t.Fatalf("expected error code %s, got %s (%s)", want, de.Code, de.Message)
	}
}
