package services_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/crypto"
	"github.com/pairly-app/pairly-backend/internal/database"
	"github.com/pairly-app/pairly-backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a uniquely named shared in-memory database so each test
// gets an isolated schema while the connection pool still sees one store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "not-a-real-hash",
		FirstName: "Test",
		LastName:  "User",
		Role:      models.RoleUser,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}

func seedEdge(t *testing.T, db *gorm.DB, source, target uuid.UUID, state models.Visibility) *models.UserVisibility {
	t.Helper()
	edge := &models.UserVisibility{
		ID:           uuid.New(),
		SourceUserID: source,
		TargetUserID: target,
		Visibility:   state,
	}
	if err := db.Create(edge).Error; err != nil {
		t.Fatalf("seed edge: %v", err)
	}
	return edge
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

// sampleQuiz is the two-question quiz used throughout the scoring tests:
// Q1 is worth 1 point (correct 0), Q2 is worth 2 (correct 1), and 2 points
// are needed to pass.
func sampleQuiz() *models.Quiz {
	return &models.Quiz{
		ScoreRequired: 2,
		Questions: []models.QuizQuestion{
			{
				Text:          "Mountains or beaches?",
				Options:       []models.QuizOption{{Text: "Mountains"}, {Text: "Beaches"}},
				CorrectOption: 0,
				Score:         1,
			},
			{
				Text:          "Pick a pet",
				Options:       []models.QuizOption{{Text: "Cat"}, {Text: "Dog"}, {Text: "Iguana"}},
				CorrectOption: 1,
				Score:         2,
			},
		},
	}
}

func testCipher(t *testing.T) *crypto.AESCipher {
	t.Helper()
	cipher, err := crypto.NewAESCipher(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("test cipher: %v", err)
	}
	return cipher
}
