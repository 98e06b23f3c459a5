package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/config"
	"github.com/pairly-app/pairly-backend/internal/dto"
	"github.com/pairly-app/pairly-backend/internal/models"
	"github.com/pairly-app/pairly-backend/internal/services"
	"gorm.io/gorm"
)

const testJWTSecret = "unit-test-secret"

func newAuthFixture(t *testing.T) (*gorm.DB, *services.AuthService) {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{
		JWTSecret:        testJWTSecret,
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
	}
	return db, services.NewAuthService(db, cfg)
}

func register(t *testing.T, svc *services.AuthService, email, password string) *dto.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture(t)

	resp := register(t, svc, "alice@example.com", "correct horse")
	if resp.User.Email != "alice@example.com" || resp.User.Role != models.RoleUser {
		t.Fatalf("unexpected user payload %+v", resp.User)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	// The access token is a signed JWT whose subject is the user id.
	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("access token does not verify: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", token.Claims)
	}
	if claims["sub"] != resp.User.ID.String() {
		t.Fatalf("expected sub %s, got %v", resp.User.ID, claims["sub"])
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	if !errors.Is(err, services.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	if !errors.Is(err, services.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture(t)

	_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "a@example.com", Password: "short"})
	if !errors.Is(err, services.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	_, err = svc.Register(ctx, &dto.RegisterRequest{Email: "", Password: "long enough"})
	if err == nil {
		t.Fatal("expected error for missing email")
	}
	_, err = svc.Register(ctx, &dto.RegisterRequest{
		Email:    "a@example.com",
		Password: "long enough",
		Birthday: "31-12-1990",
	})
	if !errors.Is(err, services.ErrInvalidBirthday) {
		t.Fatalf("expected ErrInvalidBirthday, got %v", err)
	}

	register(t, svc, "taken@example.com", "long enough")
	_, err = svc.Register(ctx, &dto.RegisterRequest{Email: "taken@example.com", Password: "long enough"})
	if !errors.Is(err, services.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture(t)
	first := register(t, svc, "alice@example.com", "correct horse")

	second, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	// The spent token is dead, the fresh one still works.
	_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
	if !errors.Is(err, services.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for reused token, got %v", err)
	}
	if _, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: second.RefreshToken}); err != nil {
		t.Fatalf("refresh rotated token: %v", err)
	}

	_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: "bogus"})
	if !errors.Is(err, services.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for bogus token, got %v", err)
	}
}

func TestRefreshExpiredToken(t *testing.T) {
	ctx := context.Background()
	db, svc := newAuthFixture(t)
	resp := register(t, svc, "alice@example.com", "correct horse")

	err := db.Model(&models.RefreshToken{}).
		Where("user_id = ?", resp.User.ID).
		UpdateColumn("expires_at", time.Now().Add(-time.Hour)).Error
	if err != nil {
		t.Fatalf("expire token: %v", err)
	}

	_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	if !errors.Is(err, services.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture(t)
	resp := register(t, svc, "alice@example.com", "correct horse")

	if err := svc.Logout(ctx, &dto.LogoutRequest{RefreshToken: resp.RefreshToken}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	if !errors.Is(err, services.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
}

func TestDeleteAccountGuards(t *testing.T) {
	ctx := context.Background()
	db, svc := newAuthFixture(t)
	resp := register(t, svc, "alice@example.com", "correct horse")

	if err := svc.DeleteAccount(ctx, uuid.New(), "correct horse"); !errors.Is(err, services.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.DeleteAccount(ctx, resp.User.ID, "wrong"); !errors.Is(err, services.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.DeleteAccount(ctx, resp.User.ID, ""); err == nil {
		t.Fatal("expected error for empty password")
	}
	if n := countRows(t, db, &models.User{}, "id = ?", resp.User.ID); n != 1 {
		t.Fatal("rejected delete must leave the account intact")
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	db, svc := newAuthFixture(t)
	alice := register(t, svc, "alice@example.com", "correct horse")
	bob := register(t, svc, "bob@example.com", "correct horse")

	quizService := services.NewQuizService(db)
	matchService := services.NewMatchService(db, quizService)
	userService := services.NewUserService(db)
	notificationService := services.NewNotificationService(db)
	chatService := services.NewChatService(db, testCipher(t), notificationService, userService, 20)

	if err := quizService.SetQuiz(ctx, alice.User.ID, sampleQuiz()); err != nil {
		t.Fatalf("set quiz: %v", err)
	}
	if _, err := matchService.SubmitQuiz(ctx, bob.User.ID, alice.User.ID, []int{0, 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	seedEdge(t, db, alice.User.ID, bob.User.ID, models.VisibilityVisible)

	shared, err := chatService.CreateRoom(ctx, alice.User.ID, "pair", []uuid.UUID{bob.User.ID})
	if err != nil {
		t.Fatalf("create shared room: %v", err)
	}
	solo, err := chatService.CreateRoom(ctx, alice.User.ID, "journal", nil)
	if err != nil {
		t.Fatalf("create solo room: %v", err)
	}
	// Bob's message leaves a notification on Alice's account.
	if _, err := chatService.SendMessage(ctx, shared.ID, bob.User.ID, "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := svc.DeleteAccount(ctx, alice.User.ID, "correct horse"); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	if n := countRows(t, db, &models.User{}, "id = ?", alice.User.ID); n != 0 {
		t.Fatal("user still visible after delete")
	}
	var unscoped int64
	if err := db.Unscoped().Model(&models.User{}).Where("id = ?", alice.User.ID).Count(&unscoped).Error; err != nil {
		t.Fatalf("unscoped count: %v", err)
	}
	if unscoped != 1 {
		t.Fatal("expected a soft-deleted user row")
	}

	id := alice.User.ID
	if n := countRows(t, db, &models.RefreshToken{}, "user_id = ?", id); n != 0 {
		t.Fatalf("refresh tokens survived account deletion: %d", n)
	}
	if n := countRows(t, db, &models.Questionnaire{}, "owner_id = ?", id); n != 0 {
		t.Fatalf("questionnaire survived account deletion: %d", n)
	}
	if n := countRows(t, db, &models.QuizScore{}, "player_id = ? OR owner_id = ?", id, id); n != 0 {
		t.Fatalf("quiz scores survived account deletion: %d", n)
	}
	if n := countRows(t, db, &models.UserVisibility{}, "source_user_id = ? OR target_user_id = ?", id, id); n != 0 {
		t.Fatalf("visibility edges survived account deletion: %d", n)
	}
	if n := countRows(t, db, &models.Notification{}, "user_id = ?", id); n != 0 {
		t.Fatalf("notifications survived account deletion: %d", n)
	}
	if n := countRows(t, db, &models.ChatParticipant{}, "user_id = ?", id); n != 0 {
		t.Fatalf("chat memberships survived account deletion: %d", n)
	}

	// The vacated solo room disappears, the shared room stays with Bob.
	if n := countRows(t, db, &models.ChatRoom{}, "id = ?", solo.ID); n != 0 {
		t.Fatal("empty room survived deletion")
	}
	if n := countRows(t, db, &models.ChatRoom{}, "id = ?", shared.ID); n != 1 {
		t.Fatal("occupied room was deleted")
	}
	if n := countRows(t, db, &models.ChatParticipant{}, "room_id = ? AND user_id = ?", shared.ID, bob.User.ID); n != 1 {
		t.Fatal("other participant lost their membership")
	}

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "correct horse"})
	if !errors.Is(err, services.ErrInvalidCredentials) {
		t.Fatalf("expected login to fail after deletion, got %v", err)
	}
}
