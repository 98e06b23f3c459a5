package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/config"
	"github.com/pairly-app/pairly-backend/internal/crypto"
	"github.com/pairly-app/pairly-backend/internal/database"
	"github.com/pairly-app/pairly-backend/internal/dto"
	"github.com/pairly-app/pairly-backend/internal/handlers"
	"github.com/pairly-app/pairly-backend/internal/models"
	"github.com/pairly-app/pairly-backend/internal/routes"
	"github.com/pairly-app/pairly-backend/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
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

	cfg := &config.Config{
		JWTSecret:        "handler-test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
		AdminToken:       "ops-override",
		MatchPageSize:    20,
		MessagePageSize:  20,
	}
	cipher, err := crypto.NewAESCipher(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}

	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)
	quizService := services.NewQuizService(db)
	matchService := services.NewMatchService(db, quizService)
	visibilityService := services.NewVisibilityService(db, userService)
	notificationService := services.NewNotificationService(db)
	chatService := services.NewChatService(db, cipher, notificationService, userService, cfg.MessagePageSize)

	app := fiber.New()
	routes.Setup(app, cfg, db,
		handlers.NewAuthHandler(authService),
		handlers.NewHealthHandler(),
		handlers.NewLegalHandler(),
		handlers.NewUserHandler(userService, quizService),
		handlers.NewQuizHandler(quizService),
		handlers.NewMatchHandler(matchService, cfg),
		handlers.NewVisibilityHandler(visibilityService),
		handlers.NewChatHandler(chatService),
		handlers.NewNotificationHandler(notificationService),
	)
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	resp.Body.Close()
	return out
}

func registerUser(t *testing.T, app *fiber.App, email string) dto.AuthResponse {
	t.Helper()
	resp := doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email:     email,
		Password:  "correct horse",
		FirstName: "Test",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
	return decode[dto.AuthResponse](t, resp)
}

func TestAuthEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	alice := registerUser(t, app, "alice@example.com")

	resp := doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: "alice@example.com", Password: "correct horse",
	})
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: "bob@example.com", Password: "short",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("weak password: expected 400, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email: "alice@example.com", Password: "wrong",
	})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, fiber.MethodGet, "/api/users/me", "", nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, fiber.MethodGet, "/api/users/me", alice.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	profile := decode[dto.ProfileResponse](t, resp)
	if profile.Email != "alice@example.com" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestQuizEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	alice := registerUser(t, app, "alice@example.com")
	bob := registerUser(t, app, "bob@example.com")

	resp := doJSON(t, app, fiber.MethodGet, "/api/quiz/my", alice.AccessToken, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("quiz before setup: expected 404, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, fiber.MethodPost, "/api/quiz/edit", alice.AccessToken, dto.EditQuizRequest{
		Quiz: models.Quiz{ScoreRequired: 1},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("invalid quiz: expected 400, got %d", resp.StatusCode)
	}

	quiz := models.Quiz{
		ScoreRequired: 2,
		Questions: []models.QuizQuestion{
			{Text: "Mountains or beaches?", Options: []models.QuizOption{{Text: "Mountains"}, {Text: "Beaches"}}, CorrectOption: 0, Score: 1},
			{Text: "Pick a pet", Options: []models.QuizOption{{Text: "Cat"}, {Text: "Dog"}}, CorrectOption: 1, Score: 2},
		},
	}
	resp = doJSON(t, app, fiber.MethodPost, "/api/quiz/edit", alice.AccessToken, dto.EditQuizRequest{Quiz: quiz})
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("store quiz: expected 204, got %d", resp.StatusCode)
	}

	// A player's view never leaks answers, scores or the threshold.
	resp = doJSON(t, app, fiber.MethodGet, "/api/quiz/user/"+alice.User.ID.String(), bob.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("public view: expected 200, got %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	body := string(raw)
	if !strings.Contains(body, "Mountains or beaches?") {
		t.Fatalf("question text missing from %s", body)
	}
	for _, leak := range []string{"correct_option", "score_required", "\"score\""} {
		if strings.Contains(body, leak) {
			t.Fatalf("public view leaks %q: %s", leak, body)
		}
	}

	resp = doJSON(t, app, fiber.MethodPost, "/api/quiz/submit", bob.AccessToken, dto.SubmitQuizRequest{
		TargetUserID: alice.User.ID,
		Answers:      []int{0, 1},
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("submit: expected 200, got %d", resp.StatusCode)
	}
	result := decode[dto.SubmitQuizResponse](t, resp)
	if result.MatchPercent != 100 || !result.Passed {
		t.Fatalf("unexpected result %+v", result)
	}

	resp = doJSON(t, app, fiber.MethodPost, "/api/quiz/submit", bob.AccessToken, dto.SubmitQuizRequest{
		TargetUserID: alice.User.ID,
		Answers:      []int{1, 0},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("resubmit: expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, fiber.MethodGet, "/api/quiz/match-percent/"+alice.User.ID.String(), bob.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("match percent: expected 200, got %d", resp.StatusCode)
	}
	percent := decode[dto.MatchPercentResponse](t, resp)
	if percent.MatchPercent != 100 {
		t.Fatalf("expected 100, got %d", percent.MatchPercent)
	}
	resp = doJSON(t, app, fiber.MethodGet, "/api/quiz/match-percent/"+bob.User.ID.String(), alice.AccessToken, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("reverse percent: expected 404, got %d", resp.StatusCode)
	}

	// Bob has evaluated everyone there is.
	resp = doJSON(t, app, fiber.MethodGet, "/api/matches/discover", bob.AccessToken, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("discover with empty pool: expected 404, got %d", resp.StatusCode)
	}
}

func TestVisibilityEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	alice := registerUser(t, app, "alice@example.com")
	bob := registerUser(t, app, "bob@example.com")

	resp := doJSON(t, app, fiber.MethodPost, "/api/visibility/block", alice.AccessToken, dto.VisibilityActionRequest{
		TargetUserID: bob.User.ID,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("block: expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, fiber.MethodPost, "/api/visibility/block", alice.AccessToken, dto.VisibilityActionRequest{
		TargetUserID: bob.User.ID,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("double block: expected 400, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, fiber.MethodPost, "/api/visibility/unblock", alice.AccessToken, dto.VisibilityActionRequest{
		TargetUserID: bob.User.ID,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("unblock: expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, fiber.MethodPost, "/api/visibility/dismiss", alice.AccessToken, dto.VisibilityActionRequest{
		TargetUserID: alice.User.ID,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("self dismiss: expected 400, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, fiber.MethodPost, "/api/visibility/dismiss", alice.AccessToken, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("empty body: expected 400, got %d", resp.StatusCode)
	}
}

func TestAdminEndpoints(t *testing.T) {
	app, db := newTestApp(t)
	alice := registerUser(t, app, "alice@example.com")
	bob := registerUser(t, app, "bob@example.com")

	resp := doJSON(t, app, fiber.MethodGet, "/api/admin/visibility", alice.AccessToken, nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", resp.StatusCode)
	}

	// The ops token opens the admin surface regardless of role.
	req := httptest.NewRequest(fiber.MethodGet, "/api/admin/visibility", nil)
	req.Header.Set("Authorization", "Bearer "+alice.AccessToken)
	req.Header.Set("X-Admin-Token", "ops-override")
	opsResp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if opsResp.StatusCode != fiber.StatusOK {
		t.Fatalf("ops token: expected 200, got %d", opsResp.StatusCode)
	}

	// A promoted role takes effect without a new token.
	if err := db.Model(&models.User{}).Where("id = ?", alice.User.ID).UpdateColumn("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	resp = doJSON(t, app, fiber.MethodPost, "/api/admin/visibility", alice.AccessToken, dto.AdminSetVisibilityRequest{
		SourceUserID: alice.User.ID,
		TargetUserID: bob.User.ID,
		State:        "visible",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("admin set: expected 200, got %d", resp.StatusCode)
	}
	edge := decode[models.UserVisibility](t, resp)
	if edge.Visibility != models.VisibilityVisible {
		t.Fatalf("unexpected edge %+v", edge)
	}

	resp = doJSON(t, app, fiber.MethodDelete, "/api/admin/visibility/"+edge.ID.String(), alice.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("admin delete: expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, fiber.MethodDelete, "/api/admin/visibility/"+edge.ID.String(), alice.AccessToken, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("admin delete again: expected 404, got %d", resp.StatusCode)
	}
}

func TestChatEndpoints(t *testing.T) {
	app, db := newTestApp(t)
	alice := registerUser(t, app, "alice@example.com")
	bob := registerUser(t, app, "bob@example.com")
	carol := registerUser(t, app, "carol@example.com")

	edge := models.UserVisibility{
		ID:           uuid.New(),
		SourceUserID: alice.User.ID,
		TargetUserID: bob.User.ID,
		Visibility:   models.VisibilityVisible,
	}
	if err := db.Create(&edge).Error; err != nil {
		t.Fatalf("seed edge: %v", err)
	}

	// Carol was never matched, so she silently drops out of the invite.
	resp := doJSON(t, app, fiber.MethodPost, "/api/chat/", alice.AccessToken, dto.CreateRoomRequest{
		RoomName:       "weekend",
		ParticipantIDs: []uuid.UUID{bob.User.ID, carol.User.ID},
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("create room: expected 200, got %d", resp.StatusCode)
	}
	room := decode[dto.RoomResponse](t, resp)
	if len(room.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %v", room.Participants)
	}

	resp = doJSON(t, app, fiber.MethodPost, "/api/chat/message", alice.AccessToken, dto.SendMessageRequest{
		RoomID:  room.ID,
		Content: "hello bob",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("send: expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, fiber.MethodPost, "/api/chat/message", carol.AccessToken, dto.SendMessageRequest{
		RoomID:  room.ID,
		Content: "let me in",
	})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("outsider send: expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, fiber.MethodPost, "/api/chat/messages", bob.AccessToken, dto.GetMessagesRequest{
		RoomID: room.ID,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("get messages: expected 200, got %d", resp.StatusCode)
	}
	page := decode[dto.MessagesPageResponse](t, resp)
	if len(page.Messages) != 1 || page.Messages[0].Content != "hello bob" {
		t.Fatalf("unexpected page %+v", page)
	}

	resp = doJSON(t, app, fiber.MethodPost, "/api/chat/messages", bob.AccessToken, dto.GetMessagesRequest{
		RoomID: room.ID,
		Cursor: "yesterday",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bad cursor: expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, fiber.MethodPost, "/api/chat/"+room.ID.String()+"/leave", bob.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("leave: expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, fiber.MethodGet, "/api/notifications/", bob.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("notifications: expected 200, got %d", resp.StatusCode)
	}
	notifications := decode[dto.NotificationListResponse](t, resp)
	if notifications.Total != 1 {
		t.Fatalf("expected 1 notification for bob, got %d", notifications.Total)
	}
}

func TestLegalPages(t *testing.T) {
	app, _ := newTestApp(t)
	for _, path := range []string{"/api/legal/privacy", "/api/legal/terms"} {
		resp := doJSON(t, app, fiber.MethodGet, path, "", nil)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
			t.Fatalf("%s: unexpected content type %q", path, ct)
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		resp.Body.Close()
		if !strings.Contains(string(raw), "Pairly") {
			t.Fatalf("%s: page is not branded", path)
		}
	}
}
