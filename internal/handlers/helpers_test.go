package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ideascentral/internal/config"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/services"
	"ideascentral/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-horse"

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
	mailer *services.TestEmailService
	cfg    *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		IsTest: true,
		Server: config.ServerConfig{SessionSecret: "test-session-secret"},
		Store:  config.StoreConfig{Backend: config.StoreBackendMemory},
		OpenTelemetry: config.OpenTelemetryConfig{
			ServiceName: "ideas-central-test",
		},
		Evaluation: config.EvaluationConfig{IdempotencyWindow: time.Minute},
	}
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	logger := observability.NewNopLogger()
	st := store.NewMemoryStore()
	testMailer := services.NewTestEmailService(cfg, logger)

	records := services.NewRecordService(st, logger, nil, services.NewDecisionNotifier(testMailer, st, cfg, logger))
	evaluations := services.NewEvaluationService(records, cfg.Evaluation, logger)
	auth := services.NewAuthService(st, cfg, logger)

	router := NewRouter(cfg, auth, records, evaluations, services.NewKeywordClassifier(), logger)
	return &testServer{router: router, store: st, mailer: testMailer, cfg: cfg}
}

// seedUser stores a user with a cheap bcrypt hash
func (s *testServer) seedUser(t *testing.T, id, email, first, last string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    first,
		LastName:     last,
		Role:         role,
	}
	require.NoError(t, s.store.InsertUser(context.Background(), user))
	return user
}

func (s *testServer) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": email, "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == config.SessionName {
			return c
		}
	}
	t.Fatalf("login did not set %s cookie", config.SessionName)
	return nil
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seedCampus creates a student, a faculty member, an admin and returns their session cookies
func (s *testServer) seedCampus(t *testing.T) (student, faculty, admin *http.Cookie) {
	t.Helper()
	s.seedUser(t, "stu-1", "riley@uni.edu", "Riley", "Reyes", models.RoleStudent)
	s.seedUser(t, "fac-1", "quinn@uni.edu", "Avery", "Quinn", models.RoleFaculty)
	s.seedUser(t, "adm-1", "root@uni.edu", "Sam", "Admin", models.RoleAdmin)
	return s.login(t, "riley@uni.edu"), s.login(t, "quinn@uni.edu"), s.login(t, "root@uni.edu")
}

func (s *testServer) createProblem(t *testing.T, cookie *http.Cookie, title string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/problems", map[string]interface{}{
		"title":       title,
		"description": "Students cannot find a seat during exam weeks",
		"category":    "facilities",
		"tags":        []string{"library", "seating"},
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func (s *testServer) createIdea(t *testing.T, cookie *http.Cookie, problemID string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/ideas", map[string]interface{}{
		"problem_id":  problemID,
		"title":       "Seat booking app",
		"description": "Reserve library seats in advance",
		"solution":    "A small web app backed by the room sensors",
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}
