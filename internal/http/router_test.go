package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/data/repos/testutil"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	apphttp "github.com/neocube/neocube-backend/internal/http"
	httpH "github.com/neocube/neocube-backend/internal/http/handlers"
	httpMW "github.com/neocube/neocube-backend/internal/http/middleware"
	"github.com/neocube/neocube-backend/internal/modules/roadmap"
	"github.com/neocube/neocube-backend/internal/modules/roadmap/roadmaptest"
	"github.com/neocube/neocube-backend/internal/platform/cache"
	"github.com/neocube/neocube-backend/internal/services"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type fixture struct {
	router    *gin.Engine
	techRepo  *testutil.MemTechnologyRepo
	userRepo  *testutil.MemUserRepo
	generator *roadmaptest.StubGenerator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)

	techRepo := testutil.NewMemTechnologyRepo()
	userRepo := testutil.NewMemUserRepo()
	sectorRepo := testutil.NewMemSectorRepo()
	gen := &roadmaptest.StubGenerator{Result: &roadmap.Result{
		Description:   "A systems language.",
		Category:      "Programming Language",
		Difficulty:    technology.DifficultyBeginner,
		Steps:         roadmaptest.Steps(2),
		EstimatedTime: "8 hours",
	}}

	avatars, err := services.NewAvatarService(log, nil)
	if err != nil {
		t.Fatalf("NewAvatarService: %v", err)
	}
	analyticsService := services.NewAnalyticsService(log, repos.NewAnalyticsEventRepo(testutil.SQLite(t), log))
	mem := cache.NewMemory(time.Minute)

	authService := services.NewAuthService(log, userRepo, avatars, "test-secret", time.Hour, nil)
	userService := services.NewUserService(log, userRepo, techRepo, avatars, analyticsService)
	favouriteService := services.NewFavouriteService(log, userRepo, techRepo, analyticsService)
	technologyService := services.NewTechnologyService(log, techRepo, sectorRepo, gen, mem, mem, analyticsService, services.TechnologyServiceConfig{})
	progressService := services.NewProgressService(log, userRepo, techRepo, analyticsService)
	sectorService := services.NewSectorService(log, sectorRepo, techRepo)

	router := apphttp.NewRouter(apphttp.RouterConfig{
		Log:               log,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, authService),
		AuthHandler:       httpH.NewAuthHandler(log, authService),
		UserHandler:       httpH.NewUserHandler(log, userService, favouriteService),
		TechnologyHandler: httpH.NewTechnologyHandler(log, technologyService),
		ProgressHandler:   httpH.NewProgressHandler(log, progressService),
		SectorHandler:     httpH.NewSectorHandler(log, sectorService),
		HealthHandler:     httpH.NewHealthHandler(nil),
	})
	return &fixture{router: router, techRepo: techRepo, userRepo: userRepo, generator: gen}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, env
}

func (f *fixture) registerAndLogin(t *testing.T) string {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "engine1",
	})
	if w.Code != http.StatusCreated || !env.Success {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	w, env = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "engine1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil || login.Token == "" {
		t.Fatalf("login token: %v (%s)", err, env.Data)
	}
	return login.Token
}

func TestHealthcheck(t *testing.T) {
	f := newFixture(t)
	w, _ := f.do(t, http.MethodGet, "/healthcheck", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", w.Code, w.Body.String())
	}
}

func TestDetailGeneratesEmptyRoadmap(t *testing.T) {
	f := newFixture(t)
	token := f.registerAndLogin(t)
	tech := f.techRepo.Seed(&technology.Technology{
		Name:       "Rust",
		FieldID:    "computer-science",
		Category:   "Programming Language",
		Difficulty: technology.DifficultyIntermediate,
	})

	w, env := f.do(t, http.MethodGet, "/api/v1/technologies/"+tech.Slug, token, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("detail: %d %s", w.Code, w.Body.String())
	}
	var got technology.Technology
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode technology: %v", err)
	}
	if len(got.Roadmap) != 2 {
		t.Fatalf("response roadmap length = %d, want 2", len(got.Roadmap))
	}
	if stored := f.techRepo.Stored(tech.ID); len(stored.Roadmap) != 2 {
		t.Fatalf("stored roadmap length = %d, want 2", len(stored.Roadmap))
	}

	// A second read serves the stored roadmap.
	if w, _ := f.do(t, http.MethodGet, "/api/v1/technologies/"+tech.Slug, token, nil); w.Code != http.StatusOK {
		t.Fatalf("second detail: %d", w.Code)
	}
	if calls := f.generator.Calls(); calls != 1 {
		t.Fatalf("generator calls = %d, want 1", calls)
	}
}

func TestFavouriteTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	token := f.registerAndLogin(t)
	tech := f.techRepo.Seed(&technology.Technology{Name: "Go", FieldID: "computer-science"})
	path := "/api/v1/users/favourites/" + tech.ID.Hex()

	w, env := f.do(t, http.MethodPost, path, token, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("first favourite: %d %s", w.Code, w.Body.String())
	}
	w, env = f.do(t, http.MethodPost, path, token, nil)
	if w.Code != http.StatusConflict || env.Success {
		t.Fatalf("second favourite: %d %s", w.Code, w.Body.String())
	}
	if env.Code != "already_favourite" {
		t.Fatalf("code = %q", env.Code)
	}
	if stored := f.techRepo.Stored(tech.ID); stored.Popularity != 1 {
		t.Fatalf("popularity = %d, want 1", stored.Popularity)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/v1/auth/me", "/api/v1/users/profile", "/api/v1/users/dashboard"} {
		w, env := f.do(t, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized || env.Success {
			t.Fatalf("%s: %d %s", path, w.Code, w.Body.String())
		}
	}
}

func TestCreateTechnologyRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	token := f.registerAndLogin(t)
	w, env := f.do(t, http.MethodPost, "/api/v1/technologies", token, map[string]any{"name": "Zig"})
	if w.Code != http.StatusForbidden || env.Code != "forbidden" {
		t.Fatalf("create as user: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	f := newFixture(t)
	w, env := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     "Ada",
		"email":    "not-an-email",
		"password": "123",
	})
	if w.Code != http.StatusBadRequest || env.Code != "validation_error" {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	fields := map[string]bool{}
	for _, fe := range env.Errors {
		fields[fe.Field] = true
	}
	if !fields["email"] || !fields["password"] {
		t.Fatalf("expected email and password errors, got %+v", env.Errors)
	}
}

func TestProgressUpdateBySlug(t *testing.T) {
	f := newFixture(t)
	token := f.registerAndLogin(t)
	tech := f.techRepo.Seed(&technology.Technology{
		Name:    "Kubernetes",
		FieldID: "computer-science",
		Roadmap: roadmaptest.Steps(4),
	})

	w, env := f.do(t, http.MethodPut, "/api/v1/technologies/"+tech.Slug+"/progress", token, map[string]any{
		"stepIndex": 0,
		"status":    "completed",
	})
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("progress: %d %s", w.Code, w.Body.String())
	}
	var view struct {
		PercentComplete int `json:"percentComplete"`
	}
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if view.PercentComplete != 25 {
		t.Fatalf("percentComplete = %d, want 25", view.PercentComplete)
	}
}
