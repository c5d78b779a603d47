package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"pathways/internal/api"
	"pathways/internal/api/adapter/inmem"
	"pathways/internal/api/middleware"
	"pathways/internal/app"
	"pathways/internal/domain"
	"pathways/internal/platform/server"
	"pathways/internal/platform/telemetry"
	"pathways/internal/store"
	"pathways/internal/testutil"
)

// startAPI wires the full boundary chain the way cmd/api does and starts the
// server. Returns the base URL.
func startAPI(t *testing.T, burst int) string {
	t.Helper()

	addr := freeAddr(t)

	tokens := testutil.NewTokenService()
	jobs := store.NewInMemJobStore()
	users := testutil.SeededUserStore()

	now := time.Now()
	clock := func() time.Time { return now }
	rl := inmem.NewRateLimiter(100, burst, clock)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	shutdown, err := telemetry.Setup(context.Background(), "pathways-test")
	if err != nil {
		t.Fatalf("telemetry setup: %v", err)
	}
	t.Cleanup(func() { shutdown(context.Background()) })

	sizeCfg := middleware.SizeLimitConfig{
		Defaults: middleware.SizeLimits{
			JSON:       middleware.ParseSize("1mb"),
			URLEncoded: middleware.ParseSize("1mb"),
			Text:       middleware.ParseSize("1mb"),
			File:       middleware.ParseSize("10mb"),
			Raw:        middleware.ParseSize("1mb"),
		},
		Overrides: []middleware.PathLimits{
			{Prefix: "/api/auth/login", SizeLimits: middleware.SizeLimits{JSON: middleware.ParseSize("10kb")}},
			{Prefix: "/api/files/upload", SizeLimits: middleware.SizeLimits{File: middleware.ParseSize("50mb")}},
		},
	}

	router := app.NewRouter(app.Deps{
		Jobs:   jobs,
		Users:  users,
		Tokens: tokens,
		Env:    "development",
		Logger: logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	mux.Handle("/", middleware.Chain(
		router,
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recovery,
		middleware.SizeLimit(sizeCfg, nil),
		middleware.StreamLimit(middleware.ParseSize("50mb")),
		middleware.RateLimit(rl, nil),
	))

	srv := server.New(addr, mux)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		if err := srv.Run(ctx); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	baseURL := "http://" + addr
	waitForReady(t, baseURL+"/healthz")

	return baseURL
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func waitForReady(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server did not become ready at %s", url)
}

func login(t *testing.T, baseURL, email, password string) string {
	t.Helper()

	body := `{"email":"` + email + `","password":"` + password + `"}`
	resp, err := http.Post(baseURL+"/api/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("login failed with %d: %s", resp.StatusCode, raw)
	}

	env := testutil.DecodeEnvelope(t, resp.Body)
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatal("expected token payload in data")
	}
	token, _ := data["access_token"].(string)
	if token == "" {
		t.Fatal("expected non-empty access_token")
	}
	return token
}

func TestFullAPIFlow(t *testing.T) {
	baseURL := startAPI(t, 100)

	employerToken := login(t, baseURL, "employer@example.org", "changeme-now")
	memberToken := login(t, baseURL, "member@example.org", "changeme-now")

	var jobID string

	t.Run("employer creates a job", func(t *testing.T) {
		body := `{"title":"Ranger Coordinator","employer":"Ngurra Pathways","location":"Alice Springs","description":"Seasonal land management role"}`
		req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/jobs", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+employerToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			raw, _ := io.ReadAll(resp.Body)
			t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
		}

		env := testutil.DecodeEnvelope(t, resp.Body)
		data := env.Data.(map[string]any)
		jobID, _ = data["id"].(string)
		if jobID == "" {
			t.Fatal("expected job id")
		}
	})

	t.Run("job list is paginated", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/api/jobs?page=1&pageSize=10")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		env := testutil.DecodeEnvelope(t, resp.Body)
		meta, ok := env.Meta.(map[string]any)
		if !ok {
			t.Fatal("expected pagination meta")
		}
		pagination := meta["pagination"].(map[string]any)
		if pagination["total"] != float64(1) {
			t.Errorf("expected total 1, got %v", pagination["total"])
		}
	})

	t.Run("member cannot post jobs", func(t *testing.T) {
		body := `{"title":"Another Role","employer":"Ngurra Pathways","location":"Darwin"}`
		req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/jobs", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+memberToken)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403, got %d", resp.StatusCode)
		}

		env := testutil.DecodeErrorEnvelope(t, resp.Body)
		if env.Code != domain.KindForbidden {
			t.Errorf("expected code FORBIDDEN, got %q", env.Code)
		}
	})

	t.Run("unauthenticated create returns 401", func(t *testing.T) {
		body := `{"title":"Another Role","employer":"Ngurra Pathways","location":"Darwin"}`
		resp, err := http.Post(baseURL+"/api/jobs", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("expired token returns 401", func(t *testing.T) {
		expired := testutil.IssueToken(t, testutil.NewExpiredTokenService(),
			domain.Principal{ID: "user-employer", Role: domain.RoleEmployer})

		req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/jobs", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+expired)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("missing job returns 404 envelope", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/api/jobs/no-such-id")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}

		env := testutil.DecodeErrorEnvelope(t, resp.Body)
		if env.Code != domain.KindNotFound {
			t.Errorf("expected code NOT_FOUND, got %q", env.Code)
		}
		if env.Timestamp == "" {
			t.Error("expected timestamp on error envelope")
		}
	})

	t.Run("oversized login body rejected before handlers", func(t *testing.T) {
		// 20000 bytes of declared JSON against the 10kb login override. The
		// checked governor answers from Content-Length; no body is read.
		body := strings.Repeat("x", 20000)
		req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", resp.StatusCode)
		}

		var body413 map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body413); err != nil {
			t.Fatalf("decoding 413 body: %v", err)
		}
		if body413["error"] != "Payload Too Large" {
			t.Errorf("expected legacy 413 error field, got %v", body413["error"])
		}
		if body413["limit"] != "10.0KB" {
			t.Errorf("expected limit 10.0KB, got %v", body413["limit"])
		}
		if _, hasSuccess := body413["success"]; hasSuccess {
			t.Error("413 body must not carry the envelope success field")
		}
	})

	t.Run("healthz accessible without auth", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/healthz")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("metrics accessible without auth", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/metrics")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("request ID reused when provided", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, baseURL+"/api/jobs", nil)
		req.Header.Set("X-Request-ID", "custom-req-id")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()

		if got := resp.Header.Get("X-Request-ID"); got != "custom-req-id" {
			t.Errorf("expected X-Request-ID 'custom-req-id', got %q", got)
		}
	})

	t.Run("request ID minted when missing and echoed in error envelopes", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/api/jobs/no-such-id")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()

		reqID := resp.Header.Get("X-Request-ID")
		if !strings.HasPrefix(reqID, "req_") {
			t.Errorf("expected minted req_ id, got %q", reqID)
		}

		env := testutil.DecodeErrorEnvelope(t, resp.Body)
		if env.RequestID != reqID {
			t.Errorf("expected envelope requestId %q, got %q", reqID, env.RequestID)
		}
	})
}

func TestRateLimitingIntegration(t *testing.T) {
	// Small burst; waitForReady polling consumes a few tokens first.
	baseURL := startAPI(t, 5)

	var lastStatus int
	for i := range 20 {
		resp, err := http.Get(baseURL + "/api/jobs")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		lastStatus = resp.StatusCode

		if resp.StatusCode == http.StatusTooManyRequests {
			break
		}
	}
	if lastStatus != http.StatusTooManyRequests {
		t.Fatalf("expected at least one 429 after burst exhaustion, last status: %d", lastStatus)
	}

	resp, err := http.Get(baseURL + "/api/jobs")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	var env api.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decoding 429 envelope: %v", err)
	}
	if env.Code != domain.KindRateLimited {
		t.Errorf("expected code RATE_LIMITED, got %q", env.Code)
	}
}
