package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guessart/internal/game"
	"guessart/internal/hint"
	"guessart/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// do sends a request through the router, carrying over any cookies given.
func do(router http.Handler, method, target string, body io.Reader, contentType string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.RemoteAddr = "192.0.2.1:1234"
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func postAnswer(router http.Handler, answer string, cookie *http.Cookie) *httptest.ResponseRecorder {
	form := url.Values{"answer": {answer}}.Encode()
	return do(router, http.MethodPost, RouteAnswer, strings.NewReader(form), "application/x-www-form-urlencoded", cookie)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHomeHandler(t *testing.T) {
	app := testApp(t, nil, nil)
	w := do(app.newRouter(), http.MethodGet, RouteHome, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET / returned status %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`id="start-btn"`, `id="hint-btn"`, `id="answer-input"`, `data-delay="500"`, "Guess the Art!"} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	sessionCookie(t, w)
}

func TestStartThenAnswer(t *testing.T) {
	app := testApp(t, staticArtwork("Starry,", "Night."), nil)
	router := app.newRouter()

	w := do(router, http.MethodPost, RouteStart, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /start returned %d: %s", w.Code, w.Body.String())
	}
	resp := decode[startResponse](t, w)
	if resp.Generation != 1 || !resp.RevealAnswer || resp.Alt != "Starry, Night." || resp.ImageURL == "" {
		t.Errorf("unexpected start response: %+v", resp)
	}
	cookie := sessionCookie(t, w)

	cases := []struct {
		answer  string
		verdict string
		message string
	}{
		{"Starry, Night.", "correct", "Correct!"},
		{"Starry Night", "correct", "Correct!"},
		{"starry night", "incorrect", "Incorrect :( Try again!"},
		{" Starry Night", "incorrect", "Incorrect :( Try again!"},
	}
	for _, c := range cases {
		w := postAnswer(router, c.answer, cookie)
		if w.Code != http.StatusOK {
			t.Fatalf("POST /answer returned %d", w.Code)
		}
		got := decode[answerResponse](t, w)
		if got.Verdict != c.verdict || got.Message != c.message || got.DelayMS != 500 {
			t.Errorf("answer %q: got %+v", c.answer, got)
		}
	}
}

func TestAnswerHandlerJSON(t *testing.T) {
	app := testApp(t, staticArtwork("Nighthawks"), nil)
	router := app.newRouter()
	cookie := sessionCookie(t, do(router, http.MethodPost, RouteStart, nil, ""))

	w := do(router, http.MethodPost, RouteAnswer, strings.NewReader(`{"answer":"Nighthawks"}`), "application/json", cookie)
	if got := decode[answerResponse](t, w); got.Verdict != "correct" {
		t.Errorf("JSON answer verdict = %q, want correct", got.Verdict)
	}

	w = do(router, http.MethodPost, RouteAnswer, strings.NewReader(`{"answer":`), "application/json", cookie)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON returned %d, want 400", w.Code)
	}
}

func TestAnswerWithoutArtworkIsIncorrect(t *testing.T) {
	app := testApp(t, nil, nil)
	w := postAnswer(app.newRouter(), "", nil)
	if got := decode[answerResponse](t, w); got.Verdict != "incorrect" {
		t.Errorf("verdict = %q, want incorrect", got.Verdict)
	}
}

func TestStartHandlerProviderError(t *testing.T) {
	loader := artworkFunc(func(context.Context) (types.ArtworkRecord, error) {
		return types.ArtworkRecord{}, fmt.Errorf("upstream: %w", context.DeadlineExceeded)
	})
	app := testApp(t, loader, nil)
	w := do(app.newRouter(), http.MethodPost, RouteStart, nil, "")
	if w.Code != http.StatusBadGateway {
		t.Errorf("POST /start returned %d, want 502", w.Code)
	}
	if got := decode[errorResponse](t, w); got.Error != MessageGenericError {
		t.Errorf("error message = %q", got.Error)
	}
}

func TestHintHandler(t *testing.T) {
	hints := hintFunc(func(ctx context.Context, s *game.Session) (types.HintRecord, error) {
		if !s.Loaded() {
			return types.HintRecord{}, hint.ErrNoArtwork
		}
		return types.HintRecord{Word: "Night", Definition: "A test def.", Text: "A test def."}, nil
	})
	app := testApp(t, staticArtwork("Starry,", "Night."), hints)
	router := app.newRouter()
	cookie := sessionCookie(t, do(router, http.MethodPost, RouteStart, nil, ""))

	w := do(router, http.MethodPost, RouteHint, nil, "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /hint returned %d", w.Code)
	}
	got := decode[hintResponse](t, w)
	if got.Hint != "A test def." || got.FollowUp != hint.FollowUp || got.DelayMS != 500 {
		t.Errorf("unexpected hint response: %+v", got)
	}
}

func TestHintHandlerWithoutArtwork(t *testing.T) {
	app := testApp(t, nil, hint.NewProvider(nil))
	w := do(app.newRouter(), http.MethodPost, RouteHint, nil, "")
	if w.Code != http.StatusConflict {
		t.Errorf("POST /hint without artwork returned %d, want 409", w.Code)
	}
	if got := decode[errorResponse](t, w); got.Error != MessageGenericError {
		t.Errorf("error message = %q", got.Error)
	}
}

func TestEndToEndWithUpstreams(t *testing.T) {
	art := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fields") != "id,title,description,iiif_url,image_id" {
			t.Errorf("unexpected fields query: %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"data":{"id":1,"title":"Starry, Night.","image_id":"img"},"config":{"iiif_url":"https://iiif.test/iiif/2"}}`)
	}))
	defer art.Close()
	dict := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Starry" && r.URL.Path != "/Night" {
			t.Errorf("unexpected dictionary path %q", r.URL.Path)
		}
		fmt.Fprint(w, `[{"meanings":[{"definitions":[{"definition":"A test def."}]}]}]`)
	}))
	defer dict.Close()

	cfg := defaultConfig()
	cfg.artBaseURL = art.URL
	cfg.dictionaryBaseURL = dict.URL
	cfg.sessionDir = t.TempDir()
	app, err := newApp(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	router := app.newRouter()

	w := do(router, http.MethodPost, RouteStart, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /start returned %d: %s", w.Code, w.Body.String())
	}
	if got := decode[startResponse](t, w); got.ImageURL != "https://iiif.test/iiif/2/img/full/843,/0/default.jpg" {
		t.Errorf("image url = %q", got.ImageURL)
	}
	cookie := sessionCookie(t, w)

	if got := decode[hintResponse](t, do(router, http.MethodPost, RouteHint, nil, "", cookie)); got.Hint != "A test def." {
		t.Errorf("hint = %q", got.Hint)
	}
	if got := decode[answerResponse](t, postAnswer(router, "Starry Night", cookie)); got.Verdict != "correct" {
		t.Errorf("verdict = %q", got.Verdict)
	}
}

func TestStaticHandler(t *testing.T) {
	app := testApp(t, nil, nil)
	router := app.newRouter()

	w := do(router, http.MethodGet, "/static/app.js", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /static/app.js returned %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/javascript") {
		t.Errorf("content type = %q", ct)
	}
	if w := do(router, http.MethodGet, "/static/missing.js", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("missing asset returned %d, want 404", w.Code)
	}
}

func TestCacheHeaders(t *testing.T) {
	app := testApp(t, nil, nil)
	app.Config.production = true
	router := app.newRouter()

	w := do(router, http.MethodGet, "/static/app.css", nil, "")
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "public") || !strings.Contains(cc, "max-age=300") {
		t.Errorf("static Cache-Control = %q", cc)
	}
	w = do(router, http.MethodGet, RouteHome, nil, "")
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("page Cache-Control = %q", cc)
	}
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS header in production")
	}
}

func TestSecurityHeaders(t *testing.T) {
	app := testApp(t, nil, nil)
	w := do(app.newRouter(), http.MethodGet, RouteHome, nil, "")
	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "img-src 'self' https:") {
		t.Errorf("CSP = %q", csp)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header")
	}
}

func TestGzipCompressesPage(t *testing.T) {
	app := testApp(t, nil, nil)
	req, _ := http.NewRequest(http.MethodGet, RouteHome, nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	app.newRouter().ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip Content-Encoding")
	}
	r, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer r.Close()
	out, _ := io.ReadAll(r)
	if !strings.Contains(string(out), "start-btn") {
		t.Error("decompressed page missing start button")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	app := testApp(t, nil, nil)
	router := gin.New()
	router.Use(app.rateLimitMiddleware())
	router.GET("/limited", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < app.Config.rateLimitBurst; i++ {
		if w := do(router, http.MethodGet, "/limited", nil, ""); w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	if w := do(router, http.MethodGet, "/limited", nil, ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("request past burst: expected 429, got %d", w.Code)
	}
}

func TestHealthzHandlerFields(t *testing.T) {
	app := testApp(t, nil, nil)
	w := do(app.newRouter(), http.MethodGet, RouteHealthz, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz returned status %d, want 200", w.Code)
	}
	resp := decode[map[string]any](t, w)
	for _, field := range []string{"status", "version", "env", "sessions", "uptime", "timestamp"} {
		if _, ok := resp[field]; !ok {
			t.Errorf("Expected '%s' field in /healthz response", field)
		}
	}
	if resp["env"] != "development" {
		t.Errorf("env = %v, want development", resp["env"])
	}
}
