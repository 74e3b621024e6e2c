package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	testReqID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testActor = "lender-1"
)

func setupEcho(rdb redis.Cmdable, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(Idempotency(rdb, ttl, nil))
	e.POST("/v1/deposits", handler)
	e.POST("/v1/loans/:loan_id/liquidate", handler)
	e.GET("/v1/stats", handler)
	return e
}

func validHeaders() map[string]string {
	return map[string]string{
		HeaderRequestID: testReqID,
		HeaderRequestAt: time.Now().UTC().Format(time.RFC3339),
		HeaderActorID:   testActor,
	}
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json %q: %v", rec.Body.String(), err)
	}
	return body["code"]
}

func countingHandler(calls *int32, status int) echo.HandlerFunc {
	return func(c echo.Context) error {
		n := atomic.AddInt32(calls, 1)
		return c.JSON(status, map[string]any{"call": n})
	}
}

func Test_BypassOnGET(t *testing.T) {
	_, rdb := newMiniRedis(t)
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls, http.StatusOK))

	rec := doReq(t, e, http.MethodGet, "/v1/stats", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET without headers => want 200, got %d", rec.Code)
	}
}

func Test_HeaderValidation(t *testing.T) {
	_, rdb := newMiniRedis(t)
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls, http.StatusCreated))

	cases := []struct {
		name   string
		mutate func(h map[string]string)
		code   string
	}{
		{"missing request id", func(h map[string]string) { delete(h, HeaderRequestID) }, "missing_request_id"},
		{"bad request id", func(h map[string]string) { h[HeaderRequestID] = "NOT-VALID" }, "invalid_request_id"},
		{"bad request at", func(h map[string]string) { h[HeaderRequestAt] = "yesterday" }, "invalid_request_at"},
		{"skewed past", func(h map[string]string) {
			h[HeaderRequestAt] = time.Now().UTC().Add(-maxClockSkew - time.Minute).Format(time.RFC3339)
		}, "request_at_skewed"},
		{"skewed future", func(h map[string]string) {
			h[HeaderRequestAt] = time.Now().UTC().Add(maxClockSkew + time.Minute).Format(time.RFC3339)
		}, "request_at_skewed"},
		{"missing actor", func(h map[string]string) { delete(h, HeaderActorID) }, "missing_actor_id"},
		{"bad actor", func(h map[string]string) { h[HeaderActorID] = "two words" }, "invalid_actor_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := validHeaders()
			tc.mutate(h)
			rec := doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader([]byte(`{}`)), h)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", rec.Code)
			}
			if got := errorCode(t, rec); got != tc.code {
				t.Fatalf("code = %q, want %q", got, tc.code)
			}
		})
	}
	if calls != 0 {
		t.Fatalf("handler ran %d times on rejected requests", calls)
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	_, rdb := newMiniRedis(t)
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls, http.StatusCreated))
	h := validHeaders()
	body := `{"lender_id":"lender-1","amount":"5000000"}`

	rec1 := doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader([]byte(body)), h)
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first => want 201, got %d: %s", rec1.Code, rec1.Body.String())
	}
	rec2 := doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader([]byte(body)), h)
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d", rec2.Code)
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if rec2.Header().Get(HeaderReplay) != "true" {
		t.Fatalf("replay header missing")
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}

	// another actor with the same request id is a different key
	h[HeaderActorID] = "lender-2"
	rec3 := doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader([]byte(body)), h)
	if rec3.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("other actor => code %d calls %d", rec3.Code, calls)
	}
}

func Test_SameRequestID_OnAnotherResource_RunsHandler(t *testing.T) {
	_, rdb := newMiniRedis(t)
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		atomic.AddInt32(&calls, 1)
		return c.JSON(http.StatusOK, map[string]string{"loan_id": c.Param("loan_id")})
	})
	h := validHeaders()

	rec1 := doReq(t, e, http.MethodPost, "/v1/loans/aaaa/liquidate", nil, h)
	rec2 := doReq(t, e, http.MethodPost, "/v1/loans/bbbb/liquidate", nil, h)
	if rec1.Code != http.StatusOK || rec2.Code != http.StatusOK {
		t.Fatalf("codes = %d, %d", rec1.Code, rec2.Code)
	}
	if rec2.Header().Get(HeaderReplay) != "" {
		t.Fatalf("second loan got a replayed response: %s", rec2.Body.String())
	}
	var out map[string]string
	if err := json.Unmarshal(rec2.Body.Bytes(), &out); err != nil || out["loan_id"] != "bbbb" {
		t.Fatalf("second body = %s (%v)", rec2.Body.String(), err)
	}
	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2", calls)
	}

	// the same resource still replays
	rec3 := doReq(t, e, http.MethodPost, "/v1/loans/aaaa/liquidate", nil, h)
	if rec3.Header().Get(HeaderReplay) != "true" || calls != 2 {
		t.Fatalf("repeat on aaaa: replay=%q calls=%d", rec3.Header().Get(HeaderReplay), calls)
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	_, rdb := newMiniRedis(t)
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls, http.StatusCreated))
	body := []byte(`{"x":1}`)

	key := buildKey(http.MethodPost, "/v1/deposits", testActor, testReqID)
	entry := storedResponse{InProgress: true, BodySHA256: bodyHash(body), RequestID: testReqID, CreatedAt: nowUTC()}
	if ok, err := provisionalSet(context.Background(), rdb, key, entry); err != nil || !ok {
		t.Fatalf("seed provisional: ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader(body), validHeaders())
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "request_in_progress" {
		t.Fatalf("in-progress => got %d %s", rec.Code, rec.Body.String())
	}
}

func Test_Conflict_When_SameReqID_DifferentBody(t *testing.T) {
	_, rdb := newMiniRedis(t)
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls, http.StatusCreated))
	h := validHeaders()

	rec := doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader([]byte(`{"x":1}`)), h)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first => %d", rec.Code)
	}
	rec = doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader([]byte(`{"x":2}`)), h)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "request_id_reused" {
		t.Fatalf("different body => got %d %s", rec.Code, rec.Body.String())
	}
}

func Test_ClientErrorsAreReplayed_ServerErrorsAreNot(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	var calls int32
	status := http.StatusUnprocessableEntity
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error {
		atomic.AddInt32(&calls, 1)
		return c.JSON(status, map[string]string{"code": "insufficient_liquidity"})
	})
	h := validHeaders()
	body := []byte(`{"amount":"1"}`)

	_ = doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader(body), h)
	rec := doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader(body), h)
	if rec.Code != http.StatusUnprocessableEntity || calls != 1 {
		t.Fatalf("4xx should be replayed: code %d calls %d", rec.Code, calls)
	}

	status = http.StatusInternalServerError
	h[HeaderRequestID] = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	_ = doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader(body), h)
	if mr.Exists(buildKey(http.MethodPost, "/v1/deposits", testActor, h[HeaderRequestID])) {
		t.Fatalf("5xx outcome must not be stored")
	}
	_ = doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader(body), h)
	if calls != 3 {
		t.Fatalf("5xx should be retried: calls %d", calls)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls, http.StatusCreated))

	rec := doReq(t, e, http.MethodPost, "/v1/deposits", bytes.NewReader([]byte(`{}`)), validHeaders())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store down => want 503, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run without the store")
	}
}
