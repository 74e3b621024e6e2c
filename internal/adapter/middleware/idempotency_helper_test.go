package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func Test_bodyHash(t *testing.T) {
	data := []byte(`{"amount":"1000000"}`)
	sum := sha256.Sum256(data)
	if got, want := bodyHash(data), hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("bodyHash mismatch: got %s want %s", got, want)
	}
}

func Test_buildKey(t *testing.T) {
	k := buildKey("POST", "/v1/deposits", "lender-1", strings.Repeat("a", 32))
	if want := "idemp:ax:post:/v1/deposits:lender-1:" + strings.Repeat("a", 32); k != want {
		t.Fatalf("buildKey = %q, want %q", k, want)
	}
}

func Test_validReqID(t *testing.T) {
	valid := []string{
		"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88",
		strings.Repeat("a", 32),
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88",
	}
	for _, s := range valid {
		if !validReqID(s) {
			t.Fatalf("validReqID should accept %q", s)
		}
	}
	invalid := []string{
		"",
		"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c880",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz",
		"3F9A6A1B-3D54-4FBE-8B3A-6B3E8D6B2C88",
		"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c8g",
	}
	for _, s := range invalid {
		if validReqID(s) {
			t.Fatalf("validReqID should reject %q", s)
		}
	}
}

func Test_reActor(t *testing.T) {
	for _, s := range []string{"lender-1", "0xAbC123", strings.Repeat("f", 32), "ops:team.a"} {
		if !reActor.MatchString(s) {
			t.Fatalf("actor %q should be accepted", s)
		}
	}
	for _, s := range []string{"", "has space", strings.Repeat("x", 65), "a/b"} {
		if reActor.MatchString(s) {
			t.Fatalf("actor %q should be rejected", s)
		}
	}
}

func Test_parseRequestAt(t *testing.T) {
	sec := time.Now().UTC().Unix()
	ts, err := parseRequestAt(strconv.FormatInt(sec, 10))
	if err != nil || !ts.Equal(time.Unix(sec, 0)) {
		t.Fatalf("epoch seconds: got %v, %v", ts, err)
	}

	ms := time.Now().UTC().UnixMilli()
	ts, err = parseRequestAt(strconv.FormatInt(ms, 10))
	if err != nil || !ts.Equal(time.UnixMilli(ms)) {
		t.Fatalf("epoch millis: got %v, %v", ts, err)
	}

	want := time.Date(2026, 4, 1, 2, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2026-04-01T09:00:00+07:00", "2026-04-01T02:00:00Z", "2026-04-01T02:00:00.000Z"} {
		ts, err := parseRequestAt(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !ts.Equal(want) || ts.Location() != time.UTC {
			t.Fatalf("parse %q = %v, want %v", raw, ts, want)
		}
	}

	for _, raw := range []string{"", "not-a-time", "2026-04-01T09:00:00", "1736123456abc"} {
		if _, err := parseRequestAt(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func Test_provisionalSet_LoadEntry(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	ctx := context.Background()

	key := buildKey("POST", "/v1/borrow", strings.Repeat("b", 32), strings.Repeat("a", 32))
	entry := storedResponse{
		InProgress:  true,
		BodySHA256:  bodyHash([]byte(`{"a":1}`)),
		RequestID:   strings.Repeat("a", 32),
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   nowUTC(),
	}

	ok, err := provisionalSet(ctx, rdb, key, entry)
	if err != nil || !ok {
		t.Fatalf("first provisionalSet: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > provisionalLockTTL {
		t.Fatalf("provisional TTL = %v", ttl)
	}
	ok, err = provisionalSet(ctx, rdb, key, entry)
	if err != nil || ok {
		t.Fatalf("second provisionalSet: ok=%v err=%v, want false", ok, err)
	}

	got, err := loadEntry(ctx, rdb, key)
	if err != nil {
		t.Fatalf("loadEntry: %v", err)
	}
	if !got.InProgress || got.RequestID != entry.RequestID || got.BodySHA256 != entry.BodySHA256 {
		t.Fatalf("loaded entry mismatch: %+v vs %+v", got, entry)
	}

	mr.FastForward(provisionalLockTTL + time.Second)
	if _, err := loadEntry(ctx, rdb, key); err != redis.Nil {
		t.Fatalf("provisional marker should expire, got err=%v", err)
	}
}

func Test_loadEntry_Corrupt(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	if err := mr.Set("idemp:bad", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := loadEntry(context.Background(), rdb, "idemp:bad"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func Test_saveFinal_TTL(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	key := buildKey("POST", "/v1/repay", "bot", strings.Repeat("a", 32))
	final := storedResponse{
		Code:       201,
		Body:       []byte(`{"ok":true}`),
		BodySHA256: bodyHash([]byte(`{}`)),
		RequestID:  strings.Repeat("a", 32),
		CreatedAt:  nowUTC(),
	}
	if err := saveFinal(context.Background(), rdb, key, final, 5*time.Second); err != nil {
		t.Fatalf("saveFinal: %v", err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > 5*time.Second {
		t.Fatalf("final TTL = %v", ttl)
	}
	got, err := loadEntry(context.Background(), rdb, key)
	if err != nil {
		t.Fatalf("loadEntry: %v", err)
	}
	if got.Code != 201 || string(got.Body) != `{"ok":true}` || got.InProgress {
		t.Fatalf("final entry mismatch: %+v", got)
	}
}
