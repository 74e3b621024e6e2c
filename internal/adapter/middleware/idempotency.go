package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Lifetime of the in-progress marker when a handler never finishes.
	provisionalLockTTL = 60 * time.Second
	maxClockSkew       = 10 * time.Minute

	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	HeaderActorID   = "Ax-Actor-Id"
	HeaderReplay    = "Ax-Idempotent-Replay"
)

// storedResponse is the redis value under an idempotency key. While the
// handler runs only the request fingerprint is set.
type storedResponse struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s storedResponse) replayable() bool {
	return !s.InProgress && s.Code != 0 && len(s.Body) > 0
}

// teeWriter copies the handler's response so it can be stored.
type teeWriter struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

type rejection struct {
	status int
	code   string
	msg    string
}

func reject(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, map[string]string{"error": msg, "code": code})
}

type guardHeaders struct {
	requestID string
	requestAt time.Time
	actorID   string
}

func readGuardHeaders(h http.Header, now time.Time) (guardHeaders, *rejection) {
	var g guardHeaders
	g.requestID = strings.ToLower(strings.TrimSpace(h.Get(HeaderRequestID)))
	switch {
	case g.requestID == "":
		return g, &rejection{http.StatusBadRequest, "missing_request_id", "missing " + HeaderRequestID}
	case !validReqID(g.requestID):
		return g, &rejection{http.StatusBadRequest, "invalid_request_id", "invalid " + HeaderRequestID + " format"}
	}

	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return g, &rejection{http.StatusBadRequest, "invalid_request_at", err.Error()}
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return g, &rejection{http.StatusBadRequest, "request_at_skewed", HeaderRequestAt + " too skewed"}
	}
	g.requestAt = at

	g.actorID = strings.TrimSpace(h.Get(HeaderActorID))
	switch {
	case g.actorID == "":
		return g, &rejection{http.StatusBadRequest, "missing_actor_id", "missing " + HeaderActorID}
	case !reActor.MatchString(g.actorID):
		return g, &rejection{http.StatusBadRequest, "invalid_actor_id", "invalid " + HeaderActorID}
	}
	return g, nil
}

// Idempotency guards mutating routes. The key is method + request path +
// actor + request id. A repeat with the same body replays the stored
// response and a different body is a conflict. 5xx responses are not kept,
// so the client may retry under the same request id.
//
// Ax-Request-At must be epoch seconds/ms or RFC3339 with a zone.
func Idempotency(rdb redis.Cmdable, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			hdr, rej := readGuardHeaders(req.Header, nowUTC())
			if rej != nil {
				return reject(c, rej.status, rej.code, rej.msg)
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			fingerprint := bodyHash(body)

			// the concrete path, so /loans/a and /loans/b never share a key
			key := buildKey(req.Method, req.URL.EscapedPath(), hdr.actorID, hdr.requestID)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			claimed, err := provisionalSet(ctx, rdb, key, storedResponse{
				InProgress:  true,
				BodySHA256:  fingerprint,
				RequestID:   hdr.requestID,
				RequestAtMS: hdr.requestAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			})
			if err != nil {
				log.Error("idempotency store unavailable", zap.String("key", key), zap.Error(err))
				return reject(c, http.StatusServiceUnavailable, "idempotency_unavailable", "idempotency store unavailable")
			}
			if !claimed {
				prev, err := loadEntry(ctx, rdb, key)
				if err != nil {
					log.Warn("idempotency entry unreadable", zap.String("key", key), zap.Error(err))
				}
				switch {
				case prev.BodySHA256 != "" && prev.BodySHA256 != fingerprint:
					return reject(c, http.StatusConflict, "request_id_reused", HeaderRequestID+" reused with different body")
				case prev.replayable():
					c.Response().Header().Set(HeaderReplay, "true")
					return c.Blob(prev.Code, echo.MIMEApplicationJSON, prev.Body)
				default:
					return reject(c, http.StatusConflict, "request_in_progress", "request is already in progress")
				}
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				c.Error(err)
			}

			// detached: the request context may already be cancelled
			if tee.code >= http.StatusInternalServerError {
				if err := rdb.Del(context.Background(), key).Err(); err != nil {
					log.Warn("idempotency release failed", zap.String("key", key), zap.Error(err))
				}
				return nil
			}
			err = saveFinal(context.Background(), rdb, key, storedResponse{
				Code:        tee.code,
				Body:        tee.buf.Bytes(),
				BodySHA256:  fingerprint,
				RequestID:   hdr.requestID,
				RequestAtMS: hdr.requestAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}, ttl)
			if err != nil {
				log.Warn("idempotency save failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
