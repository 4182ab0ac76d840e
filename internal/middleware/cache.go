package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/joaomferraz/KeyCript/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size < cw.limit {
		remain := cw.limit - cw.size
		if cw.limit <= 0 || int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else if remain > 0 {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// cachedResponse is the envelope stored in Redis for a cache hit.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// genKey names the per-user generation counter.  The counter value is part
// of every cache key for that user, so bumping it orphans all of the
// user's cached entries at once without scanning the keyspace.
func genKey(prefix, userID string) string {
	return prefix + ":gen:" + userID
}

// entryKey builds the cache key for one request.  The authenticated user
// id and their current generation are always part of the key: every
// cacheable route here is owner-scoped, so a key without the identity
// would leak one user's vault into another's responses.
func entryKey(prefix, userID, gen string, c echo.Context) string {
	r := c.Request()
	tail := strings.Join([]string{userID, gen, r.Method, c.Path(), r.URL.RawQuery, c.Param("id")}, ":")
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// NewVaultCache returns a middleware for the credential routes backed by
// Redis.  Responses to the configured methods (normally GET) are stored
// for the cache TTL; any other method that completes without error bumps
// the requesting user's generation so subsequent reads miss.  When the
// Redis client is nil or caching is disabled, the middleware is a no-op.
// Cache failures are never surfaced: a broken Redis degrades to plain
// database reads.
func NewVaultCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := UserID(c)
			if !ok {
				// Never cache for an unbound identity.
				return next(c)
			}
			ctx := c.Request().Context()

			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				// Mutating request: run it, then invalidate on success.
				if err := next(c); err != nil {
					return err
				}
				if st := c.Response().Status; st >= 200 && st < 300 {
					_ = rdb.Incr(context.Background(), genKey(cfg.Prefix, userID)).Err()
				}
				return nil
			}

			gen, err := rdb.Get(ctx, genKey(cfg.Prefix, userID)).Result()
			if err != nil {
				gen = "0"
			}
			key := entryKey(cfg.Prefix, userID, gen, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(bs, &cached) == nil {
					for k, vals := range cached.Header {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(cached.Status)
					if len(cached.Body) > 0 {
						_, _ = c.Response().Write(cached.Body)
					}
					return nil
				}
			}

			// Miss: capture the handler's output.
			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && (maxBody <= 0 || cw.size <= maxBody) {
				hdr := make(http.Header, len(c.Response().Header()))
				for k, vals := range c.Response().Header() {
					vv := make([]string, len(vals))
					copy(vv, vals)
					hdr[k] = vv
				}
				if payload, err := json.Marshal(cachedResponse{Status: cw.status, Header: hdr, Body: cw.buf.Bytes()}); err == nil {
					_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
				}
			}
			return nil
		}
	}
}
