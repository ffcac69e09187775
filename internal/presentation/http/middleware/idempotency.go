package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/sangkips/kopi-pos/pkg/lock"
	"github.com/sirupsen/logrus"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour

	idempotencyLockTTL  = 30 * time.Second
	idempotencyLockWait = 10 * time.Second
)

// KeyLocker serializes requests sharing an idempotency key.
type KeyLocker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (lock.Lock, error)
}

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	// Locker holds the key from lookup until the response is stored. Nil
	// disables locking.
	Locker KeyLocker
	Log    *logrus.Logger
	// Required rejects POSTs without a key.
	Required bool
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a client retries a POST with the
// same key. Only 2xx responses are stored so a failed attempt can be retried.
// Reusing a key with a different body or path is rejected, and a concurrent
// request holding the same key is waited for before the lookup.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if config.Required {
				response.BadRequest(c, "Idempotency-Key header is required for this request")
				c.Abort()
				return
			}
			c.Next()
			return
		}
		if len(key) > 255 {
			response.BadRequest(c, "Idempotency-Key must be at most 255 characters")
			c.Abort()
			return
		}

		userID, ok := c.Value(ContextUserID).(uuid.UUID)
		if !ok {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Could not read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		hash := hex.EncodeToString(sum[:])
		endpoint := c.Request.Method + " " + c.Request.URL.Path

		if config.Locker != nil {
			release, ok := obtainKeyLock(c, config, "idem:"+userID.String()+":"+key)
			if !ok {
				return
			}
			defer release()
		}

		existing, err := config.Repo.FindLive(c.Request.Context(), userID, key, time.Now())
		if err != nil {
			response.Error(c, apperror.Persistence(err))
			c.Abort()
			return
		}
		if existing != nil {
			if existing.Endpoint != endpoint || (existing.RequestHash != "" && existing.RequestHash != hash) {
				response.Error(c, apperror.NewConflictError("Idempotency-Key was already used for a different request"))
				c.Abort()
				return
			}
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		blw := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		now := time.Now()
		ikey := &entity.IdempotencyKey{
			Key:          key,
			UserID:       userID,
			Endpoint:     endpoint,
			RequestHash:  hash,
			ResponseCode: status,
			ResponseBody: blw.body.String(),
			CreatedAt:    now,
			ExpiresAt:    now.Add(IdempotencyKeyTTL),
		}
		if err := config.Repo.Save(context.WithoutCancel(c.Request.Context()), ikey); err != nil && !errors.Is(err, repository.ErrDuplicate) && config.Log != nil {
			config.Log.WithField("key", key).WithError(err).Warn("could not store idempotency key")
		}
	}
}

// obtainKeyLock aborts with 409 when another request keeps the key past the
// wait. Locker failures other than contention are logged and the request runs
// unlocked.
func obtainKeyLock(c *gin.Context, config IdempotencyConfig, name string) (func(), bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), idempotencyLockWait)
	defer cancel()

	l, err := config.Locker.Obtain(ctx, name, idempotencyLockTTL)
	if errors.Is(err, lock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		response.Error(c, apperror.NewConflictError("A request with this Idempotency-Key is still in progress"))
		c.Abort()
		return nil, false
	}
	if err != nil {
		if config.Log != nil {
			config.Log.WithField("lock", name).WithError(err).Warn("could not lock idempotency key")
		}
		return func() {}, true
	}

	return func() {
		if err := l.Release(context.WithoutCancel(c.Request.Context())); err != nil && config.Log != nil {
			config.Log.WithField("lock", name).WithError(err).Warn("could not release idempotency key lock")
		}
	}, true
}
