package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	idempotencyPrefix = "idem:"
)

// IdempotencyMiddleware replays the stored response for a mutating request
// that carries an Idempotency-Key the API has already answered. The request
// body is hashed so a reused key with a different payload is refused rather
// than silently served someone else's reply.
type IdempotencyMiddleware struct {
	redis *redis.Client
}

func NewIdempotencyMiddleware(redisClient *redis.Client) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{redis: redisClient}
}

type storedReply struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash"`
}

// replyRecorder tees the response so it can be stored after the handler runs.
type replyRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rr *replyRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *replyRecorder) Write(b []byte) (int, error) {
	rr.body.Write(b)
	return rr.ResponseWriter.Write(b)
}

func (m *IdempotencyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
			next.ServeHTTP(w, r)
			return
		}

		idemKey := r.Header.Get(IdempotencyHeader)
		if idemKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		sum := sha256.Sum256(bodyBytes)
		bodyHash := hex.EncodeToString(sum[:])
		cacheKey := idempotencyPrefix + idemKey
		ctx := r.Context()

		if prior, err := m.load(ctx, cacheKey); err == nil {
			if prior.BodyHash != bodyHash {
				conflictJSON(w, "idempotency_conflict", "idempotency key already used with different request")
				return
			}
			if prior.ContentType != "" {
				w.Header().Set("Content-Type", prior.ContentType)
			}
			w.WriteHeader(prior.StatusCode)
			w.Write(prior.Body)
			return
		}

		// One in-flight request per key; a concurrent duplicate backs off.
		lockKey := cacheKey + ":lock"
		locked, err := m.redis.SetNX(ctx, lockKey, "1", 30*time.Second).Result()
		if err != nil || !locked {
			conflictJSON(w, "request_in_progress", "a request with this idempotency key is already being processed")
			return
		}
		defer m.redis.Del(ctx, lockKey)

		rec := &replyRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		// Only settled outcomes are worth replaying.
		if rec.statusCode >= 200 && rec.statusCode < 300 {
			data, _ := json.Marshal(storedReply{
				StatusCode:  rec.statusCode,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
				BodyHash:    bodyHash,
			})
			m.redis.Set(ctx, cacheKey, data, idempotencyTTL)
		}
	})
}

func (m *IdempotencyMiddleware) load(ctx context.Context, key string) (*storedReply, error) {
	data, err := m.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var prior storedReply
	if err := json.Unmarshal(data, &prior); err != nil {
		return nil, err
	}
	return &prior, nil
}

func conflictJSON(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
