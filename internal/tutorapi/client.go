// Package tutorapi is the HTTP client for the marketplace REST backend: tutor profile,
// weekly availability and bookings.
package tutorapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"tutorcal/internal/metrics"
	"tutorcal/internal/model"
)

const (
	cachePrefix = "tutorcal"

	maxErrorBody = 64 << 10
)

// Client calls the marketplace API on behalf of the signed-in tutor.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	logger     zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// BookingQuery filters the bookings list.
type BookingQuery struct {
	Role     string
	Status   string
	PageSize int
}

// ReplaceAvailabilityRequest replaces the whole weekly availability set. Version must be
// the version last read from the server.
type ReplaceAvailabilityRequest struct {
	Availability []model.WeeklyAvailabilityRule `json:"availability"`
	Timezone     string                         `json:"timezone"`
	Version      int64                          `json:"version"`
}

// NewClient constructs a client. tokens supplies the session's bearer token and may be
// nil for unauthenticated backends.
func NewClient(baseURL string, tokens oauth2.TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	if tokens != nil {
		tokens = oauth2.ReuseTokenSource(nil, tokens)
		httpClient.Transport = &oauth2.Transport{
			Source: tokens,
			Base:   http.DefaultTransport,
		}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		logger:     zerolog.Nop(),
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints. Keys are scoped to
// the backend URL and the caller's token, so sessions sharing one Redis never see each
// other's data.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit throttles outgoing requests to rps with the given burst.
func (c *Client) UseRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// UseLogger sets the request logger.
func (c *Client) UseLogger(logger *zerolog.Logger) {
	if logger == nil {
		return
	}
	c.logger = logger.With().Str("component", "tutorapi").Logger()
}

// GetTutorProfile fetches the signed-in tutor's profile with its availability and version.
func (c *Client) GetTutorProfile(ctx context.Context) (*model.TutorProfile, error) {
	var profile model.TutorProfile
	key := c.cacheKey("profile")
	if c.readCache(ctx, key, &profile) {
		return &profile, nil
	}

	if err := c.doJSON(ctx, "get_profile", http.MethodGet, "/api/v1/tutors/me", nil, &profile); err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, profile)
	return &profile, nil
}

// ReplaceAvailability stores the full availability set. A stale version fails with an
// error matching ErrConflict.
func (c *Client) ReplaceAvailability(ctx context.Context, req ReplaceAvailabilityRequest) (*model.TutorProfile, error) {
	if req.Availability == nil {
		req.Availability = []model.WeeklyAvailabilityRule{}
	}
	var profile model.TutorProfile
	err := c.doJSON(ctx, "replace_availability", http.MethodPut, "/api/v1/tutors/me/availability", req, &profile)
	// The cached profile is stale after a save and useless after a conflict.
	c.invalidate(ctx, c.cacheKey("profile"))
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListBookings returns one page of bookings.
func (c *Client) ListBookings(ctx context.Context, q BookingQuery) ([]model.Booking, error) {
	params := url.Values{}
	if q.Role != "" {
		params.Set("role", q.Role)
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(q.PageSize))
	}
	path := "/api/v1/bookings"
	if enc := params.Encode(); enc != "" {
		path += "?" + enc
	}

	cacheKey := c.cacheKey("bookings", params.Encode())
	var wrap struct {
		Bookings []model.Booking `json:"bookings"`
	}
	if c.readCache(ctx, cacheKey, &wrap) {
		return wrap.Bookings, nil
	}

	if err := c.doJSON(ctx, "list_bookings", http.MethodGet, path, nil, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap)
	return wrap.Bookings, nil
}

// ConfirmBooking accepts a pending booking.
func (c *Client) ConfirmBooking(ctx context.Context, id int64) error {
	return c.bookingAction(ctx, id, "confirm")
}

// DeclineBooking rejects a pending booking.
func (c *Client) DeclineBooking(ctx context.Context, id int64) error {
	return c.bookingAction(ctx, id, "decline")
}

func (c *Client) bookingAction(ctx context.Context, id int64, action string) error {
	path := fmt.Sprintf("/api/v1/bookings/%d/%s", id, url.PathEscape(action))
	err := c.doJSON(ctx, action+"_booking", http.MethodPost, path, nil, nil)
	if prefix := c.cacheKey("bookings"); prefix != "" {
		c.invalidatePattern(ctx, prefix+":*")
	}
	return err
}

// HealthCheck checks if the backend is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.doJSON(ctx, "health", http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(endpoint, 0, time.Since(started))
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Str("request_id", requestID).Msg("api request failed")
		return err
	}
	defer resp.Body.Close()
	metrics.ObserveAPIRequest(endpoint, resp.StatusCode, time.Since(started))

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("api request")

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(data),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// cacheKey builds a key in the namespace of this backend and token. It is empty when the
// cache is off or the token cannot be read.
func (c *Client) cacheKey(parts ...string) string {
	if c.redis == nil {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(c.baseURL))
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			c.logger.Warn().Err(err).Msg("cache disabled: token unavailable")
			return ""
		}
		h.Write([]byte{0})
		h.Write([]byte(tok.AccessToken))
	}
	key := cachePrefix + ":" + hex.EncodeToString(h.Sum(nil)[:12])
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 || key == "" {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 || key == "" {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) invalidate(ctx context.Context, key string) {
	if c.redis == nil || key == "" {
		return
	}
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
	}
}

func (c *Client) invalidatePattern(ctx context.Context, pattern string) {
	if c.redis == nil {
		return
	}
	iter := c.redis.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Str("pattern", pattern).Msg("cache scan failed")
		return
	}
	if len(keys) > 0 {
		_ = c.redis.Del(ctx, keys...).Err()
	}
}
