package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pefman/warband-tracker/internal/models"
	"github.com/pefman/warband-tracker/internal/roster"
)

const defaultTimeout = 8 * time.Second

// StatusError is a non-2xx answer from the roster API.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// Unwrap lets callers match a 404 with roster.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return roster.ErrNotFound
	}
	return nil
}

type cacheEntry struct {
	at   time.Time
	body []byte
}

// Client reads rosters from a remote roster API and reports finished battles to it.
// GET responses are cached for the TTL.
type Client struct {
	base string
	http *http.Client
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

var _ roster.Provider = (*Client)(nil)

type ClientOption func(*Client)

// WithTTL sets how long GET responses are reused. Zero disables caching.
func WithTTL(d time.Duration) ClientOption {
	return func(c *Client) { c.ttl = d }
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: defaultTimeout},
		ttl:   5 * time.Minute,
		now:   time.Now,
		cache: map[string]cacheEntry{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListWarbands lists the warbands of owner.
func (c *Client) ListWarbands(ctx context.Context, owner string) ([]models.Warband, error) {
	path := "/api/warbands"
	if owner != "" {
		path += "?owner=" + url.QueryEscape(owner)
	}
	out := []models.Warband{}
	if err := c.cachedGet(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFighters lists the fighters of one warband.
func (c *Client) ListFighters(ctx context.Context, warbandID int64) ([]models.Fighter, error) {
	out := []models.Fighter{}
	path := "/api/fighters?warbandId=" + strconv.FormatInt(warbandID, 10)
	if err := c.cachedGet(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PublicRoster fetches a shared warband by its share code. Never cached,
// since every fetch counts as a view.
func (c *Client) PublicRoster(ctx context.Context, code string) (models.Roster, error) {
	var out models.Roster
	err := c.do(ctx, http.MethodGet, "/api/public/warbands/"+url.PathEscape(code), nil, &out)
	return out, err
}

// BattleRecord is the body of a battle report.
type BattleRecord struct {
	Battle models.Battle              `json:"battle"`
	Stats  []models.BattleFighterStat `json:"stats"`
}

// RecordBattle stores a finished battle remotely and returns it with its ID.
// Cached fighter lists are dropped since their battle counters changed.
func (c *Client) RecordBattle(ctx context.Context, rec BattleRecord) (models.Battle, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return models.Battle{}, err
	}
	var out models.Battle
	if err := c.do(ctx, http.MethodPost, "/api/battles/record", body, &out); err != nil {
		return models.Battle{}, err
	}
	c.Invalidate()
	return out, nil
}

// Invalidate empties the response cache.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cache = map[string]cacheEntry{}
	c.mu.Unlock()
}

func (c *Client) cachedGet(ctx context.Context, path string, out any) error {
	if c.ttl > 0 {
		c.mu.RLock()
		e, ok := c.cache[path]
		c.mu.RUnlock()
		if ok && c.now().Sub(e.at) < c.ttl {
			return json.Unmarshal(e.body, out)
		}
	}

	body, err := c.raw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if c.ttl > 0 {
		c.mu.Lock()
		c.cache[path] = cacheEntry{at: c.now(), body: body}
		c.mu.Unlock()
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	raw, err := c.raw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &e) == nil {
			se.Message = e.Message
		}
		return nil, se
	}
	return data, nil
}
