// Package backend is the HTTP client for the staffing platform. It owns the
// engine's outer boundary: bearer auth, response-shape normalization, and the
// error taxonomy every upstream failure is classified into.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"guardshift-agent/config"
	"guardshift-agent/internal/model"
	"guardshift-agent/internal/session"
)

// Client talks to the staffing platform on behalf of one worker session.
type Client struct {
	cfg     *config.PlatformConfig
	sess    *session.Session
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a platform client. Outbound calls share a rate limiter so
// background sync and user actions together cannot hammer the platform.
func NewClient(cfg *config.PlatformConfig, sess *session.Session) *Client {
	burst := int(cfg.RequestsPerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		cfg:  cfg,
		sess: sess,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst),
	}
}

// FetchShifts retrieves the open shift board.
func (c *Client) FetchShifts(ctx context.Context) ([]model.Shift, error) {
	data, err := c.do(ctx, http.MethodGet, "/shifts", nil)
	if err != nil {
		return nil, err
	}
	shifts, err := decodeShiftList(data)
	if err != nil {
		return nil, fmt.Errorf("shift list: %w", err)
	}
	return shifts, nil
}

// FetchMyShifts retrieves the worker's own applied/assigned shifts.
func (c *Client) FetchMyShifts(ctx context.Context) ([]model.Shift, error) {
	data, err := c.do(ctx, http.MethodGet, "/shifts/myshifts", nil)
	if err != nil {
		return nil, err
	}
	shifts, err := decodeShiftList(data)
	if err != nil {
		return nil, fmt.Errorf("my shift list: %w", err)
	}
	return shifts, nil
}

// FetchAvailability retrieves the worker's declared availability. A worker
// who never configured availability yields (nil, nil).
func (c *Client) FetchAvailability(ctx context.Context, userID string) (*model.Availability, error) {
	data, err := c.do(ctx, http.MethodGet, "/availability/"+userID, nil)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeAvailability(data)
}

// SaveAvailability replaces the worker's availability wholesale.
func (c *Client) SaveAvailability(ctx context.Context, userID string, av *model.Availability) error {
	_, err := c.do(ctx, http.MethodPut, "/availability/"+userID, av)
	return err
}

// Apply submits an application for an open shift. The returned shift, when
// present, carries the platform's confirmed status.
func (c *Client) Apply(ctx context.Context, shiftID string) (*model.Shift, error) {
	data, err := c.do(ctx, http.MethodPut, "/shifts/"+shiftID+"/apply", nil)
	if err != nil {
		return nil, err
	}
	var resp actionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("apply response: %w", err)
	}
	return resp.Shift, nil
}

type checkRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CheckIn submits a check-in with the given fix. The attendance record and
// shift in the response are the platform's confirmed state.
func (c *Client) CheckIn(ctx context.Context, shiftID string, fix *model.LocationFix) (*model.AttendanceRecord, *model.Shift, error) {
	return c.check(ctx, "/attendance/checkin/", shiftID, fix)
}

// CheckOut submits a check-out with the given fix.
func (c *Client) CheckOut(ctx context.Context, shiftID string, fix *model.LocationFix) (*model.AttendanceRecord, *model.Shift, error) {
	return c.check(ctx, "/attendance/checkout/", shiftID, fix)
}

func (c *Client) check(ctx context.Context, prefix, shiftID string, fix *model.LocationFix) (*model.AttendanceRecord, *model.Shift, error) {
	data, err := c.do(ctx, http.MethodPost, prefix+shiftID, checkRequest{
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
	})
	if err != nil {
		return nil, nil, err
	}
	var resp actionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, nil, fmt.Errorf("attendance response: %w", err)
	}
	return resp.Attendance, resp.Shift, nil
}

// do performs one authenticated request and returns the raw success body.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	tok, err := c.sess.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrTransient, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, c.classify(resp.StatusCode, data)
}

// classify turns a non-2xx response into a taxonomy error. Discrimination is
// by status and the machine-readable code field, never by message text.
func (c *Client) classify(status int, body []byte) error {
	var e apiError
	_ = json.Unmarshal(body, &e)
	msg := e.Message
	if msg == "" {
		msg = e.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		c.sess.Invalidate("platform returned 401")
		return ErrUnauthorized
	case e.Code == codeLocationMismatch || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrLocationMismatch, msg)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case status >= 400 && status < 500:
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	default:
		return fmt.Errorf("%w: platform returned status %d", ErrTransient, status)
	}
}
