// README: HTTP client for the admin API used by the operator console.
package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vdrop/internal/modules/pickup"
	"vdrop/internal/modules/profile"
	"vdrop/internal/types"
)

// APIError is a non-2xx response decoded from the API error envelope.
type APIError struct {
	Status      int
	Message     string
	FieldErrors map[string]string
	Retryable   bool
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.FieldErrors) == 0 {
		return fmt.Sprintf("api: %d %s", e.Status, msg)
	}
	parts := make([]string, 0, len(e.FieldErrors))
	for field, m := range e.FieldErrors {
		parts = append(parts, field+": "+m)
	}
	return fmt.Sprintf("api: %d %s (%s)", e.Status, msg, strings.Join(parts, "; "))
}

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListPickups(ctx context.Context, status, q string) ([]pickup.Pickup, error) {
	var out struct {
		Pickups []pickup.Pickup `json:"pickups"`
	}
	path := "/api/admin/pickups" + query("status", status, "q", q)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Pickups, nil
}

func (c *Client) Transition(ctx context.Context, id types.ID, status string) (*pickup.Pickup, error) {
	var out pickup.Pickup
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, "/api/admin/pickups/"+url.PathEscape(id.String())+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context, role, q string) ([]profile.Profile, error) {
	var out struct {
		Users []profile.Profile `json:"users"`
	}
	path := "/api/admin/users" + query("role", role, "q", q)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) SetRole(ctx context.Context, id types.ID, role string) (*profile.Profile, error) {
	var out profile.Profile
	body := map[string]string{"role": role}
	if err := c.do(ctx, http.MethodPatch, "/api/admin/users/"+url.PathEscape(id.String()), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Deactivate(ctx context.Context, id types.ID) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(id.String()), nil, nil)
}

func (c *Client) Invite(ctx context.Context, cmd profile.InviteCommand) (*profile.Profile, error) {
	var out profile.Profile
	if err := c.do(ctx, http.MethodPost, "/api/admin/users/invite", cmd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env struct {
			Error       string            `json:"error"`
			FieldErrors map[string]string `json:"field_errors"`
			Retryable   bool              `json:"retryable"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil {
			apiErr.Message = env.Error
			apiErr.FieldErrors = env.FieldErrors
			apiErr.Retryable = env.Retryable
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// query builds "?k=v&..." from key/value pairs, skipping empty values.
func query(kv ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			v.Set(kv[i], kv[i+1])
		}
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
