package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"relight/pkg/api"
)

// ErrForbidden is returned when the server rejects a protected call, which
// means the stored identity token is missing, invalid or expired.
var ErrForbidden = errors.New("forbidden: not logged in or session expired")

// Client is the HTTP client for the relight server
type Client struct {
	httpClient *http.Client
	baseURL    string
	identity   string
}

// NewClient creates an API client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Transformations may take seconds on large inputs
			Timeout: 2 * time.Minute,
		},
	}
}

// SetIdentity installs a previously stored identity token.
func (c *Client) SetIdentity(identity string) {
	c.identity = identity
}

// Identity returns the current identity token, empty when not logged in.
func (c *Client) Identity() string {
	return c.identity
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, login, password string) (*api.StatusResponse, error) {
	req := api.CredentialsRequest{Login: login, Password: password}

	var resp api.StatusResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/register", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}

	return &resp, nil
}

// Login authenticates and captures the identity cookie on success.
func (c *Client) Login(ctx context.Context, login, password string) (*api.StatusResponse, error) {
	req := api.CredentialsRequest{Login: login, Password: password}

	var resp api.StatusResponse
	httpResp, err := c.doJSON(ctx, http.MethodPost, "/api/login", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	if resp.Success {
		for _, cookie := range httpResp.Cookies() {
			if cookie.Name == api.IdentityCookie {
				c.identity = cookie.Value
			}
		}
		if c.identity == "" {
			return nil, fmt.Errorf("server did not set identity cookie")
		}
	}

	return &resp, nil
}

// Logout deletes the server-side session and drops the identity token.
func (c *Client) Logout(ctx context.Context) error {
	var resp api.StatusResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/logout", nil, &resp); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}

	c.identity = ""
	return nil
}

// Me fetches the authenticated profile
func (c *Client) Me(ctx context.Context) (*api.MeResponse, error) {
	var resp api.MeResponse
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}

	return &resp, nil
}

// Process uploads image bytes and returns the enhanced PNG.
func (c *Client) Process(ctx context.Context, input []byte) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("input", "input.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create form field: %w", err)
	}
	if _, err := part.Write(input); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/run", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.addIdentity(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("process request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrForbidden
	case resp.StatusCode != http.StatusOK:
		return nil, decodeError(resp)
	}

	output, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return output, nil
}

// doJSON performs a JSON round-trip and decodes the response into result.
func (c *Client) doJSON(ctx context.Context, method, path string, body, result interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addIdentity(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return resp, ErrForbidden
	}
	if resp.StatusCode >= 500 {
		return resp, decodeError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}

func (c *Client) addIdentity(req *http.Request) {
	if c.identity != "" {
		req.AddCookie(&http.Cookie{Name: api.IdentityCookie, Value: c.identity})
	}
}

func decodeError(resp *http.Response) error {
	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Message)
	}
	return fmt.Errorf("server error: status %d", resp.StatusCode)
}
