package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ethereum/go-ethereum/common"

	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/httpserver"
	"github.com/preetidudam/EDI-Project/interfaces"
	"github.com/preetidudam/EDI-Project/session"
)

// SessionState is the session as reported by the server.
type SessionState struct {
	// Account is nil when no account is active.
	Account    *common.Address `json:"account"`
	Usable     bool            `json:"usable"`
	Generation uint64          `json:"generation"`
}

// SessionResponse is the body of the session endpoints.
type SessionResponse struct {
	Session            SessionState `json:"session"`
	ContractConfigured bool         `json:"contractConfigured"`
}

// SessionClient talks to the registry session API over HTTP.
type SessionClient struct {
	// ServerAddr is the base URL of the server
	ServerAddr string

	// HTTPClient defaults to http.DefaultClient
	HTTPClient *http.Client
}

func (c *SessionClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *SessionClient) do(ctx context.Context, method, path string, body interface{}, wantStatus int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.ServerAddr+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response from %s: %w", path, err)
	}

	if resp.StatusCode != wantStatus {
		var apiErr httpserver.ErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err != nil || apiErr.Message == "" {
			return fmt.Errorf("%s returned error %d: %s", path, resp.StatusCode, string(respBody))
		}
		return &errclass.Error{Kind: apiErr.Kind, Message: apiErr.Message}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not parse response from %s: %w", path, err)
	}
	return nil
}

// Connect asks the server to request wallet access and attach the registry.
func (c *SessionClient) Connect(ctx context.Context) (*SessionResponse, error) {
	var resp SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/session/connect", nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Disconnect clears the server's session.
func (c *SessionClient) Disconnect(ctx context.Context) (*SessionResponse, error) {
	var resp SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/session/disconnect", nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Session returns the server's current session.
func (c *SessionClient) Session(ctx context.Context) (*SessionResponse, error) {
	var resp SessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/session", nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EnsureConnected connects unless the server already has a usable session.
func (c *SessionClient) EnsureConnected(ctx context.Context) (*SessionResponse, error) {
	resp, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Session.Usable {
		return resp, nil
	}
	return c.Connect(ctx)
}

// Devices lists the active account's devices.
func (c *SessionClient) Devices(ctx context.Context) (*session.Listing, error) {
	var listing session.Listing
	if err := c.do(ctx, http.MethodGet, "/api/devices", nil, http.StatusOK, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// Device fetches one device by its hex identifier.
func (c *SessionClient) Device(ctx context.Context, id string) (*interfaces.Device, error) {
	var device interfaces.Device
	if err := c.do(ctx, http.MethodGet, "/api/devices/"+url.PathEscape(id), nil, http.StatusOK, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// Register registers name under the active account and waits for confirmation.
func (c *SessionClient) Register(ctx context.Context, name string) (*session.Registration, error) {
	var reg session.Registration
	req := httpserver.RegisterRequest{Name: name}
	if err := c.do(ctx, http.MethodPost, "/api/devices", req, http.StatusCreated, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Derive previews a device id. An empty owner uses the active account.
func (c *SessionClient) Derive(ctx context.Context, owner, name string) (*httpserver.DeriveResponse, error) {
	query := url.Values{"name": {name}}
	if owner != "" {
		query.Set("owner", owner)
	}

	var resp httpserver.DeriveResponse
	if err := c.do(ctx, http.MethodGet, "/api/derive?"+query.Encode(), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
