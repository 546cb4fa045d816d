// Package client is the Go client for the Demiochat+ backend: sessions,
// messages, the insert feed and file hosting behind one explicitly
// constructed object.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// Token exposes the current session token, empty when signed out.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) SignUp(ctx context.Context, params model.CreateUserParams) (*model.Principal, error) {
	out := struct {
		Token     string           `json:"token"`
		Principal *model.Principal `json:"principal"`
	}{}
	if err := c.do(ctx, http.MethodPost, "/auth/register", params, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return out.Principal, nil
}

func (c *Client) SignIn(ctx context.Context, email string, password string) (*model.Principal, error) {
	in := map[string]string{"email": email, "password": password}
	out := struct {
		Token     string           `json:"token"`
		Principal *model.Principal `json:"principal"`
	}{}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return out.Principal, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.token = ""
	return err
}

func (c *Client) CurrentPrincipal(ctx context.Context) (*model.Principal, error) {
	principal := &model.Principal{}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, principal); err != nil {
		return nil, err
	}
	return principal, nil
}

func (c *Client) DeactivateAccount(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, "/auth/me", nil, nil)
	if err == nil {
		c.token = ""
	}
	return err
}

func (c *Client) FetchAllMessages(ctx context.Context) ([]model.Message, error) {
	messages := []model.Message{}
	if err := c.do(ctx, http.MethodGet, "/messages", nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) InsertMessage(ctx context.Context, message model.Message) error {
	return c.do(ctx, http.MethodPost, "/messages", message, nil)
}

func (c *Client) DeleteMessage(ctx context.Context, id model.MessageID) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+url.PathEscape(string(id)), nil, nil)
}

func (c *Client) UploadFile(ctx context.Context, path string, data io.Reader) error {
	target := c.baseURL + "/files?path=" + url.QueryEscape(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, data)
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("uploading file: %w", err)
	}
	defer res.Body.Close()
	return responseError(res)
}

func (c *Client) CreateSignedLink(ctx context.Context, path string, ttlSeconds int) (string, error) {
	in := struct {
		Path       string `json:"path"`
		TTLSeconds int    `json:"ttl_seconds"`
	}{path, ttlSeconds}
	out := struct {
		URL string `json:"url"`
	}{}
	if err := c.do(ctx, http.MethodPost, "/files/sign", in, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) do(ctx context.Context, method string, path string, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if err := responseError(res); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func responseError(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	payload := struct {
		Message string `json:"message"`
	}{}
	raw, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Message == "" {
		payload.Message = strings.TrimSpace(string(raw))
	}
	return &APIError{Status: res.StatusCode, Message: payload.Message}
}

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return e.Message
}
