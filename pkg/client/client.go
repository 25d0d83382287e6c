// Package client is a Go client for the asset gateway HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// AssetInfo is the metadata the gateway reports for a stored asset.
type AssetInfo struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

// StatusError is returned when the gateway answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("asset gateway: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("asset gateway: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the gateway.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client talks to a single gateway.
type Client struct {
	BaseURL string
	// Token is sent as a bearer token on uploads.
	Token      string
	HTTPClient *http.Client
}

// New returns a Client for the gateway at baseURL.
func New(baseURL string, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Token:      token,
		HTTPClient: http.DefaultClient,
	}
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		var payload struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Put uploads r as an asset called name and returns the path it can be
// fetched from.
func (c *Client) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		fw, err := mw.CreateFormFile("asset", name)
		if err == nil {
			_, err = io.Copy(fw, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.BaseURL+"/assets/", pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.do(req)
	if err != nil {
		pr.Close()
		return "", err
	}
	defer resp.Body.Close()

	location, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(location), nil
}

// Get downloads the named asset into w and returns the number of bytes
// written.
func (c *Client) Get(ctx context.Context, name string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/assets/"+url.PathEscape(name), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return io.Copy(w, resp.Body)
}

// List returns every asset name in the bucket.
func (c *Client) List(ctx context.Context) ([]string, error) {
	var out struct {
		Assets     []string `json:"assets"`
		TotalCount int      `json:"total_count"`
	}
	if err := c.getJSON(ctx, "/assets/", &out); err != nil {
		return nil, err
	}
	return out.Assets, nil
}

// Info returns the metadata of a single asset.
func (c *Client) Info(ctx context.Context, name string) (AssetInfo, error) {
	var info AssetInfo
	err := c.getJSON(ctx, "/assets/"+url.PathEscape(name)+"/info", &info)
	return info, err
}

// BatchInfo returns metadata for the assets in names that exist. Missing
// assets are left out of the result.
func (c *Client) BatchInfo(ctx context.Context, names []string) ([]AssetInfo, error) {
	body, err := json.Marshal(map[string][]string{"asset_names": names})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/assets/batch/info", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Assets []AssetInfo `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Assets, nil
}
