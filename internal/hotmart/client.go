// Package hotmart is the thin HTTP collaborator for the payments
// platform's sales API. It implements syncer.SalesFetcher; everything
// else about the sync lives in the syncer package.
package hotmart

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vitrine-labs/crmsync/internal/syncer"
)

const (
	defaultBaseURL = "https://developers.hotmart.com/payments/api/v1"
	defaultAuthURL = "https://api-sec-vlc.hotmart.com/security/oauth/token"
)

// Client calls the sales history API with client-credentials OAuth.
// Safe for sequential use from one sync run; the access token is cached
// until a request fails authorization.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	authURL      string
	httpClient   *http.Client

	accessToken string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (tests point it at a local server).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithAuthURL overrides the OAuth token URL.
func WithAuthURL(u string) ClientOption {
	return func(c *Client) { c.authURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client. Both credentials are required.
func NewClient(clientID, clientSecret string, opts ...ClientOption) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("hotmart client id and secret must be provided")
	}

	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
		authURL:      defaultAuthURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchSales implements syncer.SalesFetcher against GET /sales/history.
func (c *Client) FetchSales(ctx context.Context, req syncer.FetchRequest) (syncer.FetchPage, error) {
	params := url.Values{}
	params.Set("start_date", strconv.FormatInt(req.StartMS, 10))
	params.Set("end_date", strconv.FormatInt(req.EndMS, 10))
	if req.PageToken != "" {
		params.Set("page_token", req.PageToken)
	}

	var resp salesHistoryResponse
	if err := c.get(ctx, "/sales/history", params, &resp); err != nil {
		return syncer.FetchPage{}, err
	}

	return syncer.FetchPage{
		Items:         resp.Items,
		NextPageToken: resp.PageInfo.NextPageToken,
	}, nil
}

type salesHistoryResponse struct {
	Items    []syncer.SaleItem `json:"items"`
	PageInfo struct {
		NextPageToken string `json:"next_page_token"`
	} `json:"page_info"`
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	token, err := c.token(ctx, false)
	if err != nil {
		return err
	}

	u := c.baseURL + endpoint + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token expired: refresh once and retry.
		if token, err = c.token(ctx, true); err != nil {
			return err
		}
		return c.getWithToken(ctx, u, endpoint, token, out)
	}
	return decodeResponse(resp, endpoint, out)
}

func (c *Client) getWithToken(ctx context.Context, u, endpoint, token string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, endpoint, out)
}

func decodeResponse(resp *http.Response, endpoint string, out any) error {
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", endpoint, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// token returns the cached access token, fetching a fresh one when absent
// or when forceRefresh is set.
func (c *Client) token(ctx context.Context, forceRefresh bool) (string, error) {
	if c.accessToken != "" && !forceRefresh {
		return c.accessToken, nil
	}

	u := c.authURL + "?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	creds := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+creds)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("fetch access token: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access_token")
	}

	c.accessToken = payload.AccessToken
	return c.accessToken, nil
}
