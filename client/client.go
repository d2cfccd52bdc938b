package client

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
	"time"

	"github.com/Kotlang/fasalneetiGo/models"
	"github.com/Kotlang/fasalneetiGo/service"
)

const DefaultTimeout = 15 * time.Second

// Client talks to the farmer API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New accepts either the server root or its /api prefix as baseURL.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	base = strings.TrimSuffix(base, "/api")
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.token = token
}

type registerResponse struct {
	FarmerId string `json:"farmerId"`
}

type countResponse struct {
	Updated int64 `json:"updated"`
	Deleted int64 `json:"deleted"`
}

func (c *Client) Register(ctx context.Context, req *service.FarmerRequest) (string, error) {
	res := &registerResponse{}
	if _, err := c.do(ctx, http.MethodPost, "/api/farmers/register", req, res); err != nil {
		return "", err
	}
	return res.FarmerId, nil
}

// Login keeps the issued token for later calls.
func (c *Client) Login(ctx context.Context, req *service.LoginRequest) (*service.AuthResponse, error) {
	res := &service.AuthResponse{}
	if _, err := c.do(ctx, http.MethodPost, "/api/farmers/login", req, res); err != nil {
		return nil, err
	}
	c.token = res.Jwt
	return res, nil
}

func (c *Client) AdminLogin(ctx context.Context, req *service.AdminLoginRequest) (*service.AuthResponse, error) {
	res := &service.AuthResponse{}
	if _, err := c.do(ctx, http.MethodPost, "/api/admin/login", req, res); err != nil {
		return nil, err
	}
	c.token = res.Jwt
	return res, nil
}

func (c *Client) GetProfile(ctx context.Context, farmerId string) (*service.FarmerProfile, error) {
	res := &service.FarmerProfile{}
	if _, err := c.do(ctx, http.MethodGet, farmerPath(farmerId), nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) UpdateProfile(ctx context.Context, farmerId string, patch *service.FarmerPatch) (int64, error) {
	res := &countResponse{}
	if _, err := c.do(ctx, http.MethodPut, farmerPath(farmerId), patch, res); err != nil {
		return 0, err
	}
	return res.Updated, nil
}

func (c *Client) AppendCrop(ctx context.Context, farmerId string, entry models.CropEntry) (int64, error) {
	res := &countResponse{}
	if _, err := c.do(ctx, http.MethodPost, farmerPath(farmerId)+"/crops", entry, res); err != nil {
		return 0, err
	}
	return res.Updated, nil
}

func (c *Client) GetDashboard(ctx context.Context, farmerId string) (*service.Dashboard, error) {
	res := &service.Dashboard{}
	if _, err := c.do(ctx, http.MethodGet, farmerPath(farmerId)+"/dashboard", nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListFarmers needs an admin token. A zero pageSize lists everything; Total is -1 when the
// server did not report a count.
func (c *Client) ListFarmers(ctx context.Context, pageNumber, pageSize int64) (*service.FarmerPage, error) {
	query := url.Values{}
	if pageSize > 0 {
		query.Set("page", strconv.FormatInt(pageNumber, 10))
		query.Set("size", strconv.FormatInt(pageSize, 10))
	}
	path := "/api/admin/farmers"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	farmers := []*service.FarmerProfile{}
	header, err := c.do(ctx, http.MethodGet, path, nil, &farmers)
	if err != nil {
		return nil, err
	}

	page := &service.FarmerPage{Farmers: farmers, Total: -1}
	if total, err := strconv.ParseInt(header.Get("X-Total-Count"), 10, 64); err == nil {
		page.Total = total
	}
	return page, nil
}

func (c *Client) DeleteFarmer(ctx context.Context, farmerId string) (int64, error) {
	res := &countResponse{}
	if _, err := c.do(ctx, http.MethodDelete, "/api/admin"+farmerPath(farmerId), nil, res); err != nil {
		return 0, err
	}
	return res.Deleted, nil
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/health", nil, nil)
	return err
}

func farmerPath(farmerId string) string {
	return "/api/farmers/" + url.PathEscape(farmerId)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{}
		// a proxy may answer with a non-json body; the status alone still classifies it.
		_ = json.Unmarshal(raw, apiErr)
		apiErr.Status = res.StatusCode
		return nil, apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decoding %s %s: %w", method, path, err)
		}
	}
	return res.Header, nil
}
