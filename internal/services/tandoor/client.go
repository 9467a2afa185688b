package tandoor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"yt2tandoor/internal/recipe"
)

const (
	defaultTimeout  = 30 * time.Second
	searchTimeout   = 10 * time.Second
	detailByteLimit = 300
)

// SearchResult is a single entry from the Tandoor recipe search endpoint.
type SearchResult struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Created captures the response to a successful recipe creation.
type Created struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"-"`
}

// Service defines the Tandoor operations used by the publish stage.
type Service interface {
	FindDuplicate(ctx context.Context, name string) (int64, error)
	CreateRecipe(ctx context.Context, record recipe.Record) (*Created, error)
	UploadImage(ctx context.Context, recipeID int64, imagePath string) error
	HealthCheck(ctx context.Context) error
	ViewURL(recipeID int64) string
}

// APIError reports a non-success response from the Tandoor API. Detail is the
// response body, capped so validation errors stay readable in logs.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tandoor api error (http %d): %s", e.StatusCode, e.Detail)
}

// Client talks to a Tandoor instance using bearer-token auth.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Tandoor client.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tandoor base url required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("tandoor api token required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ViewURL returns the human-facing page for a recipe.
func (c *Client) ViewURL(recipeID int64) string {
	return fmt.Sprintf("%s/view/recipe/%d", c.baseURL, recipeID)
}

// FindDuplicate searches Tandoor for a recipe whose name matches the supplied
// one, ignoring case and surrounding whitespace. It returns the matching
// recipe ID, or 0 when no recipe matches. A non-nil error means the lookup
// itself failed; callers treating the check as advisory may proceed as if no
// duplicate exists.
func (c *Client) FindDuplicate(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("recipe name must not be empty")
	}
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	endpoint, err := url.Parse(c.baseURL + "/api/recipe/")
	if err != nil {
		return 0, fmt.Errorf("parse tandoor url: %w", err)
	}
	params := url.Values{}
	params.Set("query", name)
	params.Set("page_size", "5")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return 0, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("tandoor search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode tandoor response: %w", err)
	}
	wanted := strings.ToLower(name)
	for _, result := range payload.Results {
		if strings.ToLower(strings.TrimSpace(result.Name)) == wanted {
			return result.ID, nil
		}
	}
	return 0, nil
}

// CreateRecipe posts a converted recipe record. Non-2xx responses surface as
// *APIError carrying the response detail.
func (c *Client) CreateRecipe(ctx context.Context, record recipe.Record) (*Created, error) {
	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/recipe/", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response (latency=%v): %w", latency, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: responseDetail(body)}
	}

	var created Created
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("decode created recipe: %w", err)
	}
	if created.ID <= 0 {
		return nil, errors.New("tandoor response missing recipe id")
	}
	created.URL = c.ViewURL(created.ID)
	return &created, nil
}

// UploadImage attaches a thumbnail to an existing recipe. The image is sent
// as a multipart PUT with a fixed thumbnail.jpg part; Tandoor re-encodes it
// server side.
func (c *Client) UploadImage(ctx context.Context, recipeID int64, imagePath string) error {
	if recipeID <= 0 {
		return errors.New("recipe id must be positive")
	}
	file, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="thumbnail.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create image part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize image form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/recipe/%d/image/", c.baseURL, recipeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("tandoor image upload returned %d (latency=%v)", resp.StatusCode, latency)
	}
	return nil
}

// HealthCheck verifies the base URL and token by requesting a single recipe
// page.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	endpoint, err := url.Parse(c.baseURL + "/api/recipe/")
	if err != nil {
		return fmt.Errorf("parse tandoor url: %w", err)
	}
	params := url.Values{}
	params.Set("page_size", "1")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tandoor health returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func responseDetail(body []byte) string {
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return "<empty body>"
	}
	if len(detail) > detailByteLimit {
		detail = detail[:detailByteLimit]
	}
	return detail
}
