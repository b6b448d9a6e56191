package inaturalist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inatscraper/pkg/config"
	errs "inatscraper/pkg/errors"
	"inatscraper/pkg/logger"
)

// DefaultUserAgent identifies the scraper to iNaturalist
const DefaultUserAgent = "iNaturalistImageScraper/1.0"

// Client talks to the iNaturalist API and its photo hosts
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a client for the API described by cfg
func NewClient(cfg config.INaturalistConfig, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		baseURL: baseURL,
		logger:  log,
	}
	c.SetToken(cfg.APIToken)
	return c
}

// SetToken sets or clears the API token sent in the Authorization header
func (c *Client) SetToken(token string) {
	if token == "" {
		delete(c.headers, "Authorization")
		return
	}
	c.headers["Authorization"] = token
}

// do sends req with the client headers. Transport failures become network
// errors unless ctx was cancelled, and non-2xx statuses become typed errors.
func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, 0, "failed to create request", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errs.Wrap(errs.ErrorTypeCancelled, 0, "request cancelled", ctxErr)
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":      method,
			"url":         url,
			"error":       err.Error(),
			"duration_ms": elapsed.Milliseconds(),
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, 0, "network error", err)
	}

	logger.LogRequest(c.logger, method, url, resp.StatusCode, elapsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, errs.FromStatus(resp.StatusCode)
	}
	return resp, nil
}

// FetchObservations requests one page of observations
func (c *Client) FetchObservations(ctx context.Context, q Query) (*ObservationsResponse, error) {
	url := ObservationsURL(c.baseURL, q)

	c.logger.DebugWithFields("fetching observations", map[string]interface{}{
		"taxon_id":   q.TaxonID,
		"taxon_name": q.TaxonName,
		"page":       q.Page,
		"url":        url,
	})

	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errs.Wrap(errs.ErrorTypeCancelled, resp.StatusCode, "request cancelled", ctxErr)
		}
		return nil, errs.Wrap(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body", err)
	}

	var page ObservationsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse observations response", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, errs.Wrap(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON", err)
	}

	return &page, nil
}

// FetchPage is FetchObservations with its error classified for the retry loop
func (c *Client) FetchPage(ctx context.Context, q Query) (*ObservationsResponse, errs.Outcome) {
	page, err := c.FetchObservations(ctx, q)
	return page, errs.Classify(err)
}

// CurrentUser returns the account the API token belongs to. It fails with
// a client error when no token is set or the token has expired.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	url := strings.TrimRight(c.baseURL, "/") + CurrentUserEndpoint

	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var users usersResponse
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse user response", err)
	}
	if len(users.Results) == 0 {
		return nil, errs.New(errs.ErrorTypeParsing, resp.StatusCode, "user response has no results")
	}
	return &users.Results[0], nil
}

// Open starts downloading the resource at url. The caller must close the
// returned body. contentLength is -1 when unknown.
func (c *Client) Open(ctx context.Context, url string) (body io.ReadCloser, contentLength int64, err error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, 0, fmt.Errorf("download %s: %w", url, err)
	}
	return resp.Body, resp.ContentLength, nil
}
