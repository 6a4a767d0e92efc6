// Package remote is the HTTP client of the comments service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/gofrs/uuid"
	"github.com/gregjones/httpcache"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"

	"videocomments/pkg/models"
)

const RequestIDHeader = "X-Request-Id"

type Client struct {
	baseURL *url.URL
	client  *http.Client
}

// New returns a client for the service at conf.BaseURL. Session cookies from
// conf are stored in the client's jar and sent with every request.
func New(conf Config) (*Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	baseURL, _ := url.Parse(conf.BaseURL)

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	jar.SetCookies(baseURL, conf.cookies())

	client := &http.Client{
		Timeout: conf.timeout(),
		Jar:     jar,
	}
	if conf.Cache {
		client.Transport = httpcache.NewMemoryCacheTransport()
	}

	return &Client{baseURL: baseURL, client: client}, nil
}

// Comments fetches the comments of a video in the order the service returns them.
func (c *Client) Comments(ctx context.Context, videoID string) ([]models.Comment, error) {
	target := c.baseURL.JoinPath("api", "comments", url.PathEscape(videoID))

	var comments []models.Comment
	status, err := c.do(ctx, http.MethodGet, target.String(), nil, &comments)
	if err != nil {
		return nil, err
	}
	for i, cm := range comments {
		if cm.ID == "" {
			return nil, &ServerError{
				Method:     http.MethodGet,
				URL:        target.String(),
				StatusCode: status,
				Err:        fmt.Errorf("comment %d: %w", i, ErrMissingID),
			}
		}
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	return comments, nil
}

// CreateComment posts a new comment and returns the record the service stored.
func (c *Client) CreateComment(ctx context.Context, comment models.NewComment) (models.Comment, error) {
	target := c.baseURL.JoinPath("api", "comments")

	b, err := json.Marshal(comment)
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to marshal comment: %w", err)
	}

	var created models.Comment
	status, err := c.do(ctx, http.MethodPost, target.String(), b, &created)
	if err != nil {
		return models.Comment{}, err
	}
	if created.ID == "" {
		return models.Comment{}, &ServerError{
			Method:     http.MethodPost,
			URL:        target.String(),
			StatusCode: status,
			Err:        ErrMissingID,
		}
	}

	return created, nil
}

// do sends the request and decodes a 2xx body into result. It returns the
// response status code.
func (c *Client) do(ctx context.Context, method, target string, body []byte, result any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, fmt.Errorf("error creating request %s %s: %w", method, target, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	reqID, err := uuid.NewV4()
	if err != nil {
		return 0, fmt.Errorf("failed to generate request ID: %w", err)
	}
	req.Header.Set(RequestIDHeader, reqID.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, &NetworkError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	log.Debugf("[remote][%s] %s %s returned %d", shorten(reqID.String()), method, target, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, &ServerError{Method: method, URL: target, StatusCode: resp.StatusCode}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &NetworkError{Method: method, URL: target, Err: err}
	}

	if err := json.Unmarshal(b, result); err != nil {
		return resp.StatusCode, &ServerError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("error decoding response: %w", err),
		}
	}

	return resp.StatusCode, nil
}

// shorten truncates a string to 6 characters if it is longer than 6, appends '...' at the end,
// otherwise it returns the string unchanged.
func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
