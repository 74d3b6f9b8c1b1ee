// Package client is a typed HTTP client for the persona classifier API,
// used by the marketing console and by operational tooling.
package client

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

	"github.com/leadpilot/backend/internal/classifier"
	"github.com/leadpilot/backend/internal/models"
)

// APIError is the decoded error envelope returned by the backend.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// DuplicateError is returned when a keyword already exists under the
// same persona and the server refuses to create it again.
type DuplicateError struct {
	Keyword string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("keyword %q already exists", e.Keyword)
}

// ValidationError is raised client-side before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Client struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

func New(baseURL, adminKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AdminKey:   adminKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AdminKey != "" {
		req.Header.Set("X-Admin-Key", c.AdminKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var env errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
		}
		env.Error.Status = resp.StatusCode
		return &env.Error
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Diagnose runs a job title through the server-side classifier and
// returns the full match trace.
func (c *Client) Diagnose(ctx context.Context, jobTitle string) (models.Diagnosis, error) {
	if strings.TrimSpace(jobTitle) == "" {
		return models.Diagnosis{}, &ValidationError{Field: "job_title", Reason: "must not be empty"}
	}
	var resp struct {
		Diagnosis models.Diagnosis `json:"diagnosis"`
	}
	err := c.do(ctx, http.MethodPost, "/persona-classifier/diagnose", map[string]string{"job_title": jobTitle}, &resp)
	return resp.Diagnosis, err
}

func (c *Client) ListKeywords(ctx context.Context) ([]models.Keyword, error) {
	var resp struct {
		Keywords []models.Keyword `json:"keywords"`
	}
	err := c.do(ctx, http.MethodGet, "/job-keywords/", nil, &resp)
	return resp.Keywords, err
}

// AddKeyword registers a keyword under a persona. A 409 from the server
// is surfaced as *DuplicateError so callers can prompt instead of fail.
func (c *Client) AddKeyword(ctx context.Context, keyword, personaID string) (models.Keyword, error) {
	normalized := classifier.Normalize(keyword)
	if normalized == "" {
		return models.Keyword{}, &ValidationError{Field: "keyword", Reason: "must not be empty after normalization"}
	}
	if personaID == "" {
		return models.Keyword{}, &ValidationError{Field: "buyer_persona_id", Reason: "must not be empty"}
	}
	var kw models.Keyword
	err := c.do(ctx, http.MethodPost, "/job-keywords/", map[string]string{
		"keyword":          normalized,
		"buyer_persona_id": personaID,
	}, &kw)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		return models.Keyword{}, &DuplicateError{Keyword: normalized}
	}
	return kw, err
}

// BulkResult summarizes a bulk keyword submission.
type BulkResult struct {
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
	Replaced int `json:"replaced"`
}

func (c *Client) BulkAddKeywords(ctx context.Context, raw, personaID string) (BulkResult, error) {
	if personaID == "" {
		return BulkResult{}, &ValidationError{Field: "buyer_persona_id", Reason: "must not be empty"}
	}
	var res BulkResult
	err := c.do(ctx, http.MethodPost, "/job-keywords/bulk", map[string]string{
		"keywords":         raw,
		"buyer_persona_id": personaID,
	}, &res)
	return res, err
}

func (c *Client) DeleteKeyword(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/job-keywords/"+url.PathEscape(id), nil, nil)
}

func (c *Client) GetPriorities(ctx context.Context) ([]models.Persona, error) {
	var resp struct {
		Personas []models.Persona `json:"personas"`
	}
	err := c.do(ctx, http.MethodGet, "/job-keywords/priorities", nil, &resp)
	return resp.Personas, err
}

func (c *Client) SavePriorities(ctx context.Context, assignments []classifier.PriorityAssignment) error {
	return c.do(ctx, http.MethodPut, "/job-keywords/priorities", assignments, nil)
}

func (c *Client) CreateJob(ctx context.Context, jobType string, dryRun bool) (models.ReclassificationJob, error) {
	var job models.ReclassificationJob
	err := c.do(ctx, http.MethodPost, "/persona-classifier/reclassify/"+url.PathEscape(jobType),
		map[string]bool{"dry_run": dryRun}, &job)
	return job, err
}

func (c *Client) GetJob(ctx context.Context, id string) (models.ReclassificationJob, error) {
	var job models.ReclassificationJob
	err := c.do(ctx, http.MethodGet, "/persona-classifier/jobs/"+url.PathEscape(id), nil, &job)
	return job, err
}

func (c *Client) ListJobs(ctx context.Context, limit int) ([]models.ReclassificationJob, error) {
	var resp struct {
		Jobs []models.ReclassificationJob `json:"jobs"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/persona-classifier/jobs?limit=%d", limit), nil, &resp)
	return resp.Jobs, err
}

func (c *Client) CancelJob(ctx context.Context, id string) (models.ReclassificationJob, error) {
	var job models.ReclassificationJob
	err := c.do(ctx, http.MethodPost, "/persona-classifier/jobs/"+url.PathEscape(id)+"/cancel", nil, &job)
	return job, err
}

// Estimate reports how many contacts a job of the given type would
// touch, without creating a job.
type Estimate struct {
	EstimatedContacts int              `json:"estimated_contacts"`
	SampleContacts    []models.Contact `json:"sample_contacts"`
}

func (c *Client) EstimateImpact(ctx context.Context, jobType string) (Estimate, error) {
	var est Estimate
	err := c.do(ctx, http.MethodPost, "/persona-classifier/reclassify/estimate?job_type="+url.QueryEscape(jobType), nil, &est)
	return est, err
}

func (c *Client) SearchContacts(ctx context.Context, query string, limit int) ([]models.Contact, error) {
	var resp struct {
		Contacts []models.Contact `json:"contacts"`
	}
	path := fmt.Sprintf("/contacts?q=%s&limit=%d", url.QueryEscape(query), limit)
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp.Contacts, err
}

func (c *Client) GetContact(ctx context.Context, id string) (models.Contact, error) {
	var contact models.Contact
	err := c.do(ctx, http.MethodGet, "/contacts/"+url.PathEscape(id), nil, &contact)
	return contact, err
}

func (c *Client) SetContactLock(ctx context.Context, id string, locked bool) error {
	return c.do(ctx, http.MethodPut, "/contacts/"+url.PathEscape(id)+"/lock", map[string]bool{"locked": locked}, nil)
}

// ScopedResult mirrors the server response for keyword- and
// persona-scoped synchronous reclassification.
type ScopedResult struct {
	Matched int `json:"matched"`
	Updated int `json:"updated"`
}

func (c *Client) ReclassifyKeyword(ctx context.Context, keywordID string) (ScopedResult, error) {
	var res ScopedResult
	err := c.do(ctx, http.MethodPost, "/job-keywords/"+url.PathEscape(keywordID)+"/reclassify", nil, &res)
	return res, err
}

func (c *Client) ReclassifyPersona(ctx context.Context, personaID string) (ScopedResult, error) {
	var res ScopedResult
	err := c.do(ctx, http.MethodPost, "/personas/"+url.PathEscape(personaID)+"/reclassify", nil, &res)
	return res, err
}
