// Package resolver implements the HTTP client for the shield resolver
// and rules-persistence services. The wire contract is small: four
// operations, all reporting failure as a human-readable message; the
// review engine never interprets status codes beyond success/failure.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scanline-ai/shieldrev/internal/model"
	"github.com/scanline-ai/shieldrev/internal/review"
)

// Client talks to the resolver backend. It implements review.Resolver.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New creates a client for the given base URL.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type resolveRequestJSON struct {
	VendorID         string         `json:"vendorId,omitempty"`
	TemplateID       string         `json:"templateId,omitempty"`
	SessionOverrides []model.Shield `json:"sessionOverrides"`
}

type resolveResponseJSON struct {
	ResolvedShields        []model.Shield                `json:"resolvedShields"`
	PrecedenceExplanations []model.PrecedenceExplanation `json:"precedenceExplanations,omitempty"`
	Zones                  []model.Zone                  `json:"zones,omitempty"`
}

// Resolve asks the backend to merge provenance layers into the effective
// shield list for a case, with local unsaved edits in play.
func (c *Client) Resolve(ctx context.Context, req review.ResolveRequest) (*review.ResolveResult, error) {
	url := fmt.Sprintf("%s/api/cases/%s/resolve", c.baseURL, req.CaseID)
	body := resolveRequestJSON{
		VendorID:         req.VendorID,
		TemplateID:       req.TemplateID,
		SessionOverrides: req.SessionOverrides,
	}
	if body.SessionOverrides == nil {
		body.SessionOverrides = []model.Shield{}
	}

	var resp resolveResponseJSON
	if err := c.do(ctx, http.MethodPost, url, body, &resp); err != nil {
		return nil, err
	}
	return &review.ResolveResult{
		Shields:      resp.ResolvedShields,
		Explanations: resp.PrecedenceExplanations,
		Zones:        resp.Zones,
	}, nil
}

type rulesRequestJSON struct {
	Rules    []model.Shield `json:"rules"`
	VendorID string         `json:"vendorId,omitempty"`
}

// SaveVendorRules persists shields as a vendor-level rule set.
func (c *Client) SaveVendorRules(ctx context.Context, vendorID string, shields []model.Shield) error {
	url := fmt.Sprintf("%s/api/vendors/%s/shield-rules", c.baseURL, vendorID)
	return c.do(ctx, http.MethodPut, url, rulesRequestJSON{Rules: shields}, nil)
}

// SaveTemplateRules persists shields as a template-level rule set.
func (c *Client) SaveTemplateRules(ctx context.Context, templateID, vendorID string, shields []model.Shield) error {
	url := fmt.Sprintf("%s/api/templates/%s/shield-rules", c.baseURL, templateID)
	return c.do(ctx, http.MethodPut, url, rulesRequestJSON{Rules: shields, VendorID: vendorID}, nil)
}

type snapshotRequestJSON struct {
	ResolvedShields []model.Shield `json:"resolvedShields"`
}

// SnapshotAndRerun stores the current shield set for the case, then
// triggers re-extraction. Two calls; the first failing skips the second.
func (c *Client) SnapshotAndRerun(ctx context.Context, caseID string, shields []model.Shield) error {
	snapURL := fmt.Sprintf("%s/api/cases/%s/shield-snapshot", c.baseURL, caseID)
	if err := c.do(ctx, http.MethodPut, snapURL, snapshotRequestJSON{ResolvedShields: shields}, nil); err != nil {
		return fmt.Errorf("snapshotting shields: %w", err)
	}
	rerunURL := fmt.Sprintf("%s/api/cases/%s/rerun-extraction", c.baseURL, caseID)
	if err := c.do(ctx, http.MethodPost, rerunURL, nil, nil); err != nil {
		return fmt.Errorf("triggering re-extraction: %w", err)
	}
	return nil
}

// do runs one JSON request/response round trip. Non-2xx responses become
// errors carrying the server's message when it sent one.
func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling resolver: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("resolver call",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s", errorMessage(resp))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// errorMessage extracts the server's error text, falling back to the
// status line.
func errorMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(raw) > 0 {
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			if payload.Error != "" {
				return payload.Error
			}
			if payload.Message != "" {
				return payload.Message
			}
		}
	}
	return fmt.Sprintf("resolver returned %s", resp.Status)
}
