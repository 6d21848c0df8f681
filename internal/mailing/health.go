package mailing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/outreach-engine/internal/pkg/httpretry"
)

// HealthProvider supplies deliverability health scores for sender emails.
// Scores are 0-100; identities absent from the result are treated as
// unscored by the pool builder.
type HealthProvider interface {
	Scores(ctx context.Context, campaignID string, emails []string) (map[string]int, error)
}

// HTTPHealthProvider queries the deliverability scoring service.
type HTTPHealthProvider struct {
	baseURL    string
	httpClient httpretry.HTTPDoer
}

// NewHTTPHealthProvider builds a provider with retrying transport.
func NewHTTPHealthProvider(baseURL string) *HTTPHealthProvider {
	return &HTTPHealthProvider{
		baseURL:    baseURL,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: 15 * time.Second}, 3),
	}
}

type healthScoreResponse struct {
	Scores map[string]int `json:"scores"`
}

// Scores fetches current scores for the campaign's senders.
func (p *HTTPHealthProvider) Scores(ctx context.Context, campaignID string, _ []string) (map[string]int, error) {
	url := fmt.Sprintf("%s/api/sender-accounts/health-score?campaignId=%s", p.baseURL, campaignID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating health score request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching health scores: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("health score API returned %d: %s", resp.StatusCode, body)
	}

	var out healthScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding health scores: %w", err)
	}
	return out.Scores, nil
}

// StaticHealthProvider returns fixed scores; used in tests and when no
// scoring service is configured.
type StaticHealthProvider map[string]int

func (p StaticHealthProvider) Scores(_ context.Context, _ string, _ []string) (map[string]int, error) {
	out := make(map[string]int, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out, nil
}
