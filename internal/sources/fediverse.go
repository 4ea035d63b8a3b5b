package sources

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tmarchand/socialpulse/internal/models"
)

// FediverseSource reads hashtag timelines from a Mastodon-compatible
// instance. Statuses arrive with HTML content; the normalizer strips it
// downstream. It also carries the streaming variant of the contract.
type FediverseSource struct {
	instanceURL string
	accessToken string
	client      *http.Client
}

var _ models.Source = (*FediverseSource)(nil)
var _ models.StreamSource = (*FediverseSource)(nil)

func NewFediverseSource(instanceURL, accessToken string) *FediverseSource {
	return &FediverseSource{
		instanceURL: strings.TrimSuffix(instanceURL, "/"),
		accessToken: accessToken,
		client:      newHTTPClient(),
	}
}

type fediverseStatus struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Account   struct {
		Acct     string `json:"acct"`
		Username string `json:"username"`
	} `json:"account"`
	Reblog json.RawMessage `json:"reblog"`
}

func (s *FediverseSource) Fetch(ctx context.Context, terms []string, limit int) ([]models.RawItem, error) {
	if s.instanceURL == "" {
		return nil, fmt.Errorf("%w: fediverse instance url", models.ErrConfigMissing)
	}

	var items []models.RawItem
	for _, term := range terms {
		tag := strings.TrimPrefix(strings.TrimSpace(term), "#")
		if tag == "" || len(items) >= limit {
			continue
		}

		endpoint := fmt.Sprintf("%s/api/v1/timelines/tag/%s?limit=%d",
			s.instanceURL, url.PathEscape(tag), limit)

		var statuses []fediverseStatus
		if err := getJSON(ctx, s.client, endpoint, s.authHeaders(), &statuses); err != nil {
			return nil, fmt.Errorf("fediverse tag %s: %w", tag, err)
		}

		for _, status := range statuses {
			if len(items) >= limit {
				break
			}
			if item, ok := statusToItem(status); ok {
				items = append(items, item)
			}
		}
	}

	return items, nil
}

// Stream opens the instance's streaming endpoint for the first tag and
// invokes fn once per status. The returned stop function disconnects
// immediately; it does not drain in-flight events.
func (s *FediverseSource) Stream(ctx context.Context, terms []string, fn func(models.RawItem)) (func() error, error) {
	if s.instanceURL == "" {
		return nil, fmt.Errorf("%w: fediverse instance url", models.ErrConfigMissing)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: streaming requires at least one tag", models.ErrConfigMissing)
	}

	tag := strings.TrimPrefix(strings.TrimSpace(terms[0]), "#")
	endpoint := fmt.Sprintf("%s/api/v1/streaming/hashtag?tag=%s", s.instanceURL, url.QueryEscape(tag))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range s.authHeaders() {
		req.Header.Set(k, v)
	}

	// The fetch client carries a request timeout that would sever a
	// long-lived stream; use a bare client here.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d from stream", models.ErrSourceUnavailable, resp.StatusCode)
	}

	go s.consumeEvents(resp, fn)

	return func() error { return resp.Body.Close() }, nil
}

// consumeEvents reads SSE frames until the connection drops.
func (s *FediverseSource) consumeEvents(resp *http.Response, fn func(models.RawItem)) {
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	event := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if event != "update" {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			var status fediverseStatus
			if err := json.Unmarshal([]byte(payload), &status); err != nil {
				continue
			}
			if item, ok := statusToItem(status); ok {
				fn(item)
			}
		case line == "":
			event = ""
		}
	}
}

func (s *FediverseSource) authHeaders() map[string]string {
	if s.accessToken == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + s.accessToken}
}

// statusToItem drops reshares and maps a status onto the fetch contract.
func statusToItem(status fediverseStatus) (models.RawItem, bool) {
	if len(status.Reblog) > 0 && string(status.Reblog) != "null" {
		return models.RawItem{}, false
	}

	author := status.Account.Acct
	if author == "" {
		author = status.Account.Username
	}
	if author == "" {
		author = models.AnonymousAuthor
	}

	return models.RawItem{
		Text:      status.Content,
		Author:    author,
		CreatedAt: status.CreatedAt,
	}, true
}

func (s *FediverseSource) Name() string {
	return "fediverse"
}

func (s *FediverseSource) Platform() models.Platform {
	return models.PlatformFediverse
}
