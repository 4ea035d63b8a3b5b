package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tmarchand/socialpulse/internal/models"
)

// MicroblogSource queries a v2-style recent-search endpoint. Terms are
// combined with OR; reshares are excluded and results are restricted to
// one language where the API supports it.
type MicroblogSource struct {
	baseURL     string
	bearerToken string
	language    string
	client      *http.Client
}

var _ models.Source = (*MicroblogSource)(nil)

func NewMicroblogSource(baseURL, bearerToken, language string) *MicroblogSource {
	return &MicroblogSource{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		bearerToken: bearerToken,
		language:    language,
		client:      newHTTPClient(),
	}
}

type microblogResponse struct {
	Data []struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		AuthorID  string    `json:"author_id"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

func (s *MicroblogSource) Fetch(ctx context.Context, terms []string, limit int) ([]models.RawItem, error) {
	if s.bearerToken == "" {
		return nil, fmt.Errorf("%w: microblog bearer token", models.ErrConfigMissing)
	}

	query := buildQuery(terms, s.language)
	if query == "" {
		return nil, nil
	}

	endpoint := s.baseURL + "/2/tweets/search/recent?" + url.Values{
		"query":        {query},
		"max_results":  {strconv.Itoa(limit)},
		"tweet.fields": {"created_at,author_id"},
		"expansions":   {"author_id"},
	}.Encode()

	var resp microblogResponse
	headers := map[string]string{"Authorization": "Bearer " + s.bearerToken}
	if err := getJSON(ctx, s.client, endpoint, headers, &resp); err != nil {
		return nil, fmt.Errorf("microblog search: %w", err)
	}

	authors := make(map[string]string, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		authors[u.ID] = u.Username
	}

	items := make([]models.RawItem, 0, len(resp.Data))
	for _, post := range resp.Data {
		author := authors[post.AuthorID]
		if author == "" {
			author = models.AnonymousAuthor
		}
		items = append(items, models.RawItem{
			Text:      post.Text,
			Author:    author,
			CreatedAt: post.CreatedAt,
		})
	}
	return items, nil
}

func (s *MicroblogSource) Name() string {
	return "microblog"
}

func (s *MicroblogSource) Platform() models.Platform {
	return models.PlatformMicroblog
}

// buildQuery joins terms with OR and appends the reshare exclusion and
// language restriction understood by the search API.
func buildQuery(terms []string, language string) string {
	kept := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return ""
	}

	query := strings.Join(kept, " OR ") + " -is:retweet"
	if language != "" {
		query += " lang:" + language
	}
	return query
}
