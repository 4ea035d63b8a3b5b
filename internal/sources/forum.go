package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tmarchand/socialpulse/internal/models"
)

// ForumSource reads "hot" listings from a reddit-style API. Each query
// term names a community; listings are drained in order until limit is
// reached.
type ForumSource struct {
	baseURL string
	client  *http.Client
}

var _ models.Source = (*ForumSource)(nil)

func NewForumSource(baseURL string) *ForumSource {
	return &ForumSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

type forumListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title      string  `json:"title"`
				SelfText   string  `json:"selftext"`
				Author     string  `json:"author"`
				CreatedUTC float64 `json:"created_utc"`
				Stickied   bool    `json:"stickied"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *ForumSource) Fetch(ctx context.Context, terms []string, limit int) ([]models.RawItem, error) {
	var items []models.RawItem

	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" || len(items) >= limit {
			continue
		}

		endpoint := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", s.baseURL, url.PathEscape(term), limit)

		var listing forumListing
		if err := getJSON(ctx, s.client, endpoint, nil, &listing); err != nil {
			return nil, fmt.Errorf("forum listing %s: %w", term, err)
		}

		for _, child := range listing.Data.Children {
			if len(items) >= limit {
				break
			}
			post := child.Data
			if post.Stickied {
				continue
			}

			text := post.Title
			if post.SelfText != "" {
				text += "\n" + post.SelfText
			}

			author := post.Author
			if author == "" || author == "[deleted]" {
				author = models.AnonymousAuthor
			}

			items = append(items, models.RawItem{
				Text:      text,
				Author:    author,
				CreatedAt: time.Unix(int64(post.CreatedUTC), 0).UTC(),
			})
		}
	}

	return items, nil
}

func (s *ForumSource) Name() string {
	return "forum"
}

func (s *ForumSource) Platform() models.Platform {
	return models.PlatformForum
}
