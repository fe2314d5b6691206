package webx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/tgifai/eternal/internal/pkg/logs"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

type searchResult struct {
	Title   string
	URL     string
	Snippet string
}

type braveSearcher struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// braveResponse mirrors the fields we read from the Brave Search API.
type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (b *braveSearcher) search(ctx context.Context, query string, count int) ([]searchResult, error) {
	if b.apiKey == "" {
		return nil, errors.New("BRAVE_API_KEY is not set, web search is unavailable")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("brave search HTTP %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed braveResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]searchResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		results = append(results, searchResult{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return results, nil
}

func (t *Toolset) search(ctx context.Context, query, rawCount string) (string, error) {
	count, err := strconv.Atoi(rawCount)
	if err != nil {
		return "", fmt.Errorf("count must be a number, got %q", rawCount)
	}
	count = min(max(count, 1), 10)

	results, err := t.searcher.search(ctx, query, count)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for: %s", query), nil
	}
	logs.CtxInfo(ctx, "[toolset:web_search] %q -> %d results", query, len(results))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Results for: %s\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "\n%d. %s\n   %s", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "\n   %s", r.Snippet)
		}
	}
	return sb.String(), nil
}
