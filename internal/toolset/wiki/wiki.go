package wiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/gg/gconv"
	"github.com/bytedance/sonic"

	"github.com/tgifai/eternal/internal/consts"
	"github.com/tgifai/eternal/internal/pkg/logs"
	"github.com/tgifai/eternal/internal/pkg/utils"
	"github.com/tgifai/eternal/internal/toolset"
)

const (
	Name = "WikipediaSearch"

	defaultEndpoint = "https://api.wikimedia.org/core/v1/wikipedia"
	defaultLang     = "en"
	defaultTopK     = 3
	requestTimeout  = 15 * time.Second
)

var htmlTag = regexp.MustCompile(`<.*?>`)

type Toolset struct {
	endpoint string
	lang     string
	topK     int
	client   *http.Client
}

var _ toolset.Toolset = (*Toolset)(nil)

// New reads lang, top_k and endpoint from the registry init params.
func New(params map[string]any) (toolset.Toolset, error) {
	ts := &Toolset{
		endpoint: strings.TrimRight(gconv.To[string](params["endpoint"]), "/"),
		lang:     gconv.To[string](params["lang"]),
		topK:     gconv.To[int](params["top_k"]),
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: utils.NewCompressedTransport(nil),
		},
	}
	if ts.endpoint == "" {
		ts.endpoint = defaultEndpoint
	}
	if ts.lang == "" {
		ts.lang = defaultLang
	}
	if ts.topK <= 0 {
		ts.topK = defaultTopK
	}
	return ts, nil
}

func (t *Toolset) Name() string    { return "Wikipedia search" }
func (t *Toolset) Purpose() string { return "to retrieve data from Wikipedia" }

func (t *Toolset) Tools() []toolset.Tool {
	return []toolset.Tool{
		{
			Name:        "wiki_search",
			Description: "Search for something on Wikipedia",
			Params: []toolset.Param{
				{Name: "query", Dtype: toolset.String, Description: "Query to search"},
			},
			Executor: func(ctx context.Context, args []string) (string, error) {
				return t.search(ctx, args[0])
			},
		},
	}
}

type searchResponse struct {
	Pages []struct {
		Key         string `json:"key"`
		Title       string `json:"title"`
		Excerpt     string `json:"excerpt"`
		Description string `json:"description"`
	} `json:"pages"`
}

func (t *Toolset) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(t.topK))
	endpoint := fmt.Sprintf("%s/%s/search/page?%s", t.endpoint, url.PathEscape(t.lang), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", consts.AppName)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("wikipedia HTTP %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed searchResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(parsed.Pages) == 0 {
		return fmt.Sprintf("No results found for: %s", query), nil
	}
	logs.CtxInfo(ctx, "[toolset:wiki_search] %q -> %d pages", query, len(parsed.Pages))

	var sb strings.Builder
	for i, p := range parsed.Pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. %s: %s", i+1, p.Title, stripTags(p.Excerpt))
		if p.Description != "" {
			fmt.Fprintf(&sb, " (%s)", p.Description)
		}
	}
	return sb.String(), nil
}

func stripTags(s string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}
