package webx

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/bytedance/gg/gconv"

	"github.com/tgifai/eternal/internal/pkg/utils"
	"github.com/tgifai/eternal/internal/toolset"
)

const Name = "WebToolset"

const (
	defaultSearchCount = 5
	defaultMaxChars    = 20000
	searchTimeout      = 10 * time.Second
	fetchTimeout       = 30 * time.Second
)

// Toolset offers web_search (Brave) and web_fetch (readability + markdown).
type Toolset struct {
	searcher     *braveSearcher
	fetchClient  *http.Client
	allowPrivate bool
}

var _ toolset.Toolset = (*Toolset)(nil)

// New reads brave_api_key (falling back to BRAVE_API_KEY), brave_endpoint and
// allow_private from the registry init params.
func New(params map[string]any) (toolset.Toolset, error) {
	apiKey := gconv.To[string](params["brave_api_key"])
	if apiKey == "" {
		apiKey = os.Getenv("BRAVE_API_KEY")
	}
	endpoint := gconv.To[string](params["brave_endpoint"])
	if endpoint == "" {
		endpoint = braveEndpoint
	}

	t := &Toolset{
		searcher: &braveSearcher{
			apiKey:   apiKey,
			endpoint: endpoint,
			client: &http.Client{
				Timeout:   searchTimeout,
				Transport: utils.NewCompressedTransport(nil),
			},
		},
		allowPrivate: gconv.To[bool](params["allow_private"]),
	}
	t.fetchClient = newFetchClient(t.allowPrivate)
	return t, nil
}

func (t *Toolset) Name() string    { return "Web" }
func (t *Toolset) Purpose() string { return "to search the web and read web pages" }

func (t *Toolset) Tools() []toolset.Tool {
	return []toolset.Tool{
		{
			Name:        "web_search",
			Description: "Search the web, returns titles, URLs and snippets of the top results",
			Params: []toolset.Param{
				{Name: "query", Dtype: toolset.String, Description: "The search query"},
				{Name: "count", Dtype: toolset.Number, Description: "Number of results (1-10)", Default: strconv.Itoa(defaultSearchCount)},
			},
			Executor: func(ctx context.Context, args []string) (string, error) {
				return t.search(ctx, args[0], args[1])
			},
		},
		{
			Name:        "web_fetch",
			Description: "Fetch a http(s) URL and return its main content as markdown",
			Params: []toolset.Param{
				{Name: "url", Dtype: toolset.String, Description: "The URL to fetch"},
				{Name: "max_chars", Dtype: toolset.Number, Description: "Maximum characters to return", Default: strconv.Itoa(defaultMaxChars)},
			},
			Executor: func(ctx context.Context, args []string) (string, error) {
				return t.fetch(ctx, args[0], args[1])
			},
		},
	}
}
