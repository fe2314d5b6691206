package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/gg/gconv"
	"github.com/bytedance/sonic"

	"github.com/tgifai/eternal/internal/pkg/logs"
	"github.com/tgifai/eternal/internal/pkg/utils"
	"github.com/tgifai/eternal/internal/toolset"
)

const Name = "HTTPToolset"

const (
	defaultTimeout  = 30 * time.Second
	maxRedirects    = 5
	maxBody         = 5 << 20
	maxResponseChar = 20000
	userAgent       = "eternal-httpx/1.0"
)

var (
	allowedMethods = map[string]bool{
		http.MethodGet:    true,
		http.MethodPost:   true,
		http.MethodPut:    true,
		http.MethodPatch:  true,
		http.MethodDelete: true,
	}

	errPrivateAddress = errors.New("access to private/internal addresses is not allowed")
)

// Toolset lets a mission call external JSON APIs.
type Toolset struct {
	client       *http.Client
	headers      map[string]string
	allowPrivate bool
}

var _ toolset.Toolset = (*Toolset)(nil)

// New reads timeout (seconds), allow_private and a headers map that is sent
// with every request, typically for api keys.
func New(params map[string]any) (toolset.Toolset, error) {
	timeout := defaultTimeout
	if v := gconv.To[int](params["timeout"]); v > 0 {
		timeout = time.Duration(v) * time.Second
	}

	t := &Toolset{
		headers:      map[string]string{},
		allowPrivate: gconv.To[bool](params["allow_private"]),
	}
	if hdrs, ok := params["headers"].(map[string]any); ok {
		for k, v := range hdrs {
			t.headers[k] = gconv.To[string](v)
		}
	}
	t.client = &http.Client{
		Timeout:   timeout,
		Transport: utils.NewCompressedTransport(nil),
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects (max %d)", maxRedirects)
			}
			if !t.allowPrivate && utils.IsPrivateHost(r.URL.Hostname()) {
				return errPrivateAddress
			}
			return nil
		},
	}
	return t, nil
}

func (t *Toolset) Name() string    { return "HTTP" }
func (t *Toolset) Purpose() string { return "to call external HTTP APIs" }

func (t *Toolset) Tools() []toolset.Tool {
	return []toolset.Tool{
		{
			Name:        "http_request",
			Description: "Make an HTTP request and get back the status and the response body as JSON",
			Params: []toolset.Param{
				{Name: "method", Dtype: toolset.String, Description: "GET, POST, PUT, PATCH or DELETE"},
				{Name: "url", Dtype: toolset.String, Description: "http or https URL"},
				{Name: "body", Dtype: toolset.String, Description: "request body, usually JSON", Optional: true},
			},
			Executor: func(ctx context.Context, args []string) (string, error) {
				return t.request(ctx, args[0], args[1], args[2])
			},
		},
	}
}

type requestResult struct {
	Status    int    `json:"status"`
	Body      string `json:"body"`
	Truncated bool   `json:"truncated,omitempty"`
}

func (t *Toolset) request(ctx context.Context, method, rawURL, body string) (string, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if !allowedMethods[method] {
		return "", fmt.Errorf("unsupported method %q", method)
	}

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("only http and https URLs are allowed")
	}
	if !t.allowPrivate && utils.IsPrivateHost(parsed.Hostname()) {
		return "", errPrivateAddress
	}

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	result := requestResult{Status: resp.StatusCode, Body: string(raw)}
	if len(result.Body) > maxResponseChar {
		result.Body = result.Body[:maxResponseChar]
		result.Truncated = true
	}
	logs.CtxInfo(ctx, "[tool:http_request] %s %s -> %d (%d bytes)", method, rawURL, resp.StatusCode, len(raw))

	return sonic.MarshalString(result)
}
