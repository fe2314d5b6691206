package webx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/bytedance/sonic"

	"github.com/tgifai/eternal/internal/pkg/logs"
	"github.com/tgifai/eternal/internal/pkg/utils"
)

const (
	fetchMaxRedirects = 5
	fetchMaxBody      = 5 << 20
	fetchUserAgent    = "Mozilla/5.0 (compatible; EternalAgent/1.0)"
)

var errPrivateAddress = errors.New("access to private/internal addresses is not allowed")

func newFetchClient(allowPrivate bool) *http.Client {
	return &http.Client{
		Timeout:   fetchTimeout,
		Transport: utils.NewCompressedTransport(nil),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= fetchMaxRedirects {
				return fmt.Errorf("too many redirects (max %d)", fetchMaxRedirects)
			}
			if !allowPrivate && utils.IsPrivateHost(req.URL.Hostname()) {
				return errPrivateAddress
			}
			return nil
		},
	}
}

func (t *Toolset) fetch(ctx context.Context, rawURL, rawMax string) (string, error) {
	maxChars, err := strconv.Atoi(rawMax)
	if err != nil || maxChars <= 0 {
		return "", fmt.Errorf("max_chars must be a positive number, got %q", rawMax)
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

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/markdown, text/html, application/json, */*")

	resp, err := t.fetchClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("fetch HTTP %d", resp.StatusCode)
	}

	content := renderBody(resp.Header.Get("Content-Type"), body, resp.Request.URL)
	truncated := len(content) > maxChars
	if truncated {
		content = utils.Truncate(content, maxChars)
	}
	logs.CtxInfo(ctx, "[toolset:web_fetch] %s (%d chars, truncated=%v)", rawURL, len(content), truncated)
	return content, nil
}

func renderBody(ctype string, body []byte, pageURL *url.URL) string {
	switch {
	case strings.Contains(ctype, "text/markdown"):
		return string(body)
	case strings.Contains(ctype, "application/json"):
		var js any
		if err := sonic.Unmarshal(body, &js); err == nil {
			if pretty, err := sonic.MarshalIndent(js, "", "  "); err == nil {
				return string(pretty)
			}
		}
		return string(body)
	case strings.Contains(ctype, "text/html") || looksLikeHTML(body):
		return readableMarkdown(body, pageURL)
	default:
		return string(body)
	}
}

// readableMarkdown extracts the main article with readability and converts
// it to markdown, falling back to converting the whole page.
func readableMarkdown(body []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		md, _ := htmltomarkdown.ConvertString(string(body))
		return md
	}

	var buf bytes.Buffer
	if err := article.RenderHTML(&buf); err != nil {
		buf.Reset()
		_ = article.RenderText(&buf)
		return buf.String()
	}
	md, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return buf.String()
	}
	if title := article.Title(); title != "" {
		return "# " + title + "\n\n" + md
	}
	return md
}

func looksLikeHTML(body []byte) bool {
	prefix := strings.TrimSpace(strings.ToLower(string(body[:min(256, len(body))])))
	return strings.HasPrefix(prefix, "<!doctype") || strings.HasPrefix(prefix, "<html")
}
