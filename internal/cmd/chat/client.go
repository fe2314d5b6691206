package chat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/tgifai/eternal/internal/session"
)

const (
	dialTimeout = 5 * time.Second
	// replyTimeout covers a full chat completion including retries.
	replyTimeout = 5 * time.Minute
)

// Client talks to a running daemon's chat endpoints.
type Client struct {
	host   string
	apiKey string
	hc     *client.Client
}

func NewClient(host, apiKey string) (*Client, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return nil, errors.New("host is required")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	hc, err := client.NewClient(
		client.WithDialTimeout(dialTimeout),
		client.WithClientReadTimeout(replyTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	return &Client{host: host, apiKey: apiKey, hc: hc}, nil
}

func (c *Client) InitChat(ctx context.Context) (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := c.do(ctx, consts.MethodPost, "/api/v1/init-chat", nil, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", errors.New("server returned no session id")
	}
	return out.SessionID, nil
}

func (c *Client) Chat(ctx context.Context, sessionID, message string) (string, error) {
	body, err := sonic.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", err
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, consts.MethodPost, "/api/v1/chat/"+url.PathEscape(sessionID), body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *Client) History(ctx context.Context, sessionID string) (session.View, error) {
	var out struct {
		History session.View `json:"history"`
	}
	err := c.do(ctx, consts.MethodGet, "/api/v1/chat/"+url.PathEscape(sessionID)+"/history", nil, &out)
	return out.History, err
}

func (c *Client) DeinitChat(ctx context.Context, sessionID string) error {
	return c.do(ctx, consts.MethodGet, "/api/v1/deinit-chat/"+url.PathEscape(sessionID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetMethod(method)
	req.SetRequestURI(c.host + path)
	if body != nil {
		req.Header.SetContentTypeBytes([]byte("application/json"))
		req.SetBody(body)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if err := c.hc.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode() != consts.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if err := sonic.Unmarshal(resp.Body(), &e); err == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, e.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode())
	}

	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
