package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/eternal/internal/pkg/logs"
	metrics "github.com/tgifai/eternal/internal/pkg/prometheus"
)

const failedResponse = "Failed to get a response from the model"

var errEmptyCompletion = errors.New("empty completion")

// LLM is what missions and chat sessions talk to.
type LLM interface {
	// Submit hands the conversation to the backend and returns a receipt.
	// It never fails, a failed completion is committed as an error result.
	Submit(ctx context.Context, messages []*schema.Message, opts ...SubmitOption) string

	Get(id string) (Result, error)

	// Complete resolves inline and returns the reply text.
	Complete(ctx context.Context, messages []*schema.Message, opts ...SubmitOption) (string, error)
}

// Generator is the part of a provider the client needs.
type Generator interface {
	Generate(ctx context.Context, modelName string, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type ClientConfig struct {
	// Backend labels metrics and logs, usually the provider id.
	Backend string
	Model   string
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int
	Options    []model.Option
}

type Client struct {
	svc *Service
	gen Generator
	cfg ClientConfig
}

var _ LLM = (*Client)(nil)

func (s *Service) NewClient(gen Generator, cfg ClientConfig) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{svc: s, gen: gen, cfg: cfg}
}

type submitOptions struct {
	overrides []model.Option
}

type SubmitOption func(*submitOptions)

func WithStop(stop ...string) SubmitOption {
	return func(o *submitOptions) {
		if len(stop) > 0 {
			o.overrides = append(o.overrides, model.WithStop(stop))
		}
	}
}

// WithOverrides appends per-call model options after the client defaults.
func WithOverrides(opts ...model.Option) SubmitOption {
	return func(o *submitOptions) {
		o.overrides = append(o.overrides, opts...)
	}
}

func (c *Client) Submit(ctx context.Context, messages []*schema.Message, opts ...SubmitOption) string {
	id := newReceipt()
	mopts := c.modelOptions(opts)

	if !c.svc.async {
		c.svc.cache.Commit(c.resolve(ctx, id, messages, mopts))
		return id
	}

	c.svc.cache.Commit(Result{ID: id, State: StateExecuting})
	c.svc.dispatch(ctx, id, func(runCtx context.Context) Result {
		return c.resolve(runCtx, id, messages, mopts)
	})
	return id
}

func (c *Client) Get(id string) (Result, error) {
	return c.svc.Get(id)
}

func (c *Client) Complete(ctx context.Context, messages []*schema.Message, opts ...SubmitOption) (string, error) {
	r := c.resolve(ctx, newReceipt(), messages, c.modelOptions(opts))
	c.svc.cache.Commit(r)
	if r.State == StateError {
		return "", errors.New(r.Error)
	}
	return r.Result, nil
}

func (c *Client) modelOptions(opts []SubmitOption) []model.Option {
	so := &submitOptions{}
	for _, opt := range opts {
		opt(so)
	}
	out := make([]model.Option, 0, len(c.cfg.Options)+len(so.overrides))
	out = append(out, c.cfg.Options...)
	return append(out, so.overrides...)
}

// resolve tries the backend MaxRetries+1 times. An error or an empty reply
// counts as a failed attempt.
func (c *Client) resolve(ctx context.Context, id string, messages []*schema.Message, opts []model.Option) Result {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		resp, err := c.gen.Generate(ctx, c.cfg.Model, messages, opts...)
		if err == nil && (resp == nil || strings.TrimSpace(resp.Content) == "") {
			err = errEmptyCompletion
		}
		if err == nil {
			metrics.InferenceAttempts.WithLabelValues(c.cfg.Backend, "ok").Inc()
			return Result{ID: id, State: StateDone, Result: resp.Content}
		}

		lastErr = err
		metrics.InferenceAttempts.WithLabelValues(c.cfg.Backend, "error").Inc()
		logs.CtxWarn(ctx, "[inference] %s/%s attempt %d/%d failed: %v",
			c.cfg.Backend, c.cfg.Model, attempt+1, c.cfg.MaxRetries+1, err)
	}

	return Result{ID: id, State: StateError, Error: fmt.Sprintf("%s: %v", failedResponse, lastErr)}
}
