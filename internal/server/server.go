package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	hzServer "github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	hzprom "github.com/hertz-contrib/monitor-prometheus"

	"github.com/tgifai/eternal/internal/mission"
	"github.com/tgifai/eternal/internal/pkg/logs"
	metrics "github.com/tgifai/eternal/internal/pkg/prometheus"
	"github.com/tgifai/eternal/internal/provider"
	"github.com/tgifai/eternal/internal/session"
)

const exitWait = 5 * time.Second

// Sessions is the part of the session registry the HTTP surface drives.
type Sessions interface {
	Create() string
	Get(id string) (session.View, error)
	Destroy(id string) error
	Execute(ctx context.Context, id, message string) (string, error)
}

// Missions exposes the configured templates and the scheduler state.
type Missions interface {
	Trigger(index int) (*mission.Mission, error)
	Len() int
	Recent() []*mission.Mission
}

type Providers interface {
	Get(id string) (provider.Provider, error)
}

type Options struct {
	Bind           string
	RequestTimeout time.Duration
	// APIKey, when set, is required as a Bearer token on every /api route.
	APIKey      string
	MetricsBind string
	MetricsPath string
}

type Server struct {
	h         *hzServer.Hertz
	sessions  Sessions
	missions  Missions
	providers Providers
	apiKey    string
}

func New(opts Options, sessions Sessions, missions Missions, providers Providers) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	hzOpts := []config.Option{
		hzServer.WithHostPorts(opts.Bind),
		hzServer.WithReadTimeout(opts.RequestTimeout),
		hzServer.WithWriteTimeout(opts.RequestTimeout),
		hzServer.WithExitWaitTime(exitWait),
	}
	if opts.MetricsBind != "" {
		hzOpts = append(hzOpts, hzServer.WithTracer(
			hzprom.NewServerTracer(opts.MetricsBind, opts.MetricsPath, hzprom.WithRegistry(metrics.GetRegistry())),
		))
	}

	s := &Server{
		h:         hzServer.Default(hzOpts...),
		sessions:  sessions,
		missions:  missions,
		providers: providers,
		apiKey:    opts.APIKey,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.h.Use(withLogID)
	s.h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.Status(consts.StatusOK)
	})

	api := s.h.Group("/api/v1", s.auth)
	api.POST("/init-chat", s.initChat)
	api.POST("/chat/:session_id", s.chat)
	api.GET("/chat/:session_id/history", s.history)
	api.GET("/deinit-chat/:session_id", s.deinitChat)

	api.GET("/missions", s.listMissions)
	api.POST("/missions/:index/trigger", s.triggerMission)

	api.GET("/providers/:id/models", s.listModels)
}

// Serve runs the listener until ctx is cancelled, then shuts it down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.h.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), exitWait)
	defer cancel()
	if err := s.h.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logs.Warn("[server] shutdown http server error: %v", err)
	}
	logs.Info("[server] http server stopped")
	return nil
}

func withLogID(ctx context.Context, c *app.RequestContext) {
	logID := string(c.GetHeader("X-Log-Id"))
	if logID == "" {
		logID = logs.NewLogID()
	}
	c.Header("X-Log-Id", logID)
	c.Next(logs.SetLogID(ctx, logID))
}

func (s *Server) auth(ctx context.Context, c *app.RequestContext) {
	if s.apiKey == "" {
		c.Next(ctx)
		return
	}
	if string(c.GetHeader("Authorization")) != "Bearer "+s.apiKey {
		c.AbortWithStatusJSON(consts.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	c.Next(ctx)
}

func fail(c *app.RequestContext, code int, err error) {
	c.JSON(code, map[string]string{"error": err.Error()})
}
