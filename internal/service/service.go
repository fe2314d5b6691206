package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tgifai/eternal/internal/config"
	"github.com/tgifai/eternal/internal/inference"
	"github.com/tgifai/eternal/internal/mission"
	"github.com/tgifai/eternal/internal/pkg/logs"
	"github.com/tgifai/eternal/internal/provider"
	"github.com/tgifai/eternal/internal/scheduler"
	"github.com/tgifai/eternal/internal/server"
	"github.com/tgifai/eternal/internal/session"
)

// Service wires providers, the inference gateway, the capability catalogs,
// the mission scheduler, chat sessions and the HTTP surface together.
type Service struct {
	cfg       *config.Config
	providers *provider.Registry
	inference *inference.Service
	catalogs  *Catalogs

	templates []mission.Template
	scheduler *scheduler.Scheduler
	sessions  *session.Manager
	server    *server.Server
}

type Option func(*options)

type options struct {
	providers *provider.Registry
}

// WithProviders skips building providers from the config document.
func WithProviders(reg *provider.Registry) Option {
	return func(o *options) {
		o.providers = reg
	}
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	providers := o.providers
	if providers == nil {
		var err error
		if providers, err = initProviders(ctx, cfg.Providers); err != nil {
			return nil, fmt.Errorf("init providers: %w", err)
		}
	}

	s := &Service{
		cfg:       cfg,
		providers: providers,
		inference: inference.NewService(inference.Options{
			CacheSize:    cfg.Inference.CacheSize,
			Async:        cfg.Inference.Mode == config.InferenceModeAsync,
			AsyncWorkers: cfg.Inference.AsyncWorkers,
		}),
		catalogs: newCatalogs(),
	}
	s.registerBuiltins()

	if err := s.initMissions(); err != nil {
		_ = providers.Close()
		return nil, err
	}
	if err := s.initSessions(); err != nil {
		_ = providers.Close()
		return nil, err
	}

	s.scheduler = scheduler.New(s.catalogs.Agents, scheduler.Options{
		SleepInterval: time.Duration(cfg.Service.SleepIntervalSec) * time.Second,
		RecentSize:    cfg.Service.RecentMissions,
	})
	s.scheduler.AddSweeper(s.sessions)

	s.server = server.New(server.Options{
		Bind:           cfg.Server.Bind,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		APIKey:         cfg.Server.APIKey,
		MetricsBind:    cfg.Server.MetricsBind,
		MetricsPath:    cfg.Server.MetricsPath,
	}, s.sessions, s, s.providers)

	return s, nil
}

func (s *Service) initMissions() error {
	s.templates = make([]mission.Template, 0, len(s.cfg.Missions))
	for i, mc := range s.cfg.Missions {
		persona, err := s.buildPersona(mc.CharacterBuilder)
		if err != nil {
			return fmt.Errorf("missions[%d]: %w", i, err)
		}
		if _, ok := s.catalogs.Agents.Resolve(mc.AgentBuilder.Name); !ok {
			return fmt.Errorf("missions[%d]: agent %s not found", i, mc.AgentBuilder.Name)
		}
		s.templates = append(s.templates, mission.Template{
			SystemPrompt:    persona,
			Task:            mc.Task,
			SystemReminder:  mc.SystemReminder,
			IntervalMinutes: mc.Scheduling.IntervalMinutes,
			ToolsetCfg:      mc.ToolsetCfg,
			LLMCfg:          mc.LLMCfg,
			AgentCfg:        mc.AgentBuilder,
		})
	}
	return nil
}

func (s *Service) initSessions() error {
	persona, err := s.buildPersona(s.cfg.Interactive.CharacterBuilder)
	if err != nil {
		return fmt.Errorf("interactive: %w", err)
	}
	s.sessions = session.NewManager(s.catalogs.LLMs, s.cfg.Interactive.LLMCfg, persona, session.Options{
		Timeout: time.Duration(s.cfg.Service.ChatSessionTimeoutSec) * time.Second,
		Window:  s.cfg.Service.ChatWindow,
	})
	return nil
}

// Start admits recurring missions and starts the worker loop. The HTTP
// surface is started separately by Serve.
func (s *Service) Start(ctx context.Context) error {
	if down := probeProviders(ctx, s.providers); len(down) > 0 {
		logs.CtxWarn(ctx, "[service] %d of %d providers unreachable: %v", len(down), len(s.providers.List()), down)
	}
	for i, t := range s.templates {
		if t.IntervalMinutes <= 0 {
			continue
		}
		interval := time.Duration(t.IntervalMinutes) * time.Minute
		if _, err := s.scheduler.RegisterRecurring(interval, t.Factory(), s.cfg.Service.Sandbox); err != nil {
			return fmt.Errorf("register mission #%d: %w", i, err)
		}
		logs.CtxInfo(ctx, "[service] mission #%d scheduled every %v", i, interval)
	}
	return s.scheduler.Start(ctx)
}

// Serve blocks on the HTTP surface until ctx is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	return s.server.Serve(ctx)
}

func (s *Service) Stop(ctx context.Context) error {
	s.scheduler.Stop(ctx)
	if err := s.inference.Close(ctx); err != nil {
		logs.CtxWarn(ctx, "[service] close inference error: %v", err)
	}
	if err := s.providers.Close(); err != nil {
		logs.CtxWarn(ctx, "[service] close providers error: %v", err)
		return err
	}
	logs.CtxInfo(ctx, "[service] all resources stopped")
	return nil
}

// Trigger enqueues a fresh instance of the configured mission at index.
func (s *Service) Trigger(index int) (*mission.Mission, error) {
	if index < 0 || index >= len(s.templates) {
		return nil, fmt.Errorf("mission index %d out of range [0, %d)", index, len(s.templates))
	}
	return s.scheduler.EnqueueFactory(s.templates[index].Factory()), nil
}

func (s *Service) Len() int {
	return s.scheduler.Len()
}

func (s *Service) Recent() []*mission.Mission {
	return s.scheduler.Recent()
}

func (s *Service) Templates() []mission.Template {
	out := make([]mission.Template, len(s.templates))
	copy(out, s.templates)
	return out
}

func (s *Service) Catalogs() *Catalogs {
	return s.catalogs
}
