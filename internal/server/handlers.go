package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/gg/gslice"
	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/tgifai/eternal/internal/mission"
	"github.com/tgifai/eternal/internal/pkg/logs"
)

var errMessageRequired = errors.New("message is required")

type chatRequest struct {
	Message string `json:"message"`
}

// missionSummary is what GET /missions reports per recent mission.
type missionSummary struct {
	ID            string        `json:"id"`
	Task          string        `json:"task"`
	State         mission.State `json:"state"`
	Steps         int           `json:"steps"`
	SystemMessage string        `json:"system_message"`
	FinalAnswer   string        `json:"final_answer,omitempty"`
	CreatedAt     string        `json:"created_at"`
}

func (s *Server) initChat(ctx context.Context, c *app.RequestContext) {
	id := s.sessions.Create()
	logs.CtxInfo(ctx, "[server] init chat session %s", id)
	c.JSON(consts.StatusOK, utils.H{"session_id": id})
}

func (s *Server) chat(ctx context.Context, c *app.RequestContext) {
	id := c.Param("session_id")

	message := c.Query("message")
	if message == "" && len(c.GetRequest().Body()) > 0 {
		var req chatRequest
		if err := sonic.Unmarshal(c.GetRequest().Body(), &req); err != nil {
			fail(c, consts.StatusBadRequest, errors.New("invalid request body"))
			return
		}
		message = req.Message
	}
	if strings.TrimSpace(message) == "" {
		fail(c, consts.StatusBadRequest, errMessageRequired)
		return
	}

	reply, err := s.sessions.Execute(ctx, id, message)
	if err != nil {
		logs.CtxWarn(ctx, "[server] chat %s error: %v", id, err)
		fail(c, consts.StatusBadRequest, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"response": reply})
}

func (s *Server) history(ctx context.Context, c *app.RequestContext) {
	view, err := s.sessions.Get(c.Param("session_id"))
	if err != nil {
		fail(c, consts.StatusBadRequest, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"history": view})
}

func (s *Server) deinitChat(ctx context.Context, c *app.RequestContext) {
	id := c.Param("session_id")
	if err := s.sessions.Destroy(id); err != nil {
		fail(c, consts.StatusBadRequest, err)
		return
	}
	logs.CtxInfo(ctx, "[server] deinit chat session %s", id)
	c.JSON(consts.StatusOK, utils.H{})
}

func (s *Server) triggerMission(ctx context.Context, c *app.RequestContext) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		fail(c, consts.StatusBadRequest, errors.New("mission index must be an integer"))
		return
	}

	m, err := s.missions.Trigger(index)
	if err != nil {
		fail(c, consts.StatusBadRequest, err)
		return
	}
	logs.CtxInfo(ctx, "[server] triggered mission #%d as %s", index, m.ID)
	c.JSON(consts.StatusOK, utils.H{"mission_id": m.ID})
}

func (s *Server) listMissions(ctx context.Context, c *app.RequestContext) {
	recent := gslice.Map(s.missions.Recent(), summarize)
	c.JSON(consts.StatusOK, utils.H{
		"queue_length": s.missions.Len(),
		"recent":       recent,
	})
}

func (s *Server) listModels(ctx context.Context, c *app.RequestContext) {
	p, err := s.providers.Get(c.Param("id"))
	if err != nil {
		fail(c, consts.StatusNotFound, err)
		return
	}
	models, err := p.ListModels(ctx)
	if err != nil {
		logs.CtxWarn(ctx, "[server] list models of %s error: %v", p.ID(), err)
		fail(c, consts.StatusBadGateway, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"provider": p.ID(), "models": models})
}

func summarize(m *mission.Mission) missionSummary {
	out := missionSummary{
		ID:            m.ID,
		Task:          m.Task,
		State:         m.State,
		Steps:         m.Steps,
		SystemMessage: m.SystemMessage,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if n := len(m.Scratchpad); n > 0 {
		out.FinalAnswer = m.Scratchpad[n-1][mission.KeyFinalAnswer]
	}
	return out
}
