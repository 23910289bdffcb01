package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/multichat/multichat-go/internal/config"
	"github.com/multichat/multichat-go/internal/guardrails"
	"github.com/multichat/multichat-go/internal/logging"
	"github.com/multichat/multichat-go/internal/session"
)

type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	session *session.Session
	log     *zap.Logger
}

func New(cfg *config.Config, sess *session.Session, log *zap.Logger) *Server {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.Gin(log))
	srv := &Server{cfg: cfg, engine: r, session: sess, log: log}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/v1")
	api.GET("/providers", s.listProviders)
	api.GET("/transcript", s.transcript)
	api.DELETE("/transcript", s.reset)
	api.POST("/messages", s.submit)
	api.GET("/usage", s.usage)
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.engine,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	s.log.Info("listening", zap.String("address", s.cfg.Address))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type providerView struct {
	Label  string   `json:"label"`
	Family string   `json:"family"`
	Models []string `json:"models"`
}

func (s *Server) listProviders(c *gin.Context) {
	specs := s.session.Registry().Providers()
	out := make([]providerView, 0, len(specs))
	for _, p := range specs {
		out = append(out, providerView{Label: p.Label, Family: p.Family.Name(), Models: p.Models})
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

func (s *Server) transcript(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":    s.session.State().String(),
		"messages": s.session.Messages(),
	})
}

func (s *Server) reset(c *gin.Context) {
	if err := s.session.Reset(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type submitRequest struct {
	Provider string `json:"provider" binding:"required"`
	Model    string `json:"model"`
	Content  string `json:"content"`
}

func (s *Server) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	turn, err := s.session.Submit(c.Request.Context(), req.Provider, req.Model, req.Content)
	switch {
	case errors.Is(err, session.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, guardrails.ErrEmptyInput), errors.Is(err, guardrails.ErrBanned):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      turn.User,
		"assistant": turn.Assistant,
		"ok":        turn.Err == nil,
	})
}

func (s *Server) usage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"usage": s.session.Usage().Snapshot()})
}
