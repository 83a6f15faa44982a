// Package status serves a small read-only HTTP view of the running bot.
package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/keshon/scrims-bot/internal/cooldown"
	"github.com/keshon/scrims-bot/pkg/cmd"
	"github.com/keshon/scrims-bot/pkg/jobmgr"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Server exposes health, the registered commands and running jobs.
type Server struct {
	registry  *cmd.Registry
	jobs      *jobmgr.Manager
	cooldowns *cooldown.Engine
	started   time.Time
}

// New returns a server reading from the given components. Any may be nil.
func New(reg *cmd.Registry, jobs *jobmgr.Manager, cooldowns *cooldown.Engine) *Server {
	return &Server{registry: reg, jobs: jobs, cooldowns: cooldowns, started: time.Now()}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.started).Round(time.Second).String(),
		})
	})

	r.GET("/commands", func(c *gin.Context) {
		names := []string{}
		if s.registry != nil {
			names = s.registry.Names()
		}
		c.JSON(http.StatusOK, gin.H{"commands": names})
	})

	r.GET("/jobs", func(c *gin.Context) {
		type job struct {
			Name    string    `json:"name"`
			Started time.Time `json:"started"`
		}
		out := []job{}
		if s.jobs != nil {
			for _, j := range s.jobs.List() {
				out = append(out, job{Name: j.Name, Started: j.Started})
			}
		}
		cooling := 0
		if s.cooldowns != nil {
			cooling = s.cooldowns.Len()
		}
		c.JSON(http.StatusOK, gin.H{"jobs": out, "cooldowns": cooling})
	})

	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("status server shutdown")
		}
	}()

	log.Info().Str("addr", addr).Msg("status server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
