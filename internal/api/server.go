// Package api serves the graph store to the review UI as JSON over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kizuruki/historybowlreview/internal/db"
)

// Server holds the handler dependencies.
type Server struct {
	db  *db.DB
	log *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d *db.DB, log *zap.Logger, production bool) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{db: d, log: log}

	d.OnProgress(func(p db.UserProgress) {
		log.Debug("progress updated",
			zap.String("node_id", p.NodeID),
			zap.Int("stars", p.Stars),
			zap.Int("times_correct", p.TimesCorrect),
			zap.Int("times_wrong", p.TimesWrong),
		)
	})

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/divisions", s.listDivisions)
		api.GET("/divisions/:division/nodes", s.divisionNodes)
		api.GET("/search", s.search)

		api.GET("/nodes/:id", s.getNode)
		api.GET("/nodes/:id/related", s.relatedNodes)
		api.GET("/nodes/:id/explore", s.explore)
		api.GET("/nodes/:id/questions", s.nodeQuestions)
		api.GET("/nodes/:id/progress", s.getProgress)
		api.POST("/nodes/:id/progress", s.updateProgress)

		api.GET("/stats/mastery", s.masteryStats)
		api.GET("/stats/graph", s.graphStats)

		api.GET("/wrong-answers", s.listWrongAnswers)
		api.POST("/wrong-answers", s.recordWrongAnswer)
	}

	return router
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Info("Server started", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// cors lets the static review page call the API from another origin.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
