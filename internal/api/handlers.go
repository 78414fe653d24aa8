package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kizuruki/historybowlreview/internal/db"
	"github.com/Kizuruki/historybowlreview/internal/graph"
	"github.com/Kizuruki/historybowlreview/internal/mastery"
)

// storageMessage is what the UI shows when the store cannot be reached.
const storageMessage = "unable to load/save progress"

// maxWrongAnswerBytes caps a single wrong-answer payload.
const maxWrongAnswerBytes = 64 << 10

// respondError maps store errors onto status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrStorageUnavailable):
		s.log.Warn("store unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": storageMessage})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
	case errors.Is(err, db.ErrInvalidPayload), errors.Is(err, mastery.ErrUnknownMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// requireNode loads the :id node, writing the error response if it fails.
func (s *Server) requireNode(c *gin.Context) (*db.Node, bool) {
	node, err := s.db.GetNode(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	return node, true
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

func (s *Server) listDivisions(c *gin.Context) {
	divisions, err := s.db.Divisions(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, divisions)
}

func (s *Server) divisionNodes(c *gin.Context) {
	nodes, err := s.db.NodesByDivision(c.Request.Context(), c.Param("division"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (s *Server) search(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 20)
	if !ok {
		return
	}
	nodes, err := s.db.SearchNodes(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (s *Server) getNode(c *gin.Context) {
	node, ok := s.requireNode(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, node)
}

func (s *Server) relatedNodes(c *gin.Context) {
	if _, ok := s.requireNode(c); !ok {
		return
	}
	nodes, err := s.db.RelatedNodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (s *Server) explore(c *gin.Context) {
	if _, ok := s.requireNode(c); !ok {
		return
	}
	cfg := db.DefaultExploreConfig()
	var ok bool
	if cfg.Budget, ok = intQuery(c, "budget", cfg.Budget); !ok {
		return
	}
	if cfg.MaxHops, ok = intQuery(c, "max_hops", cfg.MaxHops); !ok {
		return
	}
	if rel := c.Query("relations"); rel != "" {
		cfg.Relations = strings.Split(rel, ",")
	}
	if types := c.Query("types"); types != "" {
		cfg.Types = strings.Split(types, ",")
	}

	neighbors, err := s.db.Explore(c.Request.Context(), c.Param("id"), cfg)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, neighbors)
}

func (s *Server) nodeQuestions(c *gin.Context) {
	if _, ok := s.requireNode(c); !ok {
		return
	}
	ids, err := s.db.QuestionsForNode(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"node_id": c.Param("id"), "question_ids": ids})
}

// progressView adds derived fields the UI renders next to the stars.
type progressView struct {
	db.UserProgress
	Platinum     bool         `json:"platinum"`
	ExpectedMode mastery.Mode `json:"expected_mode"`
}

func (s *Server) view(p db.UserProgress) progressView {
	return progressView{
		UserProgress: p,
		Platinum:     mastery.IsPlatinum(p.PlatinumUntil, s.db.Now()),
		ExpectedMode: mastery.ExpectedMode(p.Stars),
	}
}

func (s *Server) getProgress(c *gin.Context) {
	if _, ok := s.requireNode(c); !ok {
		return
	}
	p, err := s.db.GetProgress(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, db.ErrNotFound):
		// Never practiced.
		c.JSON(http.StatusOK, s.view(db.UserProgress{NodeID: c.Param("id")}))
	case err != nil:
		s.respondError(c, err)
	default:
		c.JSON(http.StatusOK, s.view(*p))
	}
}

type progressRequest struct {
	Correct *bool  `json:"correct" binding:"required"`
	Mode    string `json:"mode" binding:"required"`
}

func (s *Server) updateProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, err := mastery.ParseMode(req.Mode)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if _, ok := s.requireNode(c); !ok {
		return
	}

	p, err := s.db.UpdateProgress(c.Request.Context(), c.Param("id"), *req.Correct, mode)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view(*p))
}

func (s *Server) masteryStats(c *gin.Context) {
	report, err := s.db.MasteryStats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) graphStats(c *gin.Context) {
	division := c.Query("division")
	snap, err := graph.SnapshotFromDB(c.Request.Context(), s.db, division)
	if err != nil {
		s.respondError(c, err)
		return
	}
	report := graph.Analyze(snap, graph.DefaultConfig())
	report.Division = db.NormalizeDivision(division)
	c.JSON(http.StatusOK, report)
}

func (s *Server) recordWrongAnswer(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWrongAnswerBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reading body"})
		return
	}
	if len(body) > maxWrongAnswerBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
		return
	}
	w, err := s.db.RecordWrongAnswer(c.Request.Context(), body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (s *Server) listWrongAnswers(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	answers, err := s.db.WrongAnswers(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}
