package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/Kizuruki/historybowlreview/internal/db"
	"github.com/Kizuruki/historybowlreview/internal/mastery"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

var fixedNow = time.UnixMilli(1_700_000_000_000)

func setupRouter(t *testing.T) (*gin.Engine, *db.DB) {
	t.Helper()
	ctx := context.Background()
	d, err := db.OpenDB(ctx, filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	d.Now = func() time.Time { return fixedNow }
	t.Cleanup(func() { d.Close() })

	for _, n := range []db.Node{
		{ID: "reconstruction_acts", Name: "Reconstruction Acts", Division: "us_history", Subdivision: "government", Type: db.TypeEvent},
		{ID: "radical_republicans", Name: "Radical Republicans", Division: "us_history", Subdivision: "government", Type: db.TypeConcept},
		{ID: "waterloo", Name: "Battle of Waterloo", Division: "european_history", Type: db.TypeEvent},
	} {
		_, err := d.InsertNode(ctx, n)
		require.NoError(t, err)
	}
	_, err = d.AddRelationship(ctx, "reconstruction_acts", "radical_republicans", db.RelEnactedBy)
	require.NoError(t, err)
	_, err = d.LinkQuestion(ctx, "reconstruction_acts", "q1")
	require.NoError(t, err)

	return NewRouter(d, nil, false), d
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupRouter(t)
	w := do(router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestDivisions(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, "GET", "/api/divisions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []db.DivisionCount{
		{Division: "european_history", Nodes: 1},
		{Division: "us_history", Nodes: 2},
	}, decode[[]db.DivisionCount](t, w))

	w = do(router, "GET", "/api/divisions/US%20History/nodes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]db.Node](t, w), 2)

	w = do(router, "GET", "/api/divisions/art_history/nodes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestNodeEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, "GET", "/api/nodes/reconstruction_acts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Reconstruction Acts", decode[db.Node](t, w).Name)

	w = do(router, "GET", "/api/nodes/radical_republicans/related", "")
	require.Equal(t, http.StatusOK, w.Code)
	related := decode[[]db.Node](t, w)
	require.Len(t, related, 1)
	assert.Equal(t, "reconstruction_acts", related[0].ID)

	w = do(router, "GET", "/api/nodes/reconstruction_acts/questions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"node_id":"reconstruction_acts","question_ids":["q1"]}`, w.Body.String())

	w = do(router, "GET", "/api/nodes/reconstruction_acts/explore?budget=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	neighbors := decode[[]db.Neighbor](t, w)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "radical_republicans", neighbors[0].Node.ID)

	w = do(router, "GET", "/api/search?q=radical", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]db.Node](t, w), 1)
}

func TestNodeEndpoints_NotFound(t *testing.T) {
	router, _ := setupRouter(t)
	for _, path := range []string{
		"/api/nodes/nope",
		"/api/nodes/nope/related",
		"/api/nodes/nope/questions",
		"/api/nodes/nope/progress",
		"/api/nodes/nope/explore",
	} {
		w := do(router, "GET", path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	w := do(router, "POST", "/api/nodes/nope/progress", `{"correct": true, "mode": "initial"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type progressResponse struct {
	db.UserProgress
	Platinum     bool         `json:"platinum"`
	ExpectedMode mastery.Mode `json:"expected_mode"`
}

func TestProgress_Ladder(t *testing.T) {
	router, _ := setupRouter(t)
	path := "/api/nodes/reconstruction_acts/progress"

	w := do(router, "GET", path, "")
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[progressResponse](t, w)
	assert.Equal(t, 0, p.Stars)
	assert.Equal(t, mastery.ModeInitial, p.ExpectedMode)

	for _, mode := range []string{"initial", "Practice", "advanced"} {
		w = do(router, "POST", path, `{"correct": true, "mode": "`+mode+`"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	p = decode[progressResponse](t, w)
	assert.Equal(t, 3, p.Stars)
	assert.True(t, p.Platinum)
	require.NotNil(t, p.PlatinumUntil)
	assert.Equal(t, mastery.PlatinumUntil(fixedNow).UnixMilli(), *p.PlatinumUntil)

	w = do(router, "POST", path, `{"correct": false, "mode": "advanced"}`)
	require.Equal(t, http.StatusOK, w.Code)
	p = decode[progressResponse](t, w)
	assert.Equal(t, 3, p.Stars)
	assert.Equal(t, 3, p.TimesCorrect)
	assert.Equal(t, 1, p.TimesWrong)
}

func TestProgress_BadRequests(t *testing.T) {
	router, _ := setupRouter(t)
	path := "/api/nodes/reconstruction_acts/progress"

	for _, body := range []string{
		`{}`,
		`{"mode": "initial"}`,
		`{"correct": true}`,
		`{"correct": true, "mode": "expert"}`,
		`not json`,
	} {
		w := do(router, "POST", path, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestWrongAnswers(t *testing.T) {
	router, _ := setupRouter(t)

	for _, q := range []string{"q1", "q2", "q3"} {
		w := do(router, "POST", "/api/wrong-answers", `{"question_id": "`+q+`", "given": "Lincoln"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(router, "POST", "/api/wrong-answers", `{broken`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, "POST", "/api/wrong-answers", `{"blob": "`+strings.Repeat("x", maxWrongAnswerBytes)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(router, "GET", "/api/wrong-answers?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	answers := decode[[]db.WrongAnswer](t, w)
	require.Len(t, answers, 2)
	assert.JSONEq(t, `{"question_id": "q3", "given": "Lincoln"}`, string(answers[0].Payload))

	w = do(router, "GET", "/api/wrong-answers?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, "POST", "/api/nodes/waterloo/progress", `{"correct": true, "mode": "initial"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, "GET", "/api/stats/mastery", "")
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[db.MasteryReport](t, w)
	assert.Equal(t, 3, report.Total.Nodes)
	assert.Equal(t, 1, report.Total.Practiced)
	assert.Equal(t, 1, report.Total.Stars[1])

	w = do(router, "GET", "/api/stats/graph?division=US%20History", "")
	require.Equal(t, http.StatusOK, w.Code)
	var graphReport struct {
		Division string `json:"division"`
		Topology struct {
			TotalNodes int `json:"total_nodes"`
			TotalEdges int `json:"total_edges"`
		} `json:"topology"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &graphReport))
	assert.Equal(t, "us_history", graphReport.Division)
	assert.Equal(t, 2, graphReport.Topology.TotalNodes)
	assert.Equal(t, 1, graphReport.Topology.TotalEdges)
}

func TestStoreUnavailable(t *testing.T) {
	router, d := setupRouter(t)
	require.NoError(t, d.Close())

	for _, tc := range []struct{ method, path, body string }{
		{"GET", "/api/divisions", ""},
		{"GET", "/api/nodes/reconstruction_acts/progress", ""},
		{"POST", "/api/nodes/reconstruction_acts/progress", `{"correct": true, "mode": "initial"}`},
		{"GET", "/api/stats/mastery", ""},
		{"POST", "/api/wrong-answers", `{"q": 1}`},
	} {
		w := do(router, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, tc.path)
		assert.JSONEq(t, `{"error":"unable to load/save progress"}`, w.Body.String(), tc.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupRouter(t)
	w := do(router, "OPTIONS", "/api/nodes/reconstruction_acts/progress", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	router, _ := setupRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", router, zap.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
