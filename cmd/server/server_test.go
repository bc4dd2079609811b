package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/himanishpuri/NeuroPLI/internal/testsignal"
	"github.com/himanishpuri/NeuroPLI/pkg/logger"
	"github.com/himanishpuri/NeuroPLI/pkg/models"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/predict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server  *Server
	handler http.Handler
	svc     neuropli.Service
	logPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	ranking, scaler, model, err := testsignal.WriteArtifacts(dir, predict.TopK)
	require.NoError(t, err)

	svc, err := neuropli.NewService(
		neuropli.WithDBPath(filepath.Join(dir, "catalogue.sqlite3")),
		neuropli.WithArtifacts(predict.Artifacts{Ranking: ranking, Scaler: scaler, Model: model}),
		neuropli.WithLogger(logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})),
	)
	require.NoError(t, err)

	logPath, err := testsignal.WriteLog(filepath.Join(dir, "session.csv"), testsignal.Generate(testsignal.ScenarioA()))
	require.NoError(t, err)

	srv := NewServer(svc, &ServerConfig{Port: 0, AllowedOrigins: []string{"*"}, Workers: 1})
	t.Cleanup(func() {
		srv.jobs.Close()
		svc.Close()
	})
	return &testEnv{server: srv, handler: srv.setupRoutes(), svc: svc, logPath: logPath}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestAnalysisJobLifecycle(t *testing.T) {
	env := newTestEnv(t)

	sess, err := env.svc.OpenSession("subject-01", env.logPath)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/analyses", CreateAnalysisRequest{SessionID: sess.ID})
	require.Equal(t, http.StatusAccepted, rec.Code)
	job := decode[JobDTO](t, rec)
	assert.NotEmpty(t, job.AnalysisID)

	deadline := time.Now().Add(60 * time.Second)
	for {
		rec = env.do(t, http.MethodGet, "/api/jobs/"+job.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		job = decode[JobDTO](t, rec)
		if job.Status == JobSucceeded || job.Status == JobFailed {
			break
		}
		require.True(t, time.Now().Before(deadline), "job did not finish")
		time.Sleep(20 * time.Millisecond)
	}
	require.Equal(t, JobSucceeded, job.Status, job.Error)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.Score)

	rec = env.do(t, http.MethodGet, "/api/analyses/"+job.AnalysisID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	a := decode[models.Analysis](t, rec)
	assert.Equal(t, models.AnalysisSucceeded, a.Status)
	assert.Equal(t, sess.ID, a.SessionID)

	rec = env.do(t, http.MethodGet, "/api/sessions/"+sess.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sr := decode[SessionResponse](t, rec)
	assert.Equal(t, sess.Path, sr.Path)
	assert.Len(t, sr.Analyses, 1)

	rec = env.do(t, http.MethodGet, "/api/analyses?session_id="+sess.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[ListAnalysesResponse](t, rec).Count)
}

func TestBadRequests(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyses", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/analyses", CreateAnalysisRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/analyses", CreateAnalysisRequest{SessionID: "0b9c3e0e-8f5e-4c9f-9d55-3c1f1d2a0001"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/analyses/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSessionsEmpty(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ListSessionsResponse](t, rec)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Sessions)
}
