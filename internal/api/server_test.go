package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/texchunk/internal/config"
	"github.com/dgallion1/texchunk/internal/doctree"
	"github.com/dgallion1/texchunk/internal/extract"
	"github.com/dgallion1/texchunk/internal/parser"
	"github.com/dgallion1/texchunk/internal/pipeline"
	"github.com/dgallion1/texchunk/internal/registry"
)

const (
	testKey = "secret"

	resume = "\\documentclass{article}\n" +
		"\\begin{document}\n" +
		"\\section{Experience}\n" +
		"\\begin{itemize}\n" +
		"\\item Led a team\n" +
		"\\item Shipped it\n" +
		"\\end{itemize}\n" +
		"\\section{Skills}\n" +
		"Go, SQL\n" +
		"\\end{document}\n"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type partitionBody struct {
	Active bool             `json:"active"`
	Chunks []*doctree.Chunk `json:"chunks"`
}

type testEnv struct {
	srv     *httptest.Server
	session *registry.Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{
		APIKey:             testKey,
		WorkerCount:        1,
		MaxQueueSize:       4,
		MaxUploadBytes:     1 << 20,
		JobTTL:             time.Hour,
		ExtractStatsWindow: time.Minute,
	}
	stats := extract.NewExtractStats(cfg.ExtractStatsWindow)
	session := registry.NewSession()
	orch := pipeline.NewOrchestrator(cfg, pipeline.NewImporter(extract.Options{}, stats, nil), session, nil)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	srv := httptest.NewServer(NewServer(orch, session, stats, discardLogger(), cfg))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, session: session}
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	require.NoError(t, e.session.ReplaceAll(parser.ParseStructural(resume)))
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	return e.do(t, method, path, strings.NewReader(body), "application/json")
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func upload(t *testing.T, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/api/document")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "missing authorization", decode[map[string]string](t, resp)["error"])

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/document", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestImportAndPoll(t *testing.T) {
	env := newTestEnv(t)

	body, ct := upload(t, "../../cv.tex", resume)
	resp := env.do(t, http.MethodPost, "/api/import", body, ct)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	queued := decode[map[string]any](t, resp)
	assert.Equal(t, "structural", queued["route"])
	pollURL, _ := queued["poll_url"].(string)
	require.NotEmpty(t, pollURL)

	var snap pipeline.JobSnapshot
	require.Eventually(t, func() bool {
		r := env.do(t, http.MethodGet, pollURL, nil, "")
		snap = decode[pipeline.JobSnapshot](t, r)
		return snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, pipeline.StatusCompleted, snap.Status, snap.Result.Errors)
	assert.Equal(t, "cv.tex", snap.Filename)
	assert.Equal(t, 2, snap.Result.Sections)
	assert.Equal(t, 2, snap.Result.Items)

	src := env.do(t, http.MethodGet, "/api/document/source", nil, "")
	assert.Equal(t, resume, readBody(t, src))
}

func TestPreviewLeavesSessionUntouched(t *testing.T) {
	env := newTestEnv(t)

	body, ct := upload(t, "cv.tex", resume)
	resp := env.do(t, http.MethodPost, "/api/import/preview", body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decode[struct {
		Route    string           `json:"route"`
		Document doctree.Document `json:"document"`
	}](t, resp)
	assert.Equal(t, "structural", preview.Route)
	assert.Equal(t, parser.ParseStructural(resume).Chunks, preview.Document.Chunks)

	assert.Empty(t, env.session.Document().Chunks)
}

func TestPreviewReportsEmptyExtraction(t *testing.T) {
	env := newTestEnv(t)

	body, ct := upload(t, "cv.txt", "  \n")
	resp := env.do(t, http.MethodPost, "/api/import/preview", body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], "no text extracted")
}

func TestImportRejectsUnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)
	body, ct := upload(t, "cv.odt", "data")
	resp := env.do(t, http.MethodPost, "/api/import", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], "unsupported format")
}

func TestImportStatusUnknownJob(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/import/nope/status", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocumentStartsEmpty(t *testing.T) {
	env := newTestEnv(t)
	doc := decode[doctree.Document](t, env.do(t, http.MethodGet, "/api/document", nil, ""))
	assert.Equal(t, doctree.DefaultDocumentClass, doc.DocumentClass)
	assert.Empty(t, doc.Chunks)
}

func TestPartitions(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	active := decode[partitionBody](t, env.do(t, http.MethodGet, "/api/chunks", nil, ""))
	assert.True(t, active.Active)
	assert.Len(t, active.Chunks, 4)

	resp := env.do(t, http.MethodGet, "/api/chunks?active=maybe", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestToggleHidesItemFromSource(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	resp := env.doJSON(t, http.MethodPost, "/api/chunks/section-0-item-0/active", `{"is_active":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := decode[doctree.Chunk](t, resp)
	assert.False(t, c.Active)

	standby := decode[partitionBody](t, env.do(t, http.MethodGet, "/api/chunks?active=false", nil, ""))
	assert.False(t, standby.Active)
	require.Len(t, standby.Chunks, 1)
	assert.Equal(t, "section-0-item-0", standby.Chunks[0].ID)

	src := readBody(t, env.do(t, http.MethodGet, "/api/document/source", nil, ""))
	assert.NotContains(t, src, "Led a team")
	assert.Contains(t, src, "\\item Shipped it")
}

func TestReorderSections(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	resp := env.doJSON(t, http.MethodPost, "/api/chunks/section-1/reorder", `{"order":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	src := readBody(t, env.do(t, http.MethodGet, "/api/document/source", nil, ""))
	assert.Less(t, strings.Index(src, "\\section{Skills}"), strings.Index(src, "\\section{Experience}"))

	resp = env.doJSON(t, http.MethodPost, "/api/chunks/section-1/reorder", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPost, "/api/chunks/missing/reorder", `{"order":0}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateContent(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	resp := env.doJSON(t, http.MethodPut, "/api/chunks/section-1/content", `{"content":"\\section{Skills}\nGo, Rust\n"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := decode[doctree.Chunk](t, resp)
	assert.Equal(t, "\\section{Skills}\nGo, Rust\n", c.RawSource)

	src := readBody(t, env.do(t, http.MethodGet, "/api/document/source", nil, ""))
	assert.Contains(t, src, "Go, Rust")
	assert.NotContains(t, src, "Go, SQL")

	resp = env.doJSON(t, http.MethodPut, "/api/chunks/section-1/content", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateGetDeleteChunk(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	resp := env.doJSON(t, http.MethodPost, "/api/chunks",
		`{"type":"item","title":"Mentored","content":"\\item Mentored interns","parent_id":"section-0","is_active":true}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[doctree.Chunk](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 4, created.Order)

	got := decode[doctree.Chunk](t, env.do(t, http.MethodGet, "/api/chunks/"+created.ID, nil, ""))
	assert.Equal(t, created.ID, got.ID)

	resp = env.do(t, http.MethodDelete, "/api/chunks/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/chunks/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateChunkValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/chunks", `{"type":"paragraph","title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPost, "/api/chunks", `{"type":"section","title":"x","parent_id":"section-0"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExtractStats(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/stats/extract", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "1m0s", body["window"])
	assert.Contains(t, body, "stats")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cv.tex", "cv.tex"},
		{"../../etc/cv.tex", "cv.tex"},
		{`C:\Users\me\cv.pdf`, "cv.pdf"},
		{"a..b.tex", "a_b.tex"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}
