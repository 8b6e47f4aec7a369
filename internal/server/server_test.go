package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/coaldraw/pkg/cache"
	"github.com/matzehuels/coaldraw/pkg/observability"
	"github.com/matzehuels/coaldraw/pkg/pipeline"
	"github.com/matzehuels/coaldraw/pkg/quiz"
	"github.com/matzehuels/coaldraw/pkg/store"
)

const ancestryTree = `{"ancestors": [4, 4, 5, 6, 5, 6, -1], "branches": [1, 1, 2, 3, 1, 2, 0]}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	qf, err := quiz.Default()
	require.NoError(t, err)

	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(c, nil, logger)
	srv := New(Config{MaxBodyBytes: 4096}, runner, store.NewMemoryStore(), qf, logger)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeError(t *testing.T, data []byte) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var h healthResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "dev", h.Build.Version)
}

func TestRender(t *testing.T) {
	ts := newTestServer(t)
	body := `{"tree": ` + ancestryTree + `, "options": {"node_labels": true, "id_prefix": "fig"}}`

	resp, data := do(t, http.MethodPost, ts.URL+"/render", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.NotEmpty(t, resp.Header.Get("X-Tree-Hash"))
	assert.True(t, bytes.HasPrefix(data, []byte("<svg")))
	assert.Contains(t, string(data), `id="fig-node-0"`)

	resp, _ = do(t, http.MethodPost, ts.URL+"/render", body)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	resp, data = do(t, http.MethodPost, ts.URL+"/render?format=json", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.True(t, json.Valid(data))
}

func TestRenderErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		url    string
		body   string
		status int
		code   string
	}{
		{"empty body", "/render", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad json", "/render", `{"tree":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", "/render", `{"graph": {}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"no root", "/render", `{"tree": {"ancestors": [1, 0], "branches": [1, 1]}}`, http.StatusBadRequest, "INVALID_TREE"},
		{"bad format", "/render?format=gif", `{"tree": ` + ancestryTree + `}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad options", "/render", `{"tree": ` + ancestryTree + `, "options": {"width": -5}}`, http.StatusBadRequest, "INVALID_OPTIONS"},
		{"too large", "/render", `{"tree": {"ancestors": [` + strings.Repeat("0, ", 2000) + `-1]}}`, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, http.MethodPost, ts.URL+tt.url, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(data))
			assert.Equal(t, tt.code, string(decodeError(t, data).Code))
		})
	}
}

func TestTreeLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, data := do(t, http.MethodPost, ts.URL+"/trees", `{"name": "hands-on", "tree": `+ancestryTree+`}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var created struct{ ID string }
	require.NoError(t, json.Unmarshal(data, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "/trees/"+created.ID, resp.Header.Get("Location"))

	resp, data = do(t, http.MethodGet, ts.URL+"/trees", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []treeSummary
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "hands-on", list[0].Name)
	assert.Equal(t, 7, list[0].Nodes)

	resp, data = do(t, http.MethodGet, ts.URL+"/trees/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rec store.Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Len(t, rec.Tree.Nodes, 7)

	resp, data = do(t, http.MethodGet, ts.URL+"/trees/"+created.ID+"/render.svg?labels=true&width=300&mutation=3:A%3EG", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Contains(t, string(data), `width="300"`)
	assert.Contains(t, string(data), "A&gt;G")

	resp, data = do(t, http.MethodGet, ts.URL+"/trees/"+created.ID+"/render.dot", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, "text/vnd.graphviz", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(data), "digraph G {"))

	resp, _ = do(t, http.MethodDelete, ts.URL+"/trees/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, data = do(t, http.MethodGet, ts.URL+"/trees/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "TREE_NOT_FOUND", string(decodeError(t, data).Code))
}

func TestTreeErrors(t *testing.T) {
	ts := newTestServer(t)
	missing := "6f1d2b1e-0c4f-4c38-9a7e-0f6f2f1f9c11"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad id", http.MethodGet, "/trees/not-a-uuid", "", http.StatusBadRequest},
		{"missing", http.MethodGet, "/trees/" + missing, "", http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/trees/" + missing, "", http.StatusNotFound},
		{"render missing", http.MethodGet, "/trees/" + missing + "/render.svg", "", http.StatusNotFound},
		{"bad limit", http.MethodGet, "/trees?limit=zero", "", http.StatusBadRequest},
		{"bad name", http.MethodPost, "/trees", `{"name": "a\u0007", "tree": ` + ancestryTree + `}`, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, tt.method, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(data))
		})
	}
}

func TestOptionsFromQuery(t *testing.T) {
	q := map[string][]string{
		"width":    {"600"},
		"internal": {"true"},
		"jitter_y": {"15"},
		"mutation": {"2:x", "4:y"},
		"style":    {"workbook"},
	}
	o, err := optionsFromQuery(q)
	require.NoError(t, err)
	assert.Equal(t, 600.0, o.Width)
	assert.True(t, o.NodeLabels)
	assert.True(t, o.ShowInternal)
	assert.Equal(t, 15.0, o.JitterY)
	assert.Equal(t, map[int]string{2: "x", 4: "y"}, o.Mutations)
	assert.NotEmpty(t, o.CSS)

	for _, bad := range []map[string][]string{
		{"width": {"wide"}},
		{"labels": {"maybe"}},
		{"mutation": {"x"}},
	} {
		_, err := optionsFromQuery(bad)
		assert.Error(t, err, "query %v", bad)
	}
}

func TestFigures(t *testing.T) {
	ts := newTestServer(t)

	resp, data := do(t, http.MethodGet, ts.URL+"/figures", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `["coalescent_plot", "coalescent_tree"]`, string(data))

	resp, data = do(t, http.MethodGet, ts.URL+"/figures/coalescent_tree.svg?small=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(data), `class="x-lab-sml"`)
	assert.Contains(t, string(data), `id="coal-`)

	resp, data = do(t, http.MethodGet, ts.URL+"/figures/unknown.svg", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "FIGURE_NOT_FOUND", string(decodeError(t, data).Code))
}

func TestQuiz(t *testing.T) {
	ts := newTestServer(t)

	resp, data := do(t, http.MethodGet, ts.URL+"/quiz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `["CoalescentHandson", "HOWTO", "WrightFisher"]`, string(data))

	resp, data = do(t, http.MethodGet, ts.URL+"/quiz/HOWTO", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sec quiz.Section
	require.NoError(t, json.Unmarshal(data, &sec))
	require.NotEmpty(t, sec["Q2"])
	require.NotNil(t, sec["Q2"][0].Answers[0].Value)
	assert.Equal(t, float64(time.Now().Day()), *sec["Q2"][0].Answers[0].Value)

	resp, data = do(t, http.MethodGet, ts.URL+"/quiz/Nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "QUIZ_NOT_FOUND", string(decodeError(t, data).Code))
}

func TestQuizCheck(t *testing.T) {
	ts := newTestServer(t)
	url := ts.URL + "/quiz/CoalescentHandson/Q2/check"

	resp, data := do(t, http.MethodPost, url, `{"question": 0, "answer": "6"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var res quiz.Result
	require.NoError(t, json.Unmarshal(data, &res))
	assert.True(t, res.Correct)
	assert.Equal(t, "Correct!", res.Feedback)

	resp, data = do(t, http.MethodPost, url, `{"question": 0, "answer": "5"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &res))
	assert.False(t, res.Correct)

	resp, _ = do(t, http.MethodPost, url, `{"question": 3, "answer": "5"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/quiz/CoalescentHandson/Q9/check", `{"answer": "1"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu        sync.Mutex
	responses []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, status)
}

func TestHTTPHooks(t *testing.T) {
	h := &recordingHTTPHooks{}
	observability.SetHTTPHooks(h)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t)
	do(t, http.MethodGet, ts.URL+"/healthz", "")
	do(t, http.MethodGet, ts.URL+"/figures/unknown.svg", "")

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, h.responses)
}

func TestListenAndServeShutdown(t *testing.T) {
	qf, err := quiz.Default()
	require.NoError(t, err)
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := New(Config{Addr: "127.0.0.1:0"}, pipeline.NewRunner(nil, nil, logger), store.NewMemoryStore(), qf, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
