package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/internal/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.MaxGridSize = 16
	cfg.Workers = 2
	if mutate != nil {
		mutate(&cfg)
	}
	s := New(cfg, slog.New(slog.DiscardHandler), prometheus.NewRegistry())
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	res, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

func getJSON(t *testing.T, url string, dst any) int {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if dst != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(dst))
	}
	return res.StatusCode
}

func TestHandlePath(t *testing.T) {
	s, ts := newTestServer(t, nil)

	res, data := postJSON(t, ts.URL+"/v1/path", pathRequest{
		Grid:  [][]int{{0, 0, 0}, {1, 1, 0}, {0, 0, 0}},
		Start: gridastar.Cell{Row: 0, Col: 0},
		Goal:  gridastar.Cell{Row: 2, Col: 0},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))

	var route gridastar.Route
	require.NoError(t, json.Unmarshal(data, &route))
	assert.True(t, route.Found)
	assert.Equal(t, 48, route.Cost)
	assert.Equal(t, []gridastar.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 1}, {Row: 2, Col: 0}}, route.Path)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.queries.WithLabelValues("found")))

	res, data = postJSON(t, ts.URL+"/v1/path", pathRequest{
		Grid:  [][]int{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
		Start: gridastar.Cell{Row: 0, Col: 0},
		Goal:  gridastar.Cell{Row: 0, Col: 2},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"start":{"row":0,"col":0},"goal":{"row":0,"col":2},"path":[],"cost":0,"expanded":3,"found":false}`, string(data))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.queries.WithLabelValues("unreachable")))
}

func TestHandlePathRejects(t *testing.T) {
	s, ts := newTestServer(t, func(cfg *config.Config) { cfg.MaxExpansions = 2 })

	big := make([][]int, 17)
	for i := range big {
		big[i] = make([]int, 17)
	}
	open := [][]int{{0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}}

	for _, tc := range []struct {
		name   string
		body   any
		status int
	}{
		{"malformed json", `{"grid":`, http.StatusBadRequest},
		{"unknown field", `{"grid":[[0]],"bogus":1}`, http.StatusBadRequest},
		{"not square", pathRequest{Grid: [][]int{{0, 0}}}, http.StatusBadRequest},
		{"too big", pathRequest{Grid: big}, http.StatusBadRequest},
		{"goal outside", pathRequest{Grid: open, Goal: gridastar.Cell{Row: 4}}, http.StatusBadRequest},
		{"start blocked", pathRequest{Grid: [][]int{{1, 0}, {0, 0}}, Goal: gridastar.Cell{Row: 1, Col: 1}}, http.StatusBadRequest},
		{"expansion limit", pathRequest{Grid: open, Goal: gridastar.Cell{Row: 3, Col: 0}}, http.StatusUnprocessableEntity},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, data := postJSON(t, ts.URL+"/v1/path", tc.body)
			assert.Equal(t, tc.status, res.StatusCode, string(data))
			assert.Contains(t, string(data), `"error"`)
		})
	}
	assert.Equal(t, 6.0, testutil.ToFloat64(s.metrics.queries.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.queries.WithLabelValues("error")))
}

func TestHandlePaths(t *testing.T) {
	_, ts := newTestServer(t, nil)

	res, data := postJSON(t, ts.URL+"/v1/paths", pathsRequest{
		Grid: [][]int{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
		Queries: []gridastar.Query{
			{Start: gridastar.Cell{Row: 0, Col: 0}, Goal: gridastar.Cell{Row: 2, Col: 2}},
			{Start: gridastar.Cell{Row: 2, Col: 0}, Goal: gridastar.Cell{Row: 2, Col: 2}},
		},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))

	var out pathsResponse
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Routes, 2)
	assert.Equal(t, 28, out.Routes[0].Cost)
	assert.Equal(t, 20, out.Routes[1].Cost)

	res, _ = postJSON(t, ts.URL+"/v1/paths", pathsRequest{
		Grid:    [][]int{{0}},
		Queries: []gridastar.Query{{Goal: gridastar.Cell{Row: 1}}},
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSessionSteps(t *testing.T) {
	s, ts := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/next", nil))

	var initRes struct {
		Size  int    `json:"size"`
		Start [2]int `json:"start"`
		Goal  [2]int `json:"goal"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/init?size=10&seed=3&clusters=0", &initRes))
	assert.Equal(t, 10, initRes.Size)
	assert.NotEqual(t, initRes.Start, initRes.Goal)

	var snap snapshot
	for i := 0; i < 200 && !snap.Done; i++ {
		require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/next", &snap))
	}
	require.True(t, snap.Done)
	require.True(t, snap.Found)
	assert.Empty(t, snap.Walls)
	assert.Equal(t, initRes.Start, snap.Path[0])
	assert.Equal(t, initRes.Goal, snap.Path[len(snap.Path)-1])
	assert.Equal(t, float64(snap.Step), testutil.ToFloat64(s.metrics.steps))

	var again snapshot
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/next", &again))
	assert.Equal(t, snap, again)
}

func TestSessionSeedIsReproducible(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var first, second snapshot
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/init?size=12&seed=99&density=0.5", nil))
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/next", &first))
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/init?size=12&seed=99&density=0.5", nil))
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/next", &second))
	assert.Equal(t, first, second)
}

func TestStream(t *testing.T) {
	_, ts := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/init?size=8&seed=5&clusters=0", nil))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?interval=1ms"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var last snapshot
	for {
		var snap snapshot
		err := conn.ReadJSON(&snap)
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected %v", err)
			break
		}
		assert.Greater(t, snap.Step, last.Step)
		last = snap
	}
	assert.True(t, last.Done)
	assert.True(t, last.Found)
}

func TestIndexAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, nil)

	res, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "<canvas")

	postJSON(t, ts.URL+"/v1/path", pathRequest{Grid: [][]int{{0}}})
	res, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	res.Body.Close()
	assert.Contains(t, string(body), `gridastar_path_queries_total{result="found"} 1`)
}

func TestRandomWallsKeepsEndpointsFree(t *testing.T) {
	keep := []gridastar.Cell{{Row: 0, Col: 0}, {Row: 4, Col: 4}}
	walls := randomWalls(rand.New(rand.NewSource(1)), 5, 10, 50, 1, keep...)
	require.Len(t, walls, 5)
	for _, k := range keep {
		assert.False(t, walls[k.Row][k.Col])
	}
}
