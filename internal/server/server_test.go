package server

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/waterdash/internal/dataset"
	"github.com/jgoulah/waterdash/internal/logger"
)

const testCSV = `id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume
A,u1,d1,True,False,2024-03-01 08:00:00,5,50
B,u2,d2,False,True,2024-03-01 09:00:00,3,30
C,u1,d1,False,False,2024-03-02 09:00:00,7,57
`

func newTestServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "consumes.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	log := logger.NewWithWriters(logger.LevelError, io.Discard, io.Discard)
	srv := httptest.NewServer(New(dataset.NewCache(nil), path, log).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out), string(body))
	return resp.StatusCode
}

func TestOptions(t *testing.T) {
	srv := newTestServer(t, testCSV)

	var opts struct {
		Values   map[string][]string `json:"values"`
		MinEpoch float64             `json:"minEpoch"`
		MaxEpoch float64             `json:"maxEpoch"`
	}
	status := getJSON(t, srv.URL+"/api/options", &opts)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"u1", "u2"}, opts.Values["userId"])
	assert.Equal(t, []string{"true", "false"}, opts.Values["isAtHome"])
	assert.Equal(t, float64(1709280000), opts.MinEpoch)
	assert.Equal(t, float64(1709370000), opts.MaxEpoch)
}

type readingsBody struct {
	Count    int `json:"count"`
	Readings []struct {
		ID string `json:"id"`
	} `json:"readings"`
	Summary struct {
		ConsumeSum float64 `json:"consumeSum"`
	} `json:"summary"`
	Error string `json:"error"`
}

func TestReadings_Filtered(t *testing.T) {
	srv := newTestServer(t, testCSV)

	var body readingsBody
	status := getJSON(t, srv.URL+"/api/readings?userId=u1&end=1709280000", &body)
	assert.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "A", body.Readings[0].ID)
	assert.Equal(t, 5.0, body.Summary.ConsumeSum)
}

func TestReadings_Unfiltered(t *testing.T) {
	srv := newTestServer(t, testCSV)

	var body readingsBody
	getJSON(t, srv.URL+"/api/readings", &body)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, 15.0, body.Summary.ConsumeSum)
}

func TestReadings_SelectAllOverridesSelection(t *testing.T) {
	srv := newTestServer(t, testCSV)

	var body readingsBody
	getJSON(t, srv.URL+"/api/readings?userId=u2&all=userId", &body)
	assert.Equal(t, 3, body.Count)
}

func TestReadings_TypeErrorIsBadRequest(t *testing.T) {
	srv := newTestServer(t, testCSV)

	var body readingsBody
	status := getJSON(t, srv.URL+"/api/readings?isAtHome=sometimes", &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Error, "isAtHome")
}

func TestReadings_LoadErrorIsVisible(t *testing.T) {
	srv := newTestServer(t, "id,userId\nA,u1\n")

	var body readingsBody
	status := getJSON(t, srv.URL+"/api/readings", &body)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body.Error, "missing column")
}

func TestCharts_JSON(t *testing.T) {
	srv := newTestServer(t, testCSV)

	var body struct {
		Charts struct {
			Rows        int `json:"rows"`
			TotalByUser []struct {
				Label string  `json:"label"`
				Value float64 `json:"value"`
			} `json:"totalByUser"`
		} `json:"charts"`
	}
	getJSON(t, srv.URL+"/api/charts", &body)
	assert.Equal(t, 3, body.Charts.Rows)
	require.Len(t, body.Charts.TotalByUser, 2)
	assert.Equal(t, "u1", body.Charts.TotalByUser[0].Label)
	assert.Equal(t, 107.0, body.Charts.TotalByUser[0].Value)
}

func TestChartImage(t *testing.T) {
	srv := newTestServer(t, testCSV)

	resp, err := http.Get(srv.URL + "/api/charts/total-by-user.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestChartImage_Errors(t *testing.T) {
	srv := newTestServer(t, testCSV)

	resp, err := http.Get(srv.URL + "/api/charts/histogram.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// no rows left to draw
	resp, err = http.Get(srv.URL + "/api/charts/consume-scatter.svg?userId=nobody")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPage(t *testing.T) {
	srv := newTestServer(t, testCSV)

	resp, err := http.Get(srv.URL + "/?deviceId=d1")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page := string(body)
	assert.Contains(t, page, "Showing 2 rows")
	assert.Contains(t, page, "Select All Device ID")
	assert.Contains(t, page, `<option value="d1" selected>`)
	assert.Contains(t, page, "/api/charts/consume-over-time.png?deviceId=d1")
}

func TestPage_BadSpecShowsMessage(t *testing.T) {
	srv := newTestServer(t, testCSV)

	resp, err := http.Get(srv.URL + "/?start=someday")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), `class="error"`)
	assert.Contains(t, string(body), "Showing 3 rows")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testCSV)

	var body struct {
		Status string `json:"status"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/healthz", &body))
	assert.Equal(t, "ok", body.Status)
}

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	var errOut bytes.Buffer
	log := logger.NewWithWriters(logger.LevelError, io.Discard, &errOut)
	s := New(dataset.NewCache(nil), "unused.csv", log)

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, map[string]float64{"consumeSum": math.NaN()})

	assert.Contains(t, errOut.String(), "Encoding response")
}

func TestPage_RangeInputsAcceptFractionalEpochs(t *testing.T) {
	srv := newTestServer(t, `id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume
A,u1,d1,true,false,2024-03-01T08:00:00.123456789Z,1,10
B,u1,d1,true,false,2024-03-01T09:00:00.987654321Z,2,12
`)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	page := string(body)
	assert.Contains(t, page, `step="any"`)
	assert.NotContains(t, page, `step="1"`)
	assert.Contains(t, page, "Showing 2 rows")
}

func TestReadings_OptionsBoundsKeepNanosecondEdgeRows(t *testing.T) {
	srv := newTestServer(t, `id,userId,deviceId,isAtHome,isAnomalous,time,consume,totalConsume
A,u1,d1,true,false,2024-03-01T08:00:00.123456789Z,1,10
B,u1,d1,true,false,2024-03-01T09:00:00.987654321Z,2,12
`)

	var opts struct {
		MinEpoch float64 `json:"minEpoch"`
		MaxEpoch float64 `json:"maxEpoch"`
	}
	getJSON(t, srv.URL+"/api/options", &opts)

	var body readingsBody
	getJSON(t, srv.URL+"/api/readings?start="+formatEpoch(opts.MinEpoch)+"&end="+formatEpoch(opts.MaxEpoch), &body)
	assert.Equal(t, 2, body.Count)
}

func TestWebsocketSession(t *testing.T) {
	srv := newTestServer(t, testCSV)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	type reply struct {
		Session string `json:"session"`
		Seq     int    `json:"seq"`
		Summary *struct {
			Rows int `json:"rows"`
		} `json:"summary"`
		Error string `json:"error"`
	}
	exchange := func(msg string) reply {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var r reply
		require.NoError(t, json.Unmarshal(data, &r))
		return r
	}

	first := exchange(`{"userId": ["u1"]}`)
	require.NotNil(t, first.Summary)
	assert.Equal(t, 2, first.Summary.Rows)
	assert.Equal(t, 1, first.Seq)
	assert.NotEmpty(t, first.Session)

	second := exchange(`{}`)
	require.NotNil(t, second.Summary)
	assert.Equal(t, 3, second.Summary.Rows)
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, first.Session, second.Session)

	bad := exchange(`{"isAnomalous": ["nope"]}`)
	assert.Nil(t, bad.Summary)
	assert.Contains(t, bad.Error, "isAnomalous")

	garbled := exchange(`not json`)
	assert.Contains(t, garbled.Error, "invalid widget state")
}
