package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHandler_GetRun(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/reflow", chainedOrdersBody)
	require.Equal(t, http.StatusOK, rec.Code)

	listRec := doRequest(t, server, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, listRec.Code)

	var list ListRunsResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)

	runID := list.Runs[0].ID

	t.Run("returns the stored run", func(t *testing.T) {
		getRec := doRequest(t, server, http.MethodGet, "/runs/"+runID, "")
		require.Equal(t, http.StatusOK, getRec.Code)

		var run RunResponse
		require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &run))

		assert.Equal(t, runID, run.ID)
		assert.Equal(t, "UTC", run.Timezone)
		assert.False(t, run.AllowEarlierStart)
		require.Len(t, run.Results, 2)
		assert.Equal(t, "wo-b", run.Results[1].WorkOrderID)
		assert.Equal(t, "2024-01-15T12:00:00Z", run.Results[1].NewStartDate)
		assert.Equal(t, []string{"Work order WO-B delayed by 120 minutes"}, run.Warnings)
		assert.Equal(t, 2, run.Metadata.TotalOrders)

		requestedAt, err := time.Parse(time.RFC3339, run.RequestedAt)
		require.NoError(t, err)
		assert.False(t, requestedAt.IsZero())
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		getRec := doRequest(t, server, http.MethodGet, "/runs/"+uuid.NewString(), "")
		require.Equal(t, http.StatusNotFound, getRec.Code)

		var errBody ErrorResponse
		require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &errBody))
		assert.Equal(t, http.StatusNotFound, errBody.StatusCode)
		assert.Equal(t, "NotFoundError", errBody.Error)
		assert.Equal(t, "reflow run not found", errBody.Message)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		getRec := doRequest(t, server, http.MethodGet, "/runs/not-a-uuid", "")
		require.Equal(t, http.StatusBadRequest, getRec.Code)

		var errBody ErrorResponse
		require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &errBody))
		assert.Equal(t, "ValidationError", errBody.Error)
		assert.Equal(t, "runId", errBody.Field)
	})
}

// 2024-01-16 is a Tuesday; the order already fits its shift.
const singleOrderBody = `{
	"workOrders": [
		{"docId": "wo-solo", "data": {
			"workOrderNumber": "WO-SOLO",
			"workCenterId": "wc-1",
			"startDate": "2024-01-16T10:00:00Z",
			"endDate": "2024-01-16T11:00:00Z",
			"durationMinutes": 60
		}}
	],
	"workCenters": [
		{"docId": "wc-1", "data": {"name": "Mill 1", "shifts": ` + weekdayShifts + `}}
	]
}`

func TestRunHandler_ListRuns(t *testing.T) {
	server := newTestServer(t)

	first := doRequest(t, server, http.MethodPost, "/reflow", chainedOrdersBody)
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(t, server, http.MethodPost, "/reflow", singleOrderBody)
	require.Equal(t, http.StatusOK, second.Code)

	rec := doRequest(t, server, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list ListRunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 2)

	totals := []int{list.Runs[0].TotalOrders, list.Runs[1].TotalOrders}
	assert.ElementsMatch(t, []int{2, 1}, totals)

	limited := doRequest(t, server, http.MethodGet, "/runs?limit=1", "")
	require.Equal(t, http.StatusOK, limited.Code)

	var limitedList ListRunsResponse
	require.NoError(t, json.Unmarshal(limited.Body.Bytes(), &limitedList))
	assert.Len(t, limitedList.Runs, 1)
}

func TestServer_Health(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "healthy", result["status"])
}

func TestServer_Routes(t *testing.T) {
	server := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/health"},
		{http.MethodPost, "/reflow"},
		{http.MethodPost, "/reflow/validate"},
		{http.MethodGet, "/runs"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			rec := httptest.NewRecorder()

			server.mux.ServeHTTP(rec, req)

			// Should not return 404 (route not found)
			assert.NotEqual(t, http.StatusNotFound, rec.Code, "route %s %s should be registered", route.method, route.path)
		})
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		key        string
		defaultVal int
		want       int
	}{
		{
			name:       "parse valid int",
			query:      "limit=10",
			key:        "limit",
			defaultVal: 20,
			want:       10,
		},
		{
			name:       "missing param returns default",
			query:      "",
			key:        "limit",
			defaultVal: 20,
			want:       20,
		},
		{
			name:       "invalid int returns default",
			query:      "limit=abc",
			key:        "limit",
			defaultVal: 20,
			want:       20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got := parseIntParam(req, tt.key, tt.defaultVal)
			assert.Equal(t, tt.want, got)
		})
	}
}
