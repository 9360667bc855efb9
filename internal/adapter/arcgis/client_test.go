package arcgis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jongeeting/development-digest/internal/domain"
	"github.com/jongeeting/development-digest/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(permitsURL, appealsURL string) *Client {
	return &Client{
		permitsURL: permitsURL,
		appealsURL: appealsURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func featureServer(t *testing.T, attrs []map[string]any, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		features := make([]map[string]any, len(attrs))
		for i, a := range attrs {
			features[i] = map[string]any{"attributes": a}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"features": features}))
	}))
}

func TestFetchPermits(t *testing.T) {
	issued := time.Date(2024, time.March, 4, 14, 30, 0, 0, time.UTC)
	srv := featureServer(t, []map[string]any{
		{
			"permitnumber":        "RES-2024-001",
			"address":             "123 N 2nd St",
			"council_district":    "1",
			"typeofwork":          "New Construction",
			"numberofunits":       float64(8),
			"contractorname":      "Keystone Builders",
			"approvedscopeofwork": "erect 8 unit building",
			"permitissuedate":     float64(issued.UnixMilli()),
			"geocode_x":           -75.141,
			"geocode_y":           39.953,
		},
		{
			"permitnumber":        "CP-2024-002",
			"typeofwork":          "Change of Use",
			"approvedscopeofwork": "convert warehouse to residential apartments",
			"permitissuedate":     float64(issued.UnixMilli()),
		},
		{
			"permitnumber":        "CP-2024-003",
			"typeofwork":          "Change of Use",
			"approvedscopeofwork": "convert retail to office",
			"permitissuedate":     float64(issued.UnixMilli()),
		},
	}, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("f"))
		assert.Equal(t, "false", q.Get("returnGeometry"))
		assert.Contains(t, q.Get("where"), "New Construction")
		assert.Contains(t, q.Get("where"), "TIMESTAMP '2024-03-01 00:00:00'")
	})
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	since := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	records, err := c.FetchPermits(context.Background(), since)
	require.NoError(t, err)

	require.Len(t, records, 2, "office conversion must be filtered out")

	rec := records[0]
	assert.Equal(t, domain.KindPermit, rec.Kind)
	assert.Equal(t, "RES-2024-001", rec.ID)
	assert.Equal(t, "1", rec.CouncilDistrict)
	assert.Equal(t, 8, rec.NumberOfUnits)
	assert.Equal(t, "Keystone Builders", rec.Developer)
	assert.Equal(t, "2024-03-04T14:30:00", rec.Timestamp, "ms epoch converted to ISO")
	assert.Equal(t, -75.141, rec.Lon)
	assert.Equal(t, 39.953, rec.Lat)
	assert.True(t, rec.HasCoordinates())

	assert.Equal(t, "CP-2024-002", records[1].ID)
	assert.False(t, records[1].HasCoordinates())
}

func TestFetchAppeals(t *testing.T) {
	created := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)
	srv := featureServer(t, []map[string]any{
		{
			"appealnumber":     "APL-2024-010",
			"address":          "1200 Market St",
			"council_district": "5",
			"applicationtype":  "ZBA Appeal",
			"appealgrounds":    "variance for a 40 unit multi-family building",
			"primaryappellant": "Market Street LP",
			"createddate":      float64(created.UnixMilli()),
		},
	}, func(r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("where"), "ZBA")
	})
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	records, err := c.FetchAppeals(context.Background(), created.AddDate(0, 0, -7))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, domain.KindAppeal, records[0].Kind)
	assert.Equal(t, "APL-2024-010", records[0].ID)
	assert.Equal(t, "Market Street LP", records[0].Developer)
	assert.Equal(t, "2024-03-05T09:00:00", records[0].Timestamp)
}

func TestQuery_ServerErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "Invalid query parameters"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	_, err := c.FetchPermits(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid query parameters")
}

func TestQuery_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	_, err := c.FetchAppeals(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestMostRecentPermit(t *testing.T) {
	newest := time.Date(2024, time.March, 8, 16, 45, 0, 0, time.UTC)
	srv := featureServer(t, []map[string]any{
		{"permitissuedate": float64(newest.UnixMilli())},
	}, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("resultRecordCount"))
		assert.Equal(t, "permitissuedate DESC", q.Get("orderByFields"))
	})
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	got, err := c.MostRecentPermit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, newest, got)
}

func TestMostRecentAppeal_NoRows(t *testing.T) {
	srv := featureServer(t, nil, nil)
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	_, err := c.MostRecentAppeal(context.Background())
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"iso", "2024-03-04T14:30:00", time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC), true},
		{"rfc3339", "2024-03-04T14:30:00Z", time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC), true},
		{"space separated", "2024-03-04 14:30:00", time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC), true},
		{"date only", "2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"garbage", "yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.input)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
