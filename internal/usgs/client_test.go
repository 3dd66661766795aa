package usgs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leesFerryPayload = `{
  "value": {
    "timeSeries": [
      {
        "sourceInfo": {
          "siteName": "COLORADO RIVER AT LEES FERRY, AZ",
          "siteCode": [{"value": "09380000"}]
        },
        "variable": {"variableName": "Streamflow, ft&#179;/s"},
        "values": [
          {
            "value": [
              {"value": "9500", "dateTime": "2021-03-01T00:00:00.000"},
              {"value": "9720", "dateTime": "2021-03-02T00:00:00.000"},
              {"value": "10200", "dateTime": "2021-03-03T00:00:00.000"}
            ]
          }
        ]
      }
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, slog.Default())
}

func TestFetchDailyReadings_SingleStation(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, leesFerryPayload)
	})

	bundle, err := c.FetchDailyReadings(context.Background(), []int64{9380000})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "site=09380000")
	assert.NotContains(t, gotQuery, "sites=")
	assert.Contains(t, gotQuery, "parameterCd=00060")
	assert.Contains(t, gotQuery, "period=P30D")
	assert.Contains(t, gotQuery, "format=json")

	require.Len(t, bundle.Series, 1)
	s := bundle.Series[0]
	assert.Equal(t, int64(9380000), s.StationID)
	assert.Equal(t, "COLORADO RIVER AT LEES FERRY, AZ", s.SiteName)
	assert.True(t, s.IsStreamflow())
	require.Len(t, s.Readings, 3)
	assert.Equal(t, 9500.0, s.Readings[0].Value)
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), s.Readings[0].Time)
	assert.Equal(t, 10200.0, s.Readings[2].Value)
}

func TestFetchDailyReadings_MultiStationUsesPluralForm(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"value":{"timeSeries":[]}}`)
	})

	_, err := c.FetchDailyReadings(context.Background(), []int64{9380000, 9402500})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "sites=09380000%2C09402500")
	assert.NotContains(t, gotQuery, "site=0")
}

func TestFetchDailyReadings_NoIDs(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, slog.Default())
	_, err := c.FetchDailyReadings(context.Background(), nil)
	require.Error(t, err)
}

func TestFetchDailyReadings_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.FetchDailyReadings(context.Background(), []int64{9380000})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchDailyReadings_MalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": "not an object`)
	})

	_, err := c.FetchDailyReadings(context.Background(), []int64{9380000})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchDailyReadings_SkipsBadDataPoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
  "value": {
    "timeSeries": [
      {
        "sourceInfo": {"siteName": "TEST RIVER", "siteCode": [{"value": "01646500"}]},
        "variable": {"variableName": "Streamflow, ft&#179;/s"},
        "values": [
          {
            "value": [
              {"value": "Ice", "dateTime": "2021-03-01T00:00:00.000"},
              {"value": "123.5", "dateTime": "2021-03-02T00:00:00.000"}
            ]
          }
        ]
      }
    ]
  }
}`)
	})

	bundle, err := c.FetchDailyReadings(context.Background(), []int64{1646500})
	require.NoError(t, err)
	require.Len(t, bundle.Series, 1)
	require.Len(t, bundle.Series[0].Readings, 1)
	assert.Equal(t, 123.5, bundle.Series[0].Readings[0].Value)
}

func TestSiteName_Found(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, leesFerryPayload)
	})

	name, err := c.SiteName(context.Background(), 9380000)
	require.NoError(t, err)
	assert.Equal(t, "COLORADO RIVER AT LEES FERRY, AZ", name)
	assert.Contains(t, gotQuery, "site=09380000")
	// The existence probe is not filtered to discharge.
	assert.NotContains(t, gotQuery, "parameterCd")
}

func TestSiteName_Unknown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":{"timeSeries":[]}}`)
	})

	_, err := c.SiteName(context.Background(), 12345678)
	require.ErrorIs(t, err, ErrNoSite)
}

func TestSiteName_ServiceDown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.SiteName(context.Background(), 9380000)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFormatSiteID(t *testing.T) {
	assert.Equal(t, "09380000", FormatSiteID(9380000))
	assert.Equal(t, "123456789", FormatSiteID(123456789))
}
