// Package usgs is a client for the USGS National Water Information System
// daily values service (https://waterservices.usgs.gov/rest/DV-Service.html).
package usgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// 00060 filters for discharge, cubic feet per second.
	dischargeParameterCd = "00060"
	// Trailing window covered by every readings fetch.
	dailyPeriod = "P30D"

	defaultBaseURL = "https://waterservices.usgs.gov/nwis/dv/"
)

// ErrUnavailable is returned when the service answers with a non-success
// status or an undecodable payload. Callers treat it as "no data right now",
// not as a fatal condition; no retry is attempted here.
var ErrUnavailable = errors.New("usgs: service unavailable")

// ErrNoSite is returned by SiteName when the service has no time series for
// the requested site code.
var ErrNoSite = errors.New("usgs: no matching site")

// Client calls the NWIS daily values service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a daily values client. An empty baseURL selects the
// public waterservices endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FormatSiteID renders a station id as an NWIS site code. Site codes are
// zero-padded to eight digits (09380000, not 9380000).
func FormatSiteID(id int64) string {
	return fmt.Sprintf("%08d", id)
}

// FetchDailyReadings fetches the last 30 days of daily discharge readings for
// the given stations in a single request, preserving the service's series
// order in the returned bundle. The query syntax differs between the single
// and multi station forms (site= vs sites=).
func (c *Client) FetchDailyReadings(ctx context.Context, stationIDs []int64) (Bundle, error) {
	if len(stationIDs) == 0 {
		return Bundle{}, errors.New("usgs: no station ids given")
	}

	params := url.Values{
		"format":      {"json"},
		"parameterCd": {dischargeParameterCd},
		"period":      {dailyPeriod},
	}
	if len(stationIDs) == 1 {
		params.Set("site", FormatSiteID(stationIDs[0]))
	} else {
		codes := make([]string, 0, len(stationIDs))
		for _, id := range stationIDs {
			codes = append(codes, FormatSiteID(id))
		}
		params.Set("sites", strings.Join(codes, ","))
	}

	c.logger.Debug("fetching daily readings", "stations", stationIDs)

	var resp dailyValuesResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return Bundle{}, err
	}
	return c.toBundle(resp), nil
}

// SiteName checks whether a site exists and returns its display name. The
// existence probe queries the daily values service without a parameter filter;
// a site unknown to the service yields ErrNoSite.
func (c *Client) SiteName(ctx context.Context, stationID int64) (string, error) {
	params := url.Values{
		"format": {"json"},
		"site":   {FormatSiteID(stationID)},
	}

	var resp dailyValuesResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return "", err
	}
	if len(resp.Value.TimeSeries) == 0 {
		return "", fmt.Errorf("%w: site %s", ErrNoSite, FormatSiteID(stationID))
	}
	return resp.Value.TimeSeries[0].SourceInfo.SiteName, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out *dailyValuesResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode payload: %v", ErrUnavailable, err)
	}
	return nil
}

// toBundle converts the wire payload to the normalized model. Data points the
// service reports in an unexpected shape are logged and skipped rather than
// failing the whole bundle.
func (c *Client) toBundle(resp dailyValuesResponse) Bundle {
	bundle := Bundle{Series: make([]StationSeries, 0, len(resp.Value.TimeSeries))}
	for _, ts := range resp.Value.TimeSeries {
		if len(ts.SourceInfo.SiteCode) == 0 {
			c.logger.Warn("series without site code, skipping", "siteName", ts.SourceInfo.SiteName)
			continue
		}
		stationID, err := strconv.ParseInt(ts.SourceInfo.SiteCode[0].Value, 10, 64)
		if err != nil {
			c.logger.Warn("unparsable site code, skipping series",
				"siteCode", ts.SourceInfo.SiteCode[0].Value, "error", err)
			continue
		}

		series := StationSeries{
			StationID: stationID,
			SiteName:  ts.SourceInfo.SiteName,
			Variable:  ts.Variable.VariableName,
		}
		if len(ts.Values) > 0 {
			series.Readings = make([]Reading, 0, len(ts.Values[0].Value))
			for _, dp := range ts.Values[0].Value {
				r, err := parseDataPoint(dp)
				if err != nil {
					c.logger.Warn("unparsable data point, skipping",
						"station", stationID, "dateTime", dp.DateTime, "error", err)
					continue
				}
				series.Readings = append(series.Readings, r)
			}
		}
		bundle.Series = append(bundle.Series, series)
	}
	return bundle
}

// parseDataPoint truncates the service's ISO-8601 dateTime to calendar-day
// granularity (first 10 characters) and parses the reading value.
func parseDataPoint(dp wireDataPoint) (Reading, error) {
	if len(dp.DateTime) < 10 {
		return Reading{}, fmt.Errorf("short dateTime %q", dp.DateTime)
	}
	day, err := time.Parse("2006-01-02", dp.DateTime[:10])
	if err != nil {
		return Reading{}, fmt.Errorf("parse dateTime %q: %w", dp.DateTime, err)
	}
	value, err := strconv.ParseFloat(dp.Value, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("parse value %q: %w", dp.Value, err)
	}
	return Reading{Time: day, Value: value}, nil
}
