package usgs

import (
	"strings"
	"time"
)

// Reading is a single daily observation for a station.
type Reading struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// StationSeries holds one variable's time-ordered readings for one station,
// oldest first, as returned by the daily values service.
type StationSeries struct {
	StationID int64     `json:"stationId"`
	SiteName  string    `json:"siteName"`
	Variable  string    `json:"variable"`
	Readings  []Reading `json:"readings"`
}

// IsStreamflow reports whether the series measures streamflow discharge.
// The daily values service can return other variables (gage height and the
// like) for the same site; only streamflow is charted.
func (s StationSeries) IsStreamflow() bool {
	return strings.Contains(s.Variable, "Streamflow")
}

// Bundle is the normalized form of one daily values response covering one or
// more stations. Series order follows the response order.
type Bundle struct {
	Series []StationSeries `json:"series"`
}

// LatestValue pairs a station with its most recent reading.
type LatestValue struct {
	StationID int64   `json:"stationId"`
	Value     float64 `json:"value"`
}

// LatestValues reduces the bundle to the chronologically last reading of each
// series, in bundle order. Series with no readings are skipped.
func (b Bundle) LatestValues() []LatestValue {
	out := make([]LatestValue, 0, len(b.Series))
	for _, s := range b.Series {
		if len(s.Readings) == 0 {
			continue
		}
		out = append(out, LatestValue{
			StationID: s.StationID,
			Value:     s.Readings[len(s.Readings)-1].Value,
		})
	}
	return out
}

// Wire types for the NWIS daily values JSON payload. Decoded at the API
// boundary and immediately converted to the normalized model above; nothing
// outside this package sees them.

type dailyValuesResponse struct {
	Value struct {
		TimeSeries []wireTimeSeries `json:"timeSeries"`
	} `json:"value"`
}

type wireTimeSeries struct {
	SourceInfo wireSourceInfo  `json:"sourceInfo"`
	Variable   wireVariable    `json:"variable"`
	Values     []wireValueList `json:"values"`
}

type wireSourceInfo struct {
	SiteName string         `json:"siteName"`
	SiteCode []wireSiteCode `json:"siteCode"`
}

type wireSiteCode struct {
	Value string `json:"value"`
}

type wireVariable struct {
	VariableName string `json:"variableName"`
}

type wireValueList struct {
	Value []wireDataPoint `json:"value"`
}

type wireDataPoint struct {
	DateTime string `json:"dateTime"`
	Value    string `json:"value"`
}
