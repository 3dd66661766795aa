// Package report composes station directory, streamflow fetch, latest-value
// extraction and chart rendering into the two report flows the bot delivers.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TechnoConserve/discord-cfs/internal/chart"
	"github.com/TechnoConserve/discord-cfs/internal/observability"
	"github.com/TechnoConserve/discord-cfs/internal/station"
	"github.com/TechnoConserve/discord-cfs/internal/subscription"
	"github.com/TechnoConserve/discord-cfs/internal/usgs"
)

// ErrNoSubscriptions means the user asked for an all-subscriptions report
// without holding any subscriptions. No remote call is made in that case.
var ErrNoSubscriptions = errors.New("report: no subscriptions")

// NameResolver resolves a station id to its display name. *station.Directory
// satisfies it.
type NameResolver interface {
	ResolveName(ctx context.Context, stationID int64) (string, error)
}

// ReadingsFetcher fetches daily readings for a station set in one call.
// *usgs.Client satisfies it.
type ReadingsFetcher interface {
	FetchDailyReadings(ctx context.Context, stationIDs []int64) (usgs.Bundle, error)
}

// ChartRenderer renders the qualifying series of a bundle. *chart.Renderer
// satisfies it.
type ChartRenderer interface {
	RenderBundle(bundle usgs.Bundle, titleFor func(usgs.StationSeries) string) ([]chart.Artifact, error)
}

// SubscriptionLister lists a user's subscriptions in insertion order.
// subscription.Ledger satisfies it.
type SubscriptionLister interface {
	List(userID string) ([]subscription.Entry, error)
}

// StationReport is one station's report: resolved name, most recent discharge
// and, when the series was chartable, a rendered chart. Ephemeral; discarded
// after delivery.
type StationReport struct {
	StationID   int64
	StationName string
	LatestValue float64
	Chart       chart.Artifact
}

// HasChart reports whether a chart artifact was rendered for this station.
func (r StationReport) HasChart() bool { return r.Chart.Path != "" }

// Summary is the multi-station report for a user's full subscription set.
type Summary struct {
	Caption string
	Reports []StationReport
}

// Orchestrator drives the report flows. Failure at any stage aborts the rest
// of that one report; ledger state is never touched by a report.
type Orchestrator struct {
	resolver NameResolver
	fetcher  ReadingsFetcher
	renderer ChartRenderer
	ledger   SubscriptionLister
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func NewOrchestrator(
	resolver NameResolver,
	fetcher ReadingsFetcher,
	renderer ChartRenderer,
	ledger SubscriptionLister,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		fetcher:  fetcher,
		renderer: renderer,
		ledger:   ledger,
		metrics:  metrics,
		logger:   logger,
	}
}

// SingleStation builds a report for one station. The station does not need to
// be subscribed to, only known to the directory or resolvable via USGS.
func (o *Orchestrator) SingleStation(ctx context.Context, stationID int64) (StationReport, error) {
	name, err := o.resolver.ResolveName(ctx, stationID)
	if err != nil {
		return StationReport{}, o.reportOutcome("single", err)
	}

	bundle, err := o.fetch(ctx, []int64{stationID})
	if err != nil {
		return StationReport{}, o.reportOutcome("single", err)
	}

	latest := bundle.LatestValues()
	if len(latest) == 0 {
		o.logger.Warn("no readings in daily values response", "station", stationID)
		err := fmt.Errorf("%w: no readings for site %s", usgs.ErrUnavailable, usgs.FormatSiteID(stationID))
		return StationReport{}, o.reportOutcome("single", err)
	}

	artifacts, err := o.renderer.RenderBundle(bundle, func(usgs.StationSeries) string { return name })
	if err != nil {
		return StationReport{}, o.reportOutcome("single", err)
	}
	o.metrics.ChartsRendered.Add(float64(len(artifacts)))

	rep := StationReport{
		StationID:   stationID,
		StationName: name,
		LatestValue: latest[0].Value,
	}
	if len(artifacts) > 0 {
		rep.Chart = artifacts[0]
	}

	o.metrics.ReportsGenerated.WithLabelValues("single", "ok").Inc()
	return rep, nil
}

// AllSubscriptions builds one report per subscribed station, fetching the
// whole station set in a single batched call. Reports follow the response's
// bundle order. The returned summary carries a caption describing the set.
func (o *Orchestrator) AllSubscriptions(ctx context.Context, userID string) (Summary, error) {
	entries, err := o.ledger.List(userID)
	if err != nil {
		return Summary{}, o.reportOutcome("all", err)
	}
	if len(entries) == 0 {
		return Summary{}, o.reportOutcome("all", fmt.Errorf("%w: user %s", ErrNoSubscriptions, userID))
	}

	ids := make([]int64, 0, len(entries))
	names := make(map[int64]string, len(entries))
	for _, e := range entries {
		ids = append(ids, e.StationID)
		names[e.StationID] = e.StationName
	}

	bundle, err := o.fetch(ctx, ids)
	if err != nil {
		return Summary{}, o.reportOutcome("all", err)
	}

	titleFor := func(s usgs.StationSeries) string {
		if name, ok := names[s.StationID]; ok {
			return name
		}
		return s.SiteName
	}
	artifacts, err := o.renderer.RenderBundle(bundle, titleFor)
	if err != nil {
		return Summary{}, o.reportOutcome("all", err)
	}
	o.metrics.ChartsRendered.Add(float64(len(artifacts)))

	charts := make(map[int64]chart.Artifact, len(artifacts))
	for _, a := range artifacts {
		charts[a.StationID] = a
	}

	summary := Summary{}
	captionNames := make([]string, 0, len(entries))
	for _, lv := range bundle.LatestValues() {
		rep := StationReport{
			StationID:   lv.StationID,
			StationName: titleFor(usgs.StationSeries{StationID: lv.StationID}),
			LatestValue: lv.Value,
			Chart:       charts[lv.StationID],
		}
		summary.Reports = append(summary.Reports, rep)
		captionNames = append(captionNames, rep.StationName)
	}
	summary.Caption = fmt.Sprintf(
		"Streamflow report for %d of your stations: %s",
		len(summary.Reports), strings.Join(captionNames, "; "))

	o.metrics.ReportsGenerated.WithLabelValues("all", "ok").Inc()
	return summary, nil
}

// fetch wraps the batched readings call with request metrics.
func (o *Orchestrator) fetch(ctx context.Context, ids []int64) (usgs.Bundle, error) {
	start := time.Now()
	bundle, err := o.fetcher.FetchDailyReadings(ctx, ids)
	o.metrics.USGSRequestDuration.WithLabelValues("readings").Observe(time.Since(start).Seconds())
	if err != nil {
		o.metrics.USGSRequests.WithLabelValues("readings", "error").Inc()
		return usgs.Bundle{}, err
	}
	o.metrics.USGSRequests.WithLabelValues("readings", "success").Inc()
	return bundle, nil
}

// reportOutcome records the failure category and folds anything outside the
// known taxonomy into RemoteUnavailable for user messaging, logging the
// original error in full for operators.
func (o *Orchestrator) reportOutcome(kind string, err error) error {
	switch {
	case errors.Is(err, station.ErrNotFound):
		o.metrics.ReportsGenerated.WithLabelValues(kind, "not_found").Inc()
		return err
	case errors.Is(err, ErrNoSubscriptions):
		o.metrics.ReportsGenerated.WithLabelValues(kind, "no_subscriptions").Inc()
		return err
	case errors.Is(err, chart.ErrRender):
		o.metrics.ReportsGenerated.WithLabelValues(kind, "render_failed").Inc()
		return err
	case errors.Is(err, usgs.ErrUnavailable):
		o.metrics.ReportsGenerated.WithLabelValues(kind, "unavailable").Inc()
		return err
	default:
		o.logger.Error("report failed outside the error taxonomy", "kind", kind, "error", err)
		o.metrics.ReportsGenerated.WithLabelValues(kind, "unavailable").Inc()
		return fmt.Errorf("%w: %v", usgs.ErrUnavailable, err)
	}
}
