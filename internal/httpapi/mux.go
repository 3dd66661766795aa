// Package httpapi is the bot's ops surface: health checking, Prometheus
// metrics and a read-only inspection API. It carries no user-facing
// functionality; users talk to the bot through Discord.
package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewMux(db *sql.DB, stations StationLister, subscriptions SubscriptionLister) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	registerAPI(mux, stations, subscriptions)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
