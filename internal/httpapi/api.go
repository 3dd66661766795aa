package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/TechnoConserve/discord-cfs/internal/station"
	"github.com/TechnoConserve/discord-cfs/internal/subscription"
)

// StationLister lists the cached station directory. station.Repository
// satisfies it.
type StationLister interface {
	List() ([]station.Info, error)
}

// SubscriptionLister lists a user's subscriptions. subscription.Ledger
// satisfies it.
type SubscriptionLister interface {
	List(userID string) ([]subscription.Entry, error)
}

// apiController serves the read-only inspection API. It exists for operators
// poking at the bot's state; the Discord commands are the user surface.
type apiController struct {
	stations      StationLister
	subscriptions SubscriptionLister
}

func (c *apiController) handleStations(w http.ResponseWriter, _ *http.Request) {
	stations, err := c.stations.List()
	if err != nil {
		slog.Error("api: list stations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stations")
		return
	}
	if stations == nil {
		stations = []station.Info{}
	}
	writeJSON(w, http.StatusOK, stations)
}

func (c *apiController) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	entries, err := c.subscriptions.List(userID)
	if err != nil {
		slog.Error("api: list subscriptions failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load subscriptions")
		return
	}
	if entries == nil {
		entries = []subscription.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func registerAPI(mux *http.ServeMux, stations StationLister, subscriptions SubscriptionLister) {
	c := &apiController{stations: stations, subscriptions: subscriptions}
	mux.HandleFunc("GET /api/stations", c.handleStations)
	mux.HandleFunc("GET /api/users/{id}/subscriptions", c.handleSubscriptions)
}
