// Package station resolves station ids to display names through a persistent
// cache backed by the stations table, falling back to a USGS site lookup.
package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TechnoConserve/discord-cfs/internal/usgs"
)

// ErrNotFound means the station id is unknown to both the local cache and the
// USGS service. User-correctable; nothing was persisted.
var ErrNotFound = errors.New("station: not found")

// RemoteResolver checks site existence against the USGS service.
// *usgs.Client satisfies it.
type RemoteResolver interface {
	SiteName(ctx context.Context, stationID int64) (string, error)
}

// Directory is the station name resolver.
type Directory struct {
	repo   Repository
	remote RemoteResolver
	logger *slog.Logger
}

func NewDirectory(repo Repository, remote RemoteResolver, logger *slog.Logger) *Directory {
	return &Directory{repo: repo, remote: remote, logger: logger}
}

// ResolveName returns the station's display name, from the cache when
// present, otherwise from a remote existence check whose result is persisted
// before returning. Safe under concurrent duplicate resolution: the insert is
// a no-op when another caller won the race.
func (d *Directory) ResolveName(ctx context.Context, stationID int64) (string, error) {
	name, found, err := d.repo.GetName(stationID)
	if err != nil {
		return "", err
	}
	if found {
		d.logger.Debug("station name resolved from cache", "station", stationID, "name", name)
		return name, nil
	}

	d.logger.Debug("station not cached, checking USGS", "station", stationID)
	name, err = d.remote.SiteName(ctx, stationID)
	if errors.Is(err, usgs.ErrNoSite) {
		return "", fmt.Errorf("%w: id %d", ErrNotFound, stationID)
	}
	if err != nil {
		return "", err
	}

	if err := d.repo.Insert(stationID, name); err != nil {
		return "", err
	}
	d.logger.Info("station added to directory", "station", stationID, "name", name)
	return name, nil
}
