package station

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed sql/get-station-name.sql
var getStationNameSQL string

//go:embed sql/insert-station.sql
var insertStationSQL string

//go:embed sql/list-stations.sql
var listStationsSQL string

// Info is one cached directory row.
type Info struct {
	StationID int64  `json:"stationId"`
	Name      string `json:"name"`
}

// Repository is the stations table: the durable station-id to display-name
// directory cache.
type Repository interface {
	GetName(stationID int64) (name string, found bool, err error)
	Insert(stationID int64, name string) error
	// List returns every cached station ordered by id.
	List() ([]Info, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetName(stationID int64) (string, bool, error) {
	var name string
	err := r.db.QueryRow(getStationNameSQL, stationID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get station name: %w", err)
	}
	return name, true, nil
}

func (r *repositoryImpl) List() ([]Info, error) {
	rows, err := r.db.Query(listStationsSQL)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.StationID, &info.Name); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Insert stores a station name. Names are treated as immutable once stored;
// a concurrent duplicate insert for the same id is a no-op.
func (r *repositoryImpl) Insert(stationID int64, name string) error {
	if _, err := r.db.Exec(insertStationSQL, stationID, name); err != nil {
		return fmt.Errorf("insert station %d: %w", stationID, err)
	}
	return nil
}
