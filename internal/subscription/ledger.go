// Package subscription is the durable many-to-many ledger of user-to-station
// links backed by the users and subscriptions tables.
package subscription

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed sql/insert-user.sql
var insertUserSQL string

//go:embed sql/delete-user.sql
var deleteUserSQL string

//go:embed sql/insert-subscription.sql
var insertSubscriptionSQL string

//go:embed sql/delete-subscription.sql
var deleteSubscriptionSQL string

//go:embed sql/list-subscriptions.sql
var listSubscriptionsSQL string

// Entry is one subscription row joined with its station name.
type Entry struct {
	StationID   int64  `json:"stationId"`
	StationName string `json:"stationName"`
}

// Ledger records and removes user-to-station subscription links.
type Ledger interface {
	// Subscribe links a user to a station. Returns true when a new link was
	// inserted and false when it already existed; neither case is an error.
	Subscribe(userID string, stationID int64) (created bool, err error)
	// Unsubscribe removes a single link. Removing a link that does not exist
	// is a no-op.
	Unsubscribe(userID string, stationID int64) error
	// RegisterUser ensures a users row exists for the given id.
	RegisterUser(userID string) error
	// RemoveUser deletes a departing user and every link they held.
	RemoveUser(userID string) error
	// List returns the user's subscriptions in insertion order.
	List(userID string) ([]Entry, error)
}

type ledgerImpl struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewLedger(db *sql.DB, logger *slog.Logger) Ledger {
	return &ledgerImpl{db: db, logger: logger}
}

func (l *ledgerImpl) Subscribe(userID string, stationID int64) (bool, error) {
	// The subscriptions table references users; make sure the row exists so a
	// subscribe can never fail on a user the bot has not registered yet.
	if err := l.RegisterUser(userID); err != nil {
		return false, err
	}

	res, err := l.db.Exec(insertSubscriptionSQL, userID, stationID)
	if err != nil {
		return false, fmt.Errorf("subscribe user %s to station %d: %w", userID, stationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("subscribe rows affected: %w", err)
	}
	if n == 0 {
		l.logger.Debug("subscription already exists", "user", userID, "station", stationID)
		return false, nil
	}
	l.logger.Info("subscription created", "user", userID, "station", stationID)
	return true, nil
}

func (l *ledgerImpl) Unsubscribe(userID string, stationID int64) error {
	if _, err := l.db.Exec(deleteSubscriptionSQL, userID, stationID); err != nil {
		return fmt.Errorf("unsubscribe user %s from station %d: %w", userID, stationID, err)
	}
	return nil
}

func (l *ledgerImpl) RegisterUser(userID string) error {
	if _, err := l.db.Exec(insertUserSQL, userID); err != nil {
		return fmt.Errorf("register user %s: %w", userID, err)
	}
	return nil
}

// RemoveUser deletes the users row; the subscription links go with it via
// ON DELETE CASCADE.
func (l *ledgerImpl) RemoveUser(userID string) error {
	if _, err := l.db.Exec(deleteUserSQL, userID); err != nil {
		return fmt.Errorf("remove user %s: %w", userID, err)
	}
	l.logger.Info("user removed from ledger", "user", userID)
	return nil
}

func (l *ledgerImpl) List(userID string) ([]Entry, error) {
	rows, err := l.db.Query(listSubscriptionsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for user %s: %w", userID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			l.logger.Error("close subscription rows", "error", err)
		}
	}()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.StationID, &e.StationName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
