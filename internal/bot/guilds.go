package bot

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed sql/get-guild-prefix.sql
var getGuildPrefixSQL string

//go:embed sql/insert-guild.sql
var insertGuildSQL string

// GuildRepository is the guilds table: per-guild command prefixes.
type GuildRepository struct {
	db            *sql.DB
	defaultPrefix string
}

func NewGuildRepository(db *sql.DB, defaultPrefix string) *GuildRepository {
	return &GuildRepository{db: db, defaultPrefix: defaultPrefix}
}

// Prefix returns the guild's command prefix, falling back to the configured
// default for guilds without a row (DMs included).
func (r *GuildRepository) Prefix(guildID string) string {
	if guildID == "" {
		return r.defaultPrefix
	}
	var prefix string
	err := r.db.QueryRow(getGuildPrefixSQL, guildID).Scan(&prefix)
	if err != nil {
		return r.defaultPrefix
	}
	return prefix
}

// Ensure seeds a guild row with the default prefix; existing rows keep
// whatever prefix they have.
func (r *GuildRepository) Ensure(guildID string) error {
	if _, err := r.db.Exec(insertGuildSQL, guildID, r.defaultPrefix); err != nil {
		return fmt.Errorf("ensure guild %s: %w", guildID, err)
	}
	return nil
}
