// Package bot is the Discord-facing layer: command dispatch, member
// registration and report delivery. The report pipeline itself lives in
// internal/report.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/TechnoConserve/discord-cfs/internal/config"
	"github.com/TechnoConserve/discord-cfs/internal/observability"
	"github.com/TechnoConserve/discord-cfs/internal/report"
	"github.com/TechnoConserve/discord-cfs/internal/subscription"
)

// Reporter drives the two report flows. *report.Orchestrator satisfies it.
type Reporter interface {
	SingleStation(ctx context.Context, stationID int64) (report.StationReport, error)
	AllSubscriptions(ctx context.Context, userID string) (report.Summary, error)
}

// nameResolver resolves and caches station names. *station.Directory
// satisfies it.
type nameResolver interface {
	ResolveName(ctx context.Context, stationID int64) (string, error)
}

// messenger is the slice of discordgo.Session the handlers need; narrowed so
// tests can fake delivery.
type messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Bot owns the Discord session and dispatches chat commands.
type Bot struct {
	cfg     config.Config
	version string

	session *discordgo.Session
	send    messenger

	guilds    *GuildRepository
	ledger    subscription.Ledger
	directory nameResolver
	reporter  Reporter
	cooldowns *CooldownGate

	metrics *observability.Metrics
	logger  *slog.Logger
}

func New(
	cfg config.Config,
	version string,
	session *discordgo.Session,
	guilds *GuildRepository,
	ledger subscription.Ledger,
	directory nameResolver,
	reporter Reporter,
	cooldowns *CooldownGate,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Bot {
	return &Bot{
		cfg:       cfg,
		version:   version,
		session:   session,
		send:      session,
		guilds:    guilds,
		ledger:    ledger,
		directory: directory,
		reporter:  reporter,
		cooldowns: cooldowns,
		metrics:   metrics,
		logger:    logger,
	}
}

// Start registers the gateway handlers and opens the websocket connection.
func (b *Bot) Start() error {
	b.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.handleGuildCreate)
	b.session.AddHandler(b.handleGuildMemberAdd)
	b.session.AddHandler(b.handleGuildMemberRemove)
	b.session.AddHandler(b.handleMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, _ *discordgo.Ready) {
	b.logger.Info("discord session ready", "user", s.State.User.Username)

	if err := s.UpdateGameStatus(0, "rivers rise and fall"); err != nil {
		b.logger.Warn("failed to set presence", "error", err)
	}

	if b.cfg.StdoutChannelID == "" {
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Now online!",
		Description: "A bot to monitor your favorite rivers and streams.",
		Color:       0x99CCFF,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Version", Value: b.version, Inline: true},
			{Name: "Data Source", Value: "USGS National Water Information System (https://waterdata.usgs.gov)"},
		},
	}
	if _, err := s.ChannelMessageSendEmbed(b.cfg.StdoutChannelID, embed); err != nil {
		b.logger.Warn("failed to send online embed", "channel", b.cfg.StdoutChannelID, "error", err)
	}
}

func (b *Bot) handleGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	if err := b.guilds.Ensure(g.ID); err != nil {
		b.logger.Error("failed to seed guild row", "guild", g.ID, "error", err)
		return
	}
	for _, member := range g.Members {
		if member.User == nil || member.User.Bot {
			continue
		}
		if err := b.ledger.RegisterUser(member.User.ID); err != nil {
			b.logger.Error("failed to register member", "user", member.User.ID, "error", err)
		}
	}
	b.logger.Info("guild registered", "guild", g.ID, "members", len(g.Members))
}

func (b *Bot) handleGuildMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}
	if err := b.ledger.RegisterUser(m.User.ID); err != nil {
		b.logger.Error("failed to register joining member", "user", m.User.ID, "error", err)
		return
	}
	b.logger.Info("member registered", "user", m.User.ID, "guild", m.GuildID)
}

func (b *Bot) handleGuildMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User == nil {
		return
	}
	if err := b.ledger.RemoveUser(m.User.ID); err != nil {
		b.logger.Error("failed to remove departing member", "user", m.User.ID, "error", err)
		return
	}
	b.logger.Info("member removed with subscriptions", "user", m.User.ID, "guild", m.GuildID)
}

func (b *Bot) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	prefix := b.guilds.Prefix(m.GuildID)
	name, args, ok := parseCommand(m.Content, prefix)
	if !ok {
		return
	}
	cmd, ok := commandAliases[name]
	if !ok {
		return
	}

	if allowed, retryAfter := b.cooldowns.Allow(m.Author.ID, cmd); !allowed {
		b.metrics.CommandsHandled.WithLabelValues(cmd, "cooldown").Inc()
		b.reply(m.ChannelID, fmt.Sprintf(
			"Woah, woah, woah. Slow your roll buddy. That command is on cooldown for %.1f more seconds.",
			retryAfter.Seconds()))
		return
	}

	b.logger.Debug("dispatching command", "command", cmd, "user", m.Author.ID)

	ctx := context.Background()
	var err error
	switch cmd {
	case "list_stations":
		err = b.handleListStations(m)
	case "add_station":
		err = b.handleAddStation(ctx, m, args)
	case "station_report":
		err = b.handleStationReport(ctx, m, args)
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		b.logger.Error("command failed", "command", cmd, "user", m.Author.ID, "error", err)
	}
	b.metrics.CommandsHandled.WithLabelValues(cmd, outcome).Inc()
}

// reply sends a plain message, logging delivery failures instead of
// propagating them; there is nobody upstream to tell.
func (b *Bot) reply(channelID, content string) {
	if _, err := b.send.ChannelMessageSend(channelID, content); err != nil {
		b.logger.Error("failed to send message", "channel", channelID, "error", err)
	}
}
