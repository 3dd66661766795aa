package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/TechnoConserve/discord-cfs/internal/report"
	"github.com/TechnoConserve/discord-cfs/internal/station"
	"github.com/TechnoConserve/discord-cfs/internal/usgs"
)

const mapperURL = "https://maps.waterdata.usgs.gov/mapper/index.html"

const noSubscriptionsGuidance = "You aren't subscribed to any stations yet! " +
	"Find a station you like on the NWIS Mapper (" + mapperURL + ") " +
	"and subscribe to it with the add_station command."

// commandAliases maps every accepted spelling to its canonical command name.
var commandAliases = map[string]string{
	"list_stations":     "list_stations",
	"show_stations":     "list_stations",
	"stations":          "list_stations",
	"add_station":       "add_station",
	"monitor_station":   "add_station",
	"subscribe_station": "add_station",
	"station_report":    "station_report",
	"report":            "station_report",
}

// parseCommand splits message content into a command name and its arguments
// when the content starts with the guild's prefix. Bare prefixes and messages
// without the prefix report ok=false.
func parseCommand(content, prefix string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func (b *Bot) handleListStations(m *discordgo.MessageCreate) error {
	entries, err := b.ledger.List(m.Author.ID)
	if err != nil {
		b.reply(m.ChannelID, "Something went wrong looking up your stations. Try again later.")
		return fmt.Errorf("list subscriptions for %s: %w", m.Author.ID, err)
	}
	if len(entries) == 0 {
		b.reply(m.ChannelID, noSubscriptionsGuidance)
		return nil
	}

	ids := make([]string, 0, len(entries))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, usgs.FormatSiteID(e.StationID))
		names = append(names, e.StationName)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Station List",
		Description: fmt.Sprintf("Stations currently monitored by <@%s>.", m.Author.ID),
		Color:       0x99CCFF,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Station ID", Value: strings.Join(ids, "\n"), Inline: true},
			{Name: "Station Name", Value: strings.Join(names, "\n"), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Find more stations on the NWIS Mapper: " + mapperURL,
		},
	}
	if _, err := b.send.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}); err != nil {
		return fmt.Errorf("send station list: %w", err)
	}
	return nil
}

func (b *Bot) handleAddStation(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	if len(args) == 0 {
		b.reply(m.ChannelID, "Tell me which station to monitor, like `add_station 09380000`. "+
			"Station IDs come from the NWIS Mapper: "+mapperURL)
		return nil
	}
	stationID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || stationID <= 0 {
		b.reply(m.ChannelID, fmt.Sprintf("%q doesn't look like a USGS station ID. "+
			"They're numeric, like 09380000.", args[0]))
		return nil
	}

	name, err := b.directory.ResolveName(ctx, stationID)
	switch {
	case errors.Is(err, station.ErrNotFound):
		b.reply(m.ChannelID, fmt.Sprintf("I couldn't find a station with ID %s. "+
			"Double-check it on the NWIS Mapper: %s", usgs.FormatSiteID(stationID), mapperURL))
		return nil
	case err != nil:
		b.reply(m.ChannelID, "The USGS water service isn't answering right now. Try again later.")
		return fmt.Errorf("resolve station %d: %w", stationID, err)
	}

	created, err := b.ledger.Subscribe(m.Author.ID, stationID)
	if err != nil {
		b.reply(m.ChannelID, "Something went wrong saving your subscription. Try again later.")
		return fmt.Errorf("subscribe %s to %d: %w", m.Author.ID, stationID, err)
	}
	if !created {
		b.reply(m.ChannelID, fmt.Sprintf("You're already subscribed to %s!", name))
		return nil
	}
	b.reply(m.ChannelID, fmt.Sprintf("Successfully subscribed to %s!", name))
	return nil
}

func (b *Bot) handleStationReport(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	if len(args) > 0 {
		return b.singleStationReport(ctx, m, args[0])
	}
	return b.subscriptionReport(ctx, m)
}

func (b *Bot) singleStationReport(ctx context.Context, m *discordgo.MessageCreate, arg string) error {
	stationID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || stationID <= 0 {
		b.reply(m.ChannelID, fmt.Sprintf("%q doesn't look like a USGS station ID. "+
			"They're numeric, like 09380000.", arg))
		return nil
	}

	rep, err := b.reporter.SingleStation(ctx, stationID)
	switch {
	case errors.Is(err, station.ErrNotFound):
		b.reply(m.ChannelID, fmt.Sprintf("I couldn't find a station with ID %s. "+
			"Double-check it on the NWIS Mapper: %s", usgs.FormatSiteID(stationID), mapperURL))
		return nil
	case err != nil:
		b.reply(m.ChannelID, "I couldn't get data for that station right now. Try again later.")
		return fmt.Errorf("single station report for %d: %w", stationID, err)
	}

	return b.deliverReport(m.ChannelID, rep)
}

func (b *Bot) subscriptionReport(ctx context.Context, m *discordgo.MessageCreate) error {
	summary, err := b.reporter.AllSubscriptions(ctx, m.Author.ID)
	switch {
	case errors.Is(err, report.ErrNoSubscriptions):
		b.reply(m.ChannelID, noSubscriptionsGuidance)
		return nil
	case err != nil:
		b.reply(m.ChannelID, "I couldn't get data for your stations right now. Try again later.")
		return fmt.Errorf("subscription report for %s: %w", m.Author.ID, err)
	}

	dm, err := b.send.UserChannelCreate(m.Author.ID)
	if err != nil {
		b.reply(m.ChannelID, "I couldn't open a DM with you. Check your privacy settings and try again.")
		return fmt.Errorf("open dm with %s: %w", m.Author.ID, err)
	}

	b.reply(dm.ID, summary.Caption)
	for _, rep := range summary.Reports {
		if err := b.deliverReport(dm.ID, rep); err != nil {
			return err
		}
	}
	return nil
}

// deliverReport sends one station's report embed, attaching the chart when
// rendering produced one.
func (b *Bot) deliverReport(channelID string, rep report.StationReport) error {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Station report for %s (%s)",
			rep.StationName, usgs.FormatSiteID(rep.StationID)),
		Description: "Graph displays streamflow volume in cubic feet per second for the previous 30 days.",
		Color:       0x99CCFF,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Latest Reading", Value: fmt.Sprintf("%.2f CFS", rep.LatestValue), Inline: true},
		},
	}
	msg := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}

	if rep.HasChart() {
		f, err := os.Open(rep.Chart.Path)
		if err != nil {
			b.logger.Warn("chart file missing at delivery time", "path", rep.Chart.Path, "error", err)
		} else {
			defer f.Close()
			filename := filepath.Base(rep.Chart.Path)
			msg.Files = []*discordgo.File{{Name: filename, ContentType: "image/png", Reader: f}}
			embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + filename}
		}
	}

	if _, err := b.send.ChannelMessageSendComplex(channelID, msg); err != nil {
		return fmt.Errorf("deliver report for station %d: %w", rep.StationID, err)
	}
	return nil
}
