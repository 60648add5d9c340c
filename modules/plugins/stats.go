package plugins

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/metrics"
)

type Stats struct{}

func (s *Stats) Commands() []string {
	return []string{
		"stats",
		"ping",
	}
}

func (s *Stats) Init(session *discordgo.Session) {
}

func (s *Stats) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	switch command {
	case "ping":
		startTime := time.Now()
		message, err := helpers.SendMessage(msg.ChannelID, "Pong!")
		helpers.Relax(err)
		if len(message) > 0 {
			session.ChannelMessageEdit(msg.ChannelID, message[0].ID,
				fmt.Sprintf("Pong! (`%s`)", time.Since(startTime).Round(time.Millisecond)))
		}

	case "stats":
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		users := make(map[string]struct{})
		channels := 0
		guilds := session.State.Guilds
		for _, guild := range guilds {
			channels += len(guild.Channels)
			for _, member := range guild.Members {
				users[member.User.ID] = struct{}{}
			}
		}

		bootTime := time.Unix(metrics.Uptime.Value(), 0)

		helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
			Color: 0x0FADED,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Uptime", Value: helpers.HumanizeDuration(time.Since(bootTime)), Inline: true},
				{Name: "Guilds", Value: strconv.Itoa(len(guilds)), Inline: true},
				{Name: "Channels", Value: strconv.Itoa(channels), Inline: true},
				{Name: "Users", Value: humanize.Comma(int64(len(users))), Inline: true},
				{Name: "Commands executed", Value: humanize.Comma(metrics.CommandsExecuted.Value()), Inline: true},
				{Name: "Messages seen", Value: humanize.Comma(metrics.MessagesReceived.Value()), Inline: true},
				{Name: "Memory", Value: humanize.Bytes(memStats.Alloc), Inline: true},
				{Name: "Goroutines", Value: strconv.Itoa(runtime.NumGoroutine()), Inline: true},
				{Name: "Go version", Value: runtime.Version(), Inline: true},
			},
		})
	}
}
