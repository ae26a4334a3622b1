// Package notification delivers pipeline alerts to a Discord channel as
// colored embeds.
package notification

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Message is one alert. Fields render as inline embed fields in name order.
type Message struct {
	Title       string
	Description string
	Severity    string
	Fields      map[string]string
	Timestamp   time.Time
}

var severityColors = map[string]int{
	"critical": 0x8B0000,
	"high":     0xFF0000,
	"medium":   0xFF8C00,
	"low":      0xFFD700,
	"info":     0x00BFFF,
}

const defaultColor = 0x808080

// NotificationClient holds an open Discord session bound to one channel.
type NotificationClient struct {
	session   *discordgo.Session
	channelID string
}

// NewNotificationClient opens a bot session using DISCORD_TOKEN and
// DISCORD_CHANNEL_ID. Both must be set.
func NewNotificationClient() (*NotificationClient, error) {
	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN environment variable not set")
	}
	channelID := os.Getenv("DISCORD_CHANNEL_ID")
	if channelID == "" {
		return nil, fmt.Errorf("DISCORD_CHANNEL_ID environment variable not set")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord session: %w", err)
	}

	return &NotificationClient{session: session, channelID: channelID}, nil
}

// Send posts one embed to the configured channel.
func (c *NotificationClient) Send(msg Message) error {
	if c.session == nil {
		return fmt.Errorf("Discord client not initialized")
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	color, ok := severityColors[msg.Severity]
	if !ok {
		color = defaultColor
	}

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       color,
		Timestamp:   msg.Timestamp.Format(time.RFC3339),
	}

	if len(msg.Fields) > 0 {
		names := make([]string, 0, len(msg.Fields))
		for name := range msg.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		embed.Fields = make([]*discordgo.MessageEmbedField, 0, len(names))
		for _, name := range names {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   name,
				Value:  msg.Fields[name],
				Inline: true,
			})
		}
	}

	_, err := c.session.ChannelMessageSendEmbed(c.channelID, embed)
	return err
}

func (c *NotificationClient) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}
