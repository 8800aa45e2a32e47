package client

import (
	"fmt"

	"github.com/codyde/girlsgotgame-sub002/config"
	"github.com/codyde/girlsgotgame-sub002/repository"

	"github.com/bwmarrin/discordgo"
)

// DiscordClient posts final-score announcements for shared games to the team
// channel. Announcements are best-effort; the caller logs and moves on.
type DiscordClient struct {
	session   *discordgo.Session
	channelId string
}

// NewDiscordClient returns nil without error when no bot token is configured,
// so callers can treat the notifier as optional.
func NewDiscordClient() (*DiscordClient, error) {
	cfg := config.Env()
	if cfg.DiscordBotToken == "" || cfg.DiscordChannelID == "" {
		return nil, nil
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordClient{session: session, channelId: cfg.DiscordChannelID}, nil
}

func (c *DiscordClient) AnnounceFinalScore(game *repository.Game) error {
	result := "vs"
	if !game.IsHome {
		result = "at"
	}
	message := fmt.Sprintf("Final: %s %s %s, %d-%d",
		game.TeamName, result, game.OpponentName, game.HomeScore, game.AwayScore)
	_, err := c.session.ChannelMessageSend(c.channelId, message)
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}
