package discord

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/chris/cetes/internal/agent"
	"github.com/chris/cetes/internal/history"
	"github.com/chris/cetes/internal/logging"
)

const maxMessageLen = 2000

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages
	if m.Author.ID == s.State.User.ID {
		return
	}

	// Only respond to DMs or when mentioned
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}

	s.ChannelTyping(m.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	reply := b.answer(ctx, m.ChannelID, content)

	for _, chunk := range splitMessage(reply, maxMessageLen) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			logging.Logger().Error("sending discord message", "channel", m.ChannelID, "err", err)
			return
		}
	}
}

// answer runs one turn against the channel's history and stores the result.
// Turns in the same channel are serialized. "/reset" clears the channel.
func (b *Bot) answer(ctx context.Context, channelID, content string) string {
	turn := b.channelLock(channelID)
	turn.Lock()
	defer turn.Unlock()

	if content == "/reset" {
		b.mu.Lock()
		delete(b.histories, channelID)
		b.mu.Unlock()
		return "🧹 Conversación reiniciada."
	}

	b.mu.Lock()
	pairs := b.histories[channelID]
	b.mu.Unlock()

	out := b.responder.Respond(ctx, agent.TurnInput{
		Text:    content,
		History: history.FromPairs(pairs),
		Shape:   history.ShapeMessages,
		Data:    agent.LoadDataContext(b.store),
	})

	kept := out.Pairs
	if b.maxPairs > 0 && len(kept) > b.maxPairs {
		kept = kept[len(kept)-b.maxPairs:]
	}
	b.mu.Lock()
	b.histories[channelID] = kept
	b.mu.Unlock()

	if out.Reply == "" {
		return "No tengo una respuesta por ahora. ¿Lo intentamos de nuevo?"
	}
	return out.Reply
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

// splitMessage cuts s into chunks of at most maxLen bytes, preferring
// newline boundaries and never splitting a UTF-8 sequence.
func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end >= len(s) {
			chunks = append(chunks, s)
			break
		}
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		} else {
			for end > 0 && !utf8.RuneStart(s[end]) {
				end--
			}
			if end == 0 {
				end = maxLen
			}
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
