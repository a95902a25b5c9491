package discord

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/chris/cetes/internal/agent"
	"github.com/chris/cetes/internal/history"
	"github.com/chris/cetes/internal/logging"
)

// Bot answers DMs and mentions with the advisor, keeping one conversation
// per channel in memory.
type Bot struct {
	session   *discordgo.Session
	responder *agent.Responder
	store     agent.MarketStore
	maxPairs  int

	mu        sync.Mutex
	histories map[string][]history.Pair
	turns     map[string]*sync.Mutex // one turn at a time per channel
}

func newBot(responder *agent.Responder, store agent.MarketStore) *Bot {
	return &Bot{
		responder: responder,
		store:     store,
		maxPairs:  50,
		histories: make(map[string][]history.Pair),
		turns:     make(map[string]*sync.Mutex),
	}
}

func NewBot(token string, responder *agent.Responder, store agent.MarketStore) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	bot := newBot(responder, store)
	bot.session = s
	s.AddHandler(bot.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	logging.Logger().Info("discord bot connected", "user", s.State.User.Username)
	return bot, nil
}

func (b *Bot) channelLock(channelID string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.turns[channelID]
	if !ok {
		l = &sync.Mutex{}
		b.turns[channelID] = l
	}
	return l
}

func (b *Bot) Close() {
	if b.session != nil {
		b.session.Close()
	}
}
