package bot

import (
	"strings"

	"github.com/glazed-darnut/VerifyBot/model"
	"github.com/glazed-darnut/VerifyBot/pkg/log"
	"github.com/glazed-darnut/VerifyBot/service"
)

// Platform is the chat platform the bot runs on. The adapter owns the
// connection lifecycle; the bot only consumes delivered messages and calls
// back for replies and role management.
type Platform interface {
	// Start delivers inbound messages to onMessage and new-guild events to
	// onGuildCreate, blocking until the connection closes.
	Start(onMessage func(m *model.Message), onGuildCreate func(g model.GuildInfo)) error
	Reply(m *model.Message, text string) error
	// GuildIDByName resolves a guild by its exact (case-sensitive) name.
	GuildIDByName(name string) (string, bool)
	IsMember(guildID, userID string) (bool, error)
	MemberHasRole(guildID, userID, roleName string) (bool, error)
	AddRoleByName(guildID, userID, roleName string) error
	Guilds() []model.GuildInfo
}

// NewPlatform is set by the linked platform adapter's init. Nil means the
// process runs with the bot disabled (admin surfaces only).
var NewPlatform func(token string) (Platform, error)

type Bot struct {
	Platform Platform
	Store    *service.Store
	Verifier *service.Verifier
}

type CommandHandler func(b *Bot, m *model.Message, args []string)

var GlobalCommandMapper = make(map[string]CommandHandler)

func RegisterCommands(command string, f CommandHandler) {
	GlobalCommandMapper[command] = f
}

func New(platform Platform, store *service.Store, verifier *service.Verifier) *Bot {
	return &Bot{
		Platform: platform,
		Store:    store,
		Verifier: verifier,
	}
}

// Run registers the known guilds and blocks serving messages.
func (b *Bot) Run() error {
	for _, g := range b.Platform.Guilds() {
		if err := b.Store.AddGuild(g.ID, g.Name); err != nil {
			log.Warn("register guild %v: %v", g.Name, err)
		}
	}
	return b.Platform.Start(b.HandleMessage, b.HandleGuildCreate)
}

// HandleMessage dispatches one inbound message. Safe for concurrent use; the
// store serializes per-guild state underneath.
func (b *Bot) HandleMessage(m *model.Message) {
	if m.IsBot || !m.Direct {
		return
	}
	fields := strings.Fields(m.Content)
	if len(fields) == 0 {
		return
	}
	command := strings.ToLower(fields[0])
	handler, ok := GlobalCommandMapper[command]
	if !ok {
		return
	}
	args, err := ParseArgs(m.Content, command)
	if err != nil {
		_, _ = b.Reply(m, "The syntax of the "+command+" command was invalid.")
		return
	}
	handler(b, m, args)
}

func (b *Bot) HandleGuildCreate(g model.GuildInfo) {
	log.Info("joined guild %v", g.Name)
	if err := b.Store.AddGuild(g.ID, g.Name); err != nil {
		log.Warn("register guild %v: %v", g.Name, err)
	}
}

// Reply answers the message, returning the error for callers that care.
func (b *Bot) Reply(m *model.Message, text string) (string, error) {
	if err := b.Platform.Reply(m, text); err != nil {
		log.Warn("reply to %v: %v", m.AuthorID, err)
		return text, err
	}
	return text, nil
}
