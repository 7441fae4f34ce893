package interactions

import (
	"encoding/json"

	"github.com/bwmarrin/discordgo"
)

// Envelope is a decoded, authenticated interaction. The concrete type is
// one of *Ping, *ApplicationCommand, *MessageComponent, *Autocomplete or
// *ModalSubmit, and always agrees with Type.
type Envelope interface {
	Type() discordgo.InteractionType
	Common() *Base
	sealed()
}

// Base holds the fields every interaction carries.
// Optional fields are nil when Discord omitted them or sent null.
type Base struct {
	ID            Snowflake
	ApplicationID Snowflake
	Token         string
	Version       int

	AppPermissions               *Permissions
	User                         *discordgo.User
	Locale                       *string
	Entitlements                 []json.RawMessage
	AuthorizingIntegrationOwners json.RawMessage
	ContextType                  *int
	AttachmentSizeLimit          *uint64
}

func (b *Base) Common() *Base { return b }

func (*Base) sealed() {}

// GuildContext is where a non-ping interaction was triggered. Guild and
// Channel are passed through untouched for the responder to interpret.
type GuildContext struct {
	GuildID     *Snowflake
	ChannelID   *Snowflake
	Guild       json.RawMessage
	Channel     json.RawMessage
	Member      *Member
	GuildLocale *string
}

// Member is the invoking guild member. Permissions shadows the embedded
// int64 field so bitfields using bit 63 still decode.
type Member struct {
	discordgo.Member
	Permissions *Permissions `json:"permissions"`
}

// InGuild reports whether the interaction came from a guild rather than a DM.
func (c *GuildContext) InGuild() bool {
	return c.GuildID != nil
}

// Ping is Discord's endpoint liveness check.
type Ping struct {
	Base
}

func (*Ping) Type() discordgo.InteractionType { return discordgo.InteractionPing }

// ApplicationCommand is a slash, user or message command invocation.
type ApplicationCommand struct {
	Base
	GuildContext
	Data json.RawMessage
}

func (*ApplicationCommand) Type() discordgo.InteractionType {
	return discordgo.InteractionApplicationCommand
}

// MessageComponent is a button press or select menu choice on Message.
type MessageComponent struct {
	Base
	GuildContext
	Data    json.RawMessage
	Message json.RawMessage
}

func (*MessageComponent) Type() discordgo.InteractionType {
	return discordgo.InteractionMessageComponent
}

// Autocomplete asks for option suggestions while a command is being typed.
type Autocomplete struct {
	Base
	GuildContext
	Data json.RawMessage
}

func (*Autocomplete) Type() discordgo.InteractionType {
	return discordgo.InteractionApplicationCommandAutocomplete
}

// ModalSubmit carries the values of a submitted modal.
type ModalSubmit struct {
	Base
	GuildContext
	Data json.RawMessage
}

func (*ModalSubmit) Type() discordgo.InteractionType {
	return discordgo.InteractionModalSubmit
}

// Invoker returns the user that triggered env: the member's user inside a
// guild, the top-level user in DMs.
func Invoker(env Envelope) *discordgo.User {
	var member *Member
	switch e := env.(type) {
	case *ApplicationCommand:
		member = e.Member
	case *MessageComponent:
		member = e.Member
	case *Autocomplete:
		member = e.Member
	case *ModalSubmit:
		member = e.Member
	}
	if member != nil && member.User != nil {
		return member.User
	}
	return env.Common().User
}

// TypeName returns a stable lowercase label for t.
func TypeName(t discordgo.InteractionType) string {
	switch t {
	case discordgo.InteractionPing:
		return "ping"
	case discordgo.InteractionApplicationCommand:
		return "application_command"
	case discordgo.InteractionMessageComponent:
		return "message_component"
	case discordgo.InteractionApplicationCommandAutocomplete:
		return "autocomplete"
	case discordgo.InteractionModalSubmit:
		return "modal_submit"
	default:
		return "unknown"
	}
}
