package interactions

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Responder produces the reply for a non-ping interaction.
type Responder interface {
	Respond(ctx context.Context, env Envelope) (*discordgo.InteractionResponse, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, env Envelope) (*discordgo.InteractionResponse, error)

func (f ResponderFunc) Respond(ctx context.Context, env Envelope) (*discordgo.InteractionResponse, error) {
	return f(ctx, env)
}

// Policy decides the immediate reply for a decoded envelope.
type Policy struct {
	responder Responder
}

// NewPolicy creates a policy. responder may be nil.
func NewPolicy(responder Responder) *Policy {
	return &Policy{responder: responder}
}

// Respond answers pings with a pong without consulting the responder, since
// Discord disables endpoints that fail liveness checks. Everything else goes
// to the responder, or gets a generic acknowledgement when none is set or it
// declines by returning a nil reply.
func (p *Policy) Respond(ctx context.Context, env Envelope) (*discordgo.InteractionResponse, error) {
	if _, ok := env.(*Ping); ok {
		return PongReply(), nil
	}

	if p.responder != nil {
		reply, err := p.responder.Respond(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("responding to %s interaction: %w", TypeName(env.Type()), err)
		}
		if reply != nil {
			return reply, nil
		}
	}
	return AcknowledgeReply(env), nil
}

// PongReply is the fixed acknowledgement for a ping.
func PongReply() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
}

// AcknowledgeReply returns a reply Discord accepts for env without any
// content: a deferred message for commands and modals, a deferred update for
// components and an empty suggestion list for autocomplete.
func AcknowledgeReply(env Envelope) *discordgo.InteractionResponse {
	switch env.(type) {
	case *Ping:
		return PongReply()
	case *MessageComponent:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	case *Autocomplete:
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionApplicationCommandAutocompleteResult,
			Data: &discordgo.InteractionResponseData{
				Choices: []*discordgo.ApplicationCommandOptionChoice{},
			},
		}
	default:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	}
}
