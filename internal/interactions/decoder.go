package interactions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrInvalidPayload         = errors.New("invalid interaction payload")
	ErrMissingDiscriminator   = errors.New("interaction type is missing or not an integer")
	ErrUnknownInteractionType = errors.New("unknown interaction type")
	ErrSchemaMismatch         = errors.New("interaction field missing or malformed")
)

// UnknownInteractionTypeError reports a discriminator outside the known set.
type UnknownInteractionTypeError struct {
	Value int64
}

func (e *UnknownInteractionTypeError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnknownInteractionType, e.Value)
}

func (e *UnknownInteractionTypeError) Unwrap() error { return ErrUnknownInteractionType }

// SchemaMismatchError reports the first required field that was missing or
// any field whose JSON shape did not match.
type SchemaMismatchError struct {
	Field string
	Err   error
}

func (e *SchemaMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrSchemaMismatch, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrSchemaMismatch, e.Field)
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// IsDecodeError reports whether err belongs to the decode failure family.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrMissingDiscriminator) ||
		errors.Is(err, ErrUnknownInteractionType) ||
		errors.Is(err, ErrSchemaMismatch)
}

// Decode classifies an authenticated interaction body by its integer type
// and populates the matching envelope. It must only be called on bodies
// that already passed Verify.
func Decode(body []byte) (Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	raw, ok := fields["type"]
	if !ok || isNull(raw) {
		return nil, ErrMissingDiscriminator
	}
	var discriminator int64
	if err := json.Unmarshal(raw, &discriminator); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDiscriminator, err)
	}

	r := &fieldReader{fields: fields}
	var env Envelope
	// Compare before narrowing to InteractionType so 257 never wraps to 1.
	switch discriminator {
	case int64(discordgo.InteractionPing):
		env = &Ping{Base: decodeBase(r)}
	case int64(discordgo.InteractionApplicationCommand):
		env = &ApplicationCommand{
			Base:         decodeBase(r),
			GuildContext: decodeGuildContext(r),
			Data:         r.object("data", true),
		}
	case int64(discordgo.InteractionMessageComponent):
		env = &MessageComponent{
			Base:         decodeBase(r),
			GuildContext: decodeGuildContext(r),
			Data:         r.object("data", true),
			Message:      r.object("message", true),
		}
	case int64(discordgo.InteractionApplicationCommandAutocomplete):
		env = &Autocomplete{
			Base:         decodeBase(r),
			GuildContext: decodeGuildContext(r),
			Data:         r.object("data", true),
		}
	case int64(discordgo.InteractionModalSubmit):
		env = &ModalSubmit{
			Base:         decodeBase(r),
			GuildContext: decodeGuildContext(r),
			Data:         r.object("data", true),
		}
	default:
		return nil, &UnknownInteractionTypeError{Value: discriminator}
	}
	if r.err != nil {
		return nil, r.err
	}
	return env, nil
}

func decodeBase(r *fieldReader) Base {
	return Base{
		ID:                           required[Snowflake](r, "id"),
		ApplicationID:                required[Snowflake](r, "application_id"),
		Token:                        required[string](r, "token"),
		Version:                      required[int](r, "version"),
		AppPermissions:               optional[Permissions](r, "app_permissions"),
		User:                         optional[discordgo.User](r, "user"),
		Locale:                       optional[string](r, "locale"),
		Entitlements:                 optionalSlice[json.RawMessage](r, "entitlements"),
		AuthorizingIntegrationOwners: r.object("authorizing_integration_owners", false),
		ContextType:                  optional[int](r, "context"),
		AttachmentSizeLimit:          optional[uint64](r, "attachment_size_limit"),
	}
}

func decodeGuildContext(r *fieldReader) GuildContext {
	return GuildContext{
		GuildID:     optional[Snowflake](r, "guild_id"),
		ChannelID:   optional[Snowflake](r, "channel_id"),
		Guild:       r.object("guild", false),
		Channel:     r.object("channel", false),
		Member:      optional[Member](r, "member"),
		GuildLocale: optional[string](r, "guild_locale"),
	}
}

// fieldReader reads fields from a decoded JSON object and keeps the first
// failure; later reads become no-ops once err is set.
type fieldReader struct {
	fields map[string]json.RawMessage
	err    error
}

func (r *fieldReader) lookup(name string, mandatory bool) (json.RawMessage, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.fields[name]
	if !ok || isNull(v) {
		if mandatory {
			r.err = &SchemaMismatchError{Field: name}
		}
		return nil, false
	}
	return v, true
}

func (r *fieldReader) decode(name string, mandatory bool, dst any) bool {
	v, ok := r.lookup(name, mandatory)
	if !ok {
		return false
	}
	if err := json.Unmarshal(v, dst); err != nil {
		r.err = &SchemaMismatchError{Field: name, Err: err}
		return false
	}
	return true
}

// object returns the raw bytes of a JSON object field without interpreting them.
func (r *fieldReader) object(name string, mandatory bool) json.RawMessage {
	v, ok := r.lookup(name, mandatory)
	if !ok {
		return nil
	}
	if trimmed := bytes.TrimSpace(v); len(trimmed) == 0 || trimmed[0] != '{' {
		r.err = &SchemaMismatchError{Field: name, Err: errors.New("expected a JSON object")}
		return nil
	}
	return v
}

func required[T any](r *fieldReader, name string) T {
	var v T
	r.decode(name, true, &v)
	return v
}

func optional[T any](r *fieldReader, name string) *T {
	var v T
	if !r.decode(name, false, &v) {
		return nil
	}
	return &v
}

func optionalSlice[T any](r *fieldReader, name string) []T {
	var v []T
	if !r.decode(name, false, &v) {
		return nil
	}
	return v
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
