package interactions_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utfunderscore/serverless-discord/internal/interactions"
)

const commandBody = `{
	"id": "1234567890123456789",
	"application_id": "1096551423958855810",
	"type": 2,
	"token": "tok",
	"version": 1,
	"app_permissions": "18446744073709551615",
	"guild_id": "613425648685547541",
	"channel_id": "645027906669510667",
	"guild_locale": "en-US",
	"locale": "en-GB",
	"member": {
		"user": {"id": "53908232506183680", "username": "mason"},
		"roles": ["539082325061836999"],
		"joined_at": "2017-03-13T19:19:14.040000+00:00",
		"deaf": false,
		"mute": false
	},
	"data": {"id": "771825006014889984", "name": "ping", "type": 1}
}`

func TestDecode_DiscordPing(t *testing.T) {
	env, err := interactions.Decode([]byte(discordPingBody))
	require.NoError(t, err)

	ping, ok := env.(*interactions.Ping)
	require.True(t, ok, "expected *Ping, got %T", env)
	assert.Equal(t, discordgo.InteractionPing, ping.Type())
	assert.Equal(t, interactions.Snowflake("0000000001"), ping.ID)
	assert.True(t, ping.ID.Equal("1"))
	assert.Equal(t, interactions.Snowflake("1096551423958855810"), ping.ApplicationID)
	assert.Equal(t, "example_token", ping.Token)
	assert.Equal(t, 1, ping.Version)
	require.NotNil(t, ping.AppPermissions)
	assert.True(t, ping.AppPermissions.Has(discordgo.PermissionEmbedLinks))
	assert.False(t, ping.AppPermissions.Has(discordgo.PermissionAdministrator))
	require.NotNil(t, ping.User)
	assert.Equal(t, "discord", ping.User.Username)
	require.NotNil(t, ping.AttachmentSizeLimit)
	assert.Equal(t, uint64(524288000), *ping.AttachmentSizeLimit)
	assert.NotNil(t, ping.Entitlements)
	assert.Empty(t, ping.Entitlements)
	assert.JSONEq(t, `{}`, string(ping.AuthorizingIntegrationOwners))
	assert.Nil(t, ping.Locale)
	assert.Nil(t, ping.ContextType)
}

func TestDecode_MinimalPing(t *testing.T) {
	env, err := interactions.Decode([]byte(`{"id":"1","application_id":"2","type":1,"token":"t","version":1}`))
	require.NoError(t, err)

	base := env.Common()
	assert.Nil(t, base.AppPermissions)
	assert.Nil(t, base.User)
	assert.Nil(t, base.Entitlements)
	assert.Nil(t, base.AuthorizingIntegrationOwners)
	assert.Nil(t, base.AttachmentSizeLimit)
}

func TestDecode_ApplicationCommand(t *testing.T) {
	env, err := interactions.Decode([]byte(commandBody))
	require.NoError(t, err)

	cmd, ok := env.(*interactions.ApplicationCommand)
	require.True(t, ok, "expected *ApplicationCommand, got %T", env)
	assert.Equal(t, discordgo.InteractionApplicationCommand, cmd.Type())
	assert.True(t, cmd.InGuild())
	require.NotNil(t, cmd.GuildID)
	assert.Equal(t, interactions.Snowflake("613425648685547541"), *cmd.GuildID)
	require.NotNil(t, cmd.ChannelID)
	require.NotNil(t, cmd.GuildLocale)
	assert.Equal(t, "en-US", *cmd.GuildLocale)
	require.NotNil(t, cmd.Member)
	assert.Equal(t, []string{"539082325061836999"}, cmd.Member.Roles)
	assert.Equal(t, "mason", interactions.Invoker(cmd).Username)
	assert.Equal(t, uint64(18446744073709551615), cmd.AppPermissions.Uint64())
	assert.JSONEq(t, `{"id":"771825006014889984","name":"ping","type":1}`, string(cmd.Data))
	assert.Nil(t, cmd.Guild)
	assert.Nil(t, cmd.Channel)
}

func TestDecode_MemberPermissionsKeepHighBit(t *testing.T) {
	body := `{"id":"1","application_id":"2","type":2,"token":"t","version":1,
		"app_permissions":"9223372036854775808",
		"guild_id":"3",
		"member":{"user":{"id":"4","username":"mason"},"roles":[],"permissions":"9223372036854775816"},
		"data":{"name":"ping"}}`

	env, err := interactions.Decode([]byte(body))
	require.NoError(t, err)

	cmd := env.(*interactions.ApplicationCommand)
	require.NotNil(t, cmd.Member)
	require.NotNil(t, cmd.Member.Permissions)
	assert.Equal(t, uint64(1)<<63|8, cmd.Member.Permissions.Uint64())
	assert.True(t, cmd.Member.Permissions.Has(discordgo.PermissionAdministrator))
	assert.Equal(t, "mason", interactions.Invoker(cmd).Username)

	require.NotNil(t, cmd.AppPermissions)
	assert.Equal(t, uint64(1)<<63, cmd.AppPermissions.Uint64())
	assert.False(t, cmd.AppPermissions.Has(discordgo.PermissionAdministrator))
}

func TestDecode_MemberWithoutPermissions(t *testing.T) {
	env, err := interactions.Decode([]byte(commandBody))
	require.NoError(t, err)

	cmd := env.(*interactions.ApplicationCommand)
	require.NotNil(t, cmd.Member)
	assert.Nil(t, cmd.Member.Permissions)
}

func TestDecode_MemberPermissionsMustBeDecimalString(t *testing.T) {
	for _, perms := range []string{`8`, `"-1"`, `"18446744073709551616"`, `"0x8"`} {
		body := `{"id":"1","application_id":"2","type":2,"token":"t","version":1,
			"member":{"roles":[],"permissions":` + perms + `},"data":{}}`

		_, err := interactions.Decode([]byte(body))

		var mismatch *interactions.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch, "permissions %s", perms)
		assert.Equal(t, "member", mismatch.Field)
		assert.ErrorIs(t, err, interactions.ErrSchemaMismatch)
	}
}

func TestDecode_DirectMessageCommandUsesTopLevelUser(t *testing.T) {
	body := `{"id":"1","application_id":"2","type":2,"token":"t","version":1,
		"user":{"id":"3","username":"dm-user"},"channel_id":"4","data":{"name":"hello"}}`

	env, err := interactions.Decode([]byte(body))
	require.NoError(t, err)

	cmd := env.(*interactions.ApplicationCommand)
	assert.False(t, cmd.InGuild())
	assert.Nil(t, cmd.Member)
	assert.Equal(t, "dm-user", interactions.Invoker(cmd).Username)
}

func TestDecode_AllVariants(t *testing.T) {
	base := `"id":"1","application_id":"2","token":"t","version":1`
	tests := []struct {
		name string
		body string
		want discordgo.InteractionType
	}{
		{"ping", `{` + base + `,"type":1}`, discordgo.InteractionPing},
		{"command", `{` + base + `,"type":2,"data":{}}`, discordgo.InteractionApplicationCommand},
		{"component", `{` + base + `,"type":3,"data":{"custom_id":"b"},"message":{"id":"9"}}`, discordgo.InteractionMessageComponent},
		{"autocomplete", `{` + base + `,"type":4,"data":{}}`, discordgo.InteractionApplicationCommandAutocomplete},
		{"modal", `{` + base + `,"type":5,"data":{"custom_id":"m"}}`, discordgo.InteractionModalSubmit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := interactions.Decode([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.Type())
		})
	}
}

func TestDecode_UnknownInteractionType(t *testing.T) {
	for _, v := range []string{"0", "6", "99", "-1", "257", "9223372036854775807"} {
		t.Run(v, func(t *testing.T) {
			env, err := interactions.Decode([]byte(`{"id":"1","application_id":"2","token":"t","version":1,"type":` + v + `}`))
			assert.Nil(t, env)
			require.ErrorIs(t, err, interactions.ErrUnknownInteractionType)

			var unknown *interactions.UnknownInteractionTypeError
			require.True(t, errors.As(err, &unknown))
			assert.Equal(t, v, jsonNumber(unknown.Value))
			assert.True(t, interactions.IsDecodeError(err))
		})
	}
}

func jsonNumber(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestDecode_MissingDiscriminator(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"type":null}`,
		`{"type":"1"}`,
		`{"type":1.5}`,
		`{"type":true}`,
		`null`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			_, err := interactions.Decode([]byte(body))
			assert.ErrorIs(t, err, interactions.ErrMissingDiscriminator)
		})
	}
}

func TestDecode_InvalidPayload(t *testing.T) {
	for _, body := range []string{``, `{`, `[1,2]`, `"type"`, `{"type":1,}`} {
		t.Run(body, func(t *testing.T) {
			_, err := interactions.Decode([]byte(body))
			assert.ErrorIs(t, err, interactions.ErrInvalidPayload)
			assert.Equal(t, "invalid_payload", interactions.FailureReason(err))
		})
	}
}

func TestDecode_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing id", `{"type":1,"application_id":"2","token":"t","version":1}`, "id"},
		{"numeric id", `{"type":1,"id":1,"application_id":"2","token":"t","version":1}`, "id"},
		{"non-decimal id", `{"type":1,"id":"abc","application_id":"2","token":"t","version":1}`, "id"},
		{"null token", `{"type":1,"id":"1","application_id":"2","token":null,"version":1}`, "token"},
		{"string version", `{"type":1,"id":"1","application_id":"2","token":"t","version":"1"}`, "version"},
		{"numeric permissions", `{"type":1,"id":"1","application_id":"2","token":"t","version":1,"app_permissions":8}`, "app_permissions"},
		{"command without data", `{"type":2,"id":"1","application_id":"2","token":"t","version":1}`, "data"},
		{"command data not object", `{"type":2,"id":"1","application_id":"2","token":"t","version":1,"data":[1]}`, "data"},
		{"component without message", `{"type":3,"id":"1","application_id":"2","token":"t","version":1,"data":{}}`, "message"},
		{"bad guild id", `{"type":2,"id":"1","application_id":"2","token":"t","version":1,"guild_id":"-5","data":{}}`, "guild_id"},
		{"member not object", `{"type":5,"id":"1","application_id":"2","token":"t","version":1,"member":"x","data":{}}`, "member"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := interactions.Decode([]byte(tt.body))
			assert.Nil(t, env)
			require.ErrorIs(t, err, interactions.ErrSchemaMismatch)

			var mismatch *interactions.SchemaMismatchError
			require.True(t, errors.As(err, &mismatch))
			assert.Equal(t, tt.field, mismatch.Field)
		})
	}
}

func TestDecode_ReportsFirstMissingField(t *testing.T) {
	_, err := interactions.Decode([]byte(`{"type":2}`))

	var mismatch *interactions.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "id", mismatch.Field)
}

func TestDecode_NullOptionalFieldsAreAbsent(t *testing.T) {
	body := `{"type":2,"id":"1","application_id":"2","token":"t","version":1,
		"guild_id":null,"member":null,"locale":null,"guild":null,"data":{}}`

	env, err := interactions.Decode([]byte(body))
	require.NoError(t, err)

	cmd := env.(*interactions.ApplicationCommand)
	assert.Nil(t, cmd.GuildID)
	assert.Nil(t, cmd.Member)
	assert.Nil(t, cmd.Locale)
	assert.Nil(t, cmd.Guild)
}
