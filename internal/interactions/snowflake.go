package interactions

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrInvalidSnowflake   = errors.New("snowflake must be a decimal uint64 string")
	ErrInvalidPermissions = errors.New("permissions must be a decimal uint64 string")
)

// Snowflake is a Discord identifier. It travels as a decimal string so
// that JSON consumers with float64 numbers cannot lose precision.
type Snowflake string

// ParseSnowflake validates s as a decimal uint64.
func ParseSnowflake(s string) (Snowflake, error) {
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSnowflake, s)
	}
	return Snowflake(s), nil
}

// Uint64 returns the numeric value. Invalid snowflakes yield zero.
func (s Snowflake) Uint64() uint64 {
	v, _ := strconv.ParseUint(string(s), 10, 64)
	return v
}

// Compare orders snowflakes by numeric value, so "0001" and "1" are equal.
func (s Snowflake) Compare(other Snowflake) int {
	return cmp.Compare(s.Uint64(), other.Uint64())
}

func (s Snowflake) Equal(other Snowflake) bool {
	return s.Compare(other) == 0
}

// CreatedAt extracts the creation time encoded in the snowflake.
func (s Snowflake) CreatedAt() (time.Time, error) {
	return discordgo.SnowflakeTimestamp(string(s))
}

func (s Snowflake) String() string {
	return string(s)
}

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnowflake, err)
	}
	parsed, err := ParseSnowflake(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Permissions is a 64-bit permission bitfield encoded as a decimal string.
type Permissions string

// ParsePermissions validates s as a decimal uint64 bitfield.
func ParsePermissions(s string) (Permissions, error) {
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPermissions, s)
	}
	return Permissions(s), nil
}

func (p Permissions) Uint64() uint64 {
	v, _ := strconv.ParseUint(string(p), 10, 64)
	return v
}

// Has reports whether every bit of perm is set. perm takes the discordgo
// Permission* constants.
func (p Permissions) Has(perm int64) bool {
	bits := uint64(perm)
	return p.Uint64()&bits == bits
}

func (p *Permissions) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPermissions, err)
	}
	parsed, err := ParsePermissions(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
