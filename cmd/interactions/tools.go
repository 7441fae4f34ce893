package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/utfunderscore/serverless-discord/internal/interactions"
)

func keygen(c *cli.Context) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "public_key=%s\n", hex.EncodeToString(pub))
	fmt.Fprintf(c.App.Writer, "private_key=%s\n", hex.EncodeToString(priv.Seed()))
	return nil
}

func sign(c *cli.Context) error {
	priv, err := parsePrivateKey(c.String("private-key"))
	if err != nil {
		return err
	}

	timestamp := c.String("timestamp")
	if timestamp == "" {
		timestamp = strconv.FormatInt(time.Now().Unix(), 10)
	}

	var body []byte
	if c.Args().Present() {
		body = []byte(c.Args().First())
	} else {
		body, err = io.ReadAll(c.App.Reader)
		if err != nil {
			return fmt.Errorf("reading body: %w", err)
		}
	}

	fmt.Fprintf(c.App.Writer, "%s: %s\n", interactions.SignatureHeader, interactions.SignMessage(priv, timestamp, body))
	fmt.Fprintf(c.App.Writer, "%s: %s\n", interactions.TimestampHeader, timestamp)
	return nil
}

// parsePrivateKey accepts either a 32-byte seed or a full 64-byte key in hex.
func parsePrivateKey(s string) (ed25519.PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("private key is not hex: %w", err)
	}
	switch len(b) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(b), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(b), nil
	default:
		return nil, errors.New("private key must be a 32-byte seed or 64-byte key")
	}
}
