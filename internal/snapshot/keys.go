package snapshot

import (
	"fmt"
	"strconv"
	"strings"
)

// PlayerKey identifies a roster entry by campaign and Telegram user.
// It implements encoding.TextMarshaler so it can key JSON maps, encoded
// as "campaignID:userID".
type PlayerKey struct {
	Campaign int64
	User     int64
}

// Key builds a PlayerKey from a campaign topic id and a user id.
func Key(campaign, user int64) PlayerKey {
	return PlayerKey{Campaign: campaign, User: user}
}

func (k PlayerKey) String() string {
	return strconv.FormatInt(k.Campaign, 10) + ":" + strconv.FormatInt(k.User, 10)
}

// MarshalText encodes the key for use as a JSON map key.
func (k PlayerKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a "campaignID:userID" map key.
func (k *PlayerKey) UnmarshalText(text []byte) error {
	campaign, user, ok := strings.Cut(string(text), ":")
	if !ok {
		return fmt.Errorf("player key %q: want campaign:user", text)
	}
	c, err := strconv.ParseInt(campaign, 10, 64)
	if err != nil {
		return fmt.Errorf("player key %q: %w", text, err)
	}
	u, err := strconv.ParseInt(user, 10, 64)
	if err != nil {
		return fmt.Errorf("player key %q: %w", text, err)
	}
	k.Campaign = c
	k.User = u
	return nil
}
