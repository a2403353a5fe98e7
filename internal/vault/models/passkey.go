// Package models defines the passkey credential record and the vault
// transfer envelopes (open box, sealed box).
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/passkeeper/internal/cryptox"
)

// Blob is a byte slice that serializes to unpadded base64 in JSON and
// tolerates base64/base64url input with or without padding.
type Blob []byte

func (b Blob) MarshalJSON() ([]byte, error) {
	return json.Marshal(cryptox.EncodeBase64(b))
}

func (b *Blob) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	decoded, err := cryptox.DecodeBase64(encoded)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

// Counter is a passkey signature counter. Some credential managers export
// counters as JSON strings, so decoding accepts both forms; encoding always
// emits a number.
type Counter int64

func (c *Counter) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid counter %s: %w", data, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid counter %d: must be non-negative", v)
	}
	*c = Counter(v)
	return nil
}

// Passkey is a server-side passkey credential record: a public key bound to
// a user and a relying party, with a monotonic signature counter.
type Passkey struct {
	ID               string  `json:"id"`
	RelyingPartyID   string  `json:"rpId"`
	RelyingPartyName string  `json:"rpName"`
	UserID           string  `json:"userId"`
	Username         string  `json:"username"`
	Counter          Counter `json:"counter"`
	Key              Blob    `json:"key"`
}

// Validate checks the record is fully populated and the counter is sane.
func (p *Passkey) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("credential id is required")
	case strings.TrimSpace(p.RelyingPartyID) == "":
		return fmt.Errorf("relying party id is required")
	case strings.TrimSpace(p.RelyingPartyName) == "":
		return fmt.Errorf("relying party name is required")
	case strings.TrimSpace(p.UserID) == "":
		return fmt.Errorf("user id is required")
	case strings.TrimSpace(p.Username) == "":
		return fmt.Errorf("username is required")
	case p.Counter < 0:
		return fmt.Errorf("counter must be non-negative")
	case len(p.Key) == 0:
		return fmt.Errorf("key is required")
	}
	return nil
}

// String renders the record with the key material redacted. Passkeys end up
// in logs and CLI listings; the key never should.
func (p Passkey) String() string {
	return fmt.Sprintf("Passkey{id: %s, rp: %s (%s), user: %s (%s), counter: %d, key: <redacted>}",
		p.ID, p.RelyingPartyID, p.RelyingPartyName, p.UserID, p.Username, p.Counter)
}

// Vault is the plaintext payload of a sealed box: every passkey in the store.
type Vault struct {
	Passkeys []Passkey `json:"passkeys"`
}
