package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/foxzi/backoffice/internal/apiclient"
)

// record is the stored form of a Session; tokens are sealed
type record struct {
	ID         string    `json:"id"`
	AdminEmail string    `json:"admin_email"`
	Sealed     []byte    `json:"sealed"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func encodeSession(sl *sealer, s *Session) ([]byte, error) {
	plain, err := json.Marshal(s.Tokens)
	if err != nil {
		return nil, fmt.Errorf("marshal tokens: %w", err)
	}
	sealed, err := sl.seal(plain)
	if err != nil {
		return nil, err
	}
	return json.Marshal(record{
		ID:         s.ID,
		AdminEmail: s.AdminEmail,
		Sealed:     sealed,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
	})
}

func decodeSession(sl *sealer, data []byte) (*Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	plain, err := sl.open(rec.Sealed)
	if err != nil {
		return nil, err
	}
	var tokens apiclient.Tokens
	if err := json.Unmarshal(plain, &tokens); err != nil {
		return nil, fmt.Errorf("unmarshal tokens: %w", err)
	}
	return &Session{
		ID:         rec.ID,
		AdminEmail: rec.AdminEmail,
		Tokens:     tokens,
		CreatedAt:  rec.CreatedAt,
		ExpiresAt:  rec.ExpiresAt,
	}, nil
}
