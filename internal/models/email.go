package models

import (
	"encoding/json"
	"fmt"
)

// Recipients encodes as a single string for one address and as an array otherwise
type Recipients []string

func (r Recipients) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]string(r))
}

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = Recipients{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("email must be a string or an array of strings: %w", err)
	}
	*r = many
	return nil
}

type SendEmailRequest struct {
	Email   Recipients `json:"email"`
	Subject string     `json:"subject"`
	Text    string     `json:"text,omitempty"`
	HTML    string     `json:"html,omitempty"`
}

type SendEmailResponse struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	SentCount      int      `json:"sentCount,omitempty"`
	FailedCount    int      `json:"failedCount,omitempty"`
	FailedEmails   []string `json:"failedEmails,omitempty"`
	RecipientCount int      `json:"recipientCount,omitempty"`
}

// Recipients returns the reported recipient count, falling back to the sent
// count and then to selected
func (r *SendEmailResponse) Recipients(selected int) int {
	if r.RecipientCount > 0 {
		return r.RecipientCount
	}
	if r.SentCount > 0 {
		return r.SentCount
	}
	return selected
}
