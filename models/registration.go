package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Registration struct {
	ID                 int64        `json:"id"`
	Reference          uuid.UUID    `json:"reference"`
	ProjectName        string       `json:"project_name"`
	ProjectDescription string       `json:"project_description"`
	ProjectURL         string       `json:"project_url"`
	Participants       Participants `json:"participants"`
	TermsAndConditions bool         `json:"terms_and_conditions"`
	CreatedAt          time.Time    `json:"created_at"`
}

type Participant struct {
	Name    string `json:"participant_name"`
	Country string `json:"participant_country"`
	Email   string `json:"participant_email"`
}

// Participants is stored as a JSONB array in the registrations table.
type Participants []Participant

func (p Participants) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal participants: %w", err)
	}
	return b, nil
}

func (p *Participants) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*p = Participants{}
		return nil
	default:
		return fmt.Errorf("unsupported participants column type %T", src)
	}
	if len(data) == 0 {
		return errors.New("empty participants column")
	}
	return json.Unmarshal(data, p)
}

// Emails returns the participant addresses in form order.
func (p Participants) Emails() []string {
	out := make([]string, 0, len(p))
	for _, participant := range p {
		out = append(out, participant.Email)
	}
	return out
}

// RegistrationEvent is pushed to organizers watching the live feed.
type RegistrationEvent struct {
	Type         string        `json:"type"`
	Registration *Registration `json:"registration"`
	Total        int           `json:"total,omitempty"`
}

const EventRegistrationCreated = "registration.created"
