// Package forms holds the registration form: its default values, the
// validation schema and the server-side form state used by the HTML page.
package forms

import "strings"

// RegistrationForm is the payload collected by the registration page.
// JSON names are the field names the frontend posts.
type RegistrationForm struct {
	ProjectName        string            `json:"project_name"`
	ProjectDescription string            `json:"project_description"`
	ProjectURL         string            `json:"project_url"`
	Participants       []ParticipantForm `json:"participants"`
	TermsAndConditions bool              `json:"terms_and_conditions"`
}

type ParticipantForm struct {
	Name    string `json:"participant_name"`
	Country string `json:"participant_country"`
	Email   string `json:"participant_email"`
}

// DefaultRegistrationForm returns the values an untouched form starts with:
// empty project fields, a single empty participant and no consent.
func DefaultRegistrationForm() RegistrationForm {
	return RegistrationForm{
		Participants: []ParticipantForm{{}},
	}
}

// Normalize trims surrounding whitespace and lowercases emails. It returns a
// copy; the receiver is left untouched.
func (f RegistrationForm) Normalize() RegistrationForm {
	out := RegistrationForm{
		ProjectName:        strings.TrimSpace(f.ProjectName),
		ProjectDescription: strings.TrimSpace(f.ProjectDescription),
		ProjectURL:         strings.TrimSpace(f.ProjectURL),
		TermsAndConditions: f.TermsAndConditions,
	}
	if f.Participants != nil {
		out.Participants = make([]ParticipantForm, len(f.Participants))
		for i, p := range f.Participants {
			out.Participants[i] = ParticipantForm{
				Name:    strings.TrimSpace(p.Name),
				Country: strings.TrimSpace(p.Country),
				Email:   strings.ToLower(strings.TrimSpace(p.Email)),
			}
		}
	}
	return out
}
