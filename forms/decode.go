package forms

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// maxDecodedParticipants bounds the participant indexes accepted from a
// posted form, independently of the schema limit.
const maxDecodedParticipants = 64

// DecodeForm reads an application/x-www-form-urlencoded registration.
// Participant fields use participants.N.field keys; missing indexes are
// skipped and the remaining participants keep their relative order.
func DecodeForm(values url.Values) (RegistrationForm, error) {
	form := RegistrationForm{
		ProjectName:        values.Get("project_name"),
		ProjectDescription: values.Get("project_description"),
		ProjectURL:         values.Get("project_url"),
		TermsAndConditions: parseCheckbox(values.Get("terms_and_conditions")),
	}

	byIndex := map[int]*ParticipantForm{}
	for key, vals := range values {
		rest, ok := strings.CutPrefix(key, "participants.")
		if !ok {
			continue
		}
		rawIndex, field, ok := strings.Cut(rest, ".")
		if !ok {
			return RegistrationForm{}, fmt.Errorf("malformed participant key %q", key)
		}
		index, err := strconv.Atoi(rawIndex)
		if err != nil || index < 0 || index >= maxDecodedParticipants {
			return RegistrationForm{}, fmt.Errorf("%w: %q", ErrParticipantIndex, key)
		}

		p, ok := byIndex[index]
		if !ok {
			p = &ParticipantForm{}
			byIndex[index] = p
		}
		value := ""
		if len(vals) > 0 {
			value = vals[0]
		}
		switch field {
		case "participant_name":
			p.Name = value
		case "participant_country":
			p.Country = value
		case "participant_email":
			p.Email = value
		default:
			return RegistrationForm{}, fmt.Errorf("unknown participant field %q", field)
		}
	}

	indexes := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		form.Participants = append(form.Participants, *byIndex[i])
	}

	return form, nil
}

func parseCheckbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
