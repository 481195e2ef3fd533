package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const duplicateEmailMessage = "Este correo ya está asignado a otro participante"

// FieldErrors maps a dotted field path (participants.0.participant_email) to
// a user-facing message.
type FieldErrors map[string]string

// Has reports whether path or any path below it has an error.
func (e FieldErrors) Has(path string) bool {
	if _, ok := e[path]; ok {
		return true
	}
	prefix := path + "."
	for k := range e {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Paths returns the failing paths in a stable order.
func (e FieldErrors) Paths() []string {
	paths := make([]string, 0, len(e))
	for k := range e {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

// ParticipantPath builds the path of a participant field.
func ParticipantPath(index int, field string) string {
	return fmt.Sprintf("participants.%d.%s", index, field)
}

func (e FieldErrors) collect(prefix string, err error) {
	if err == nil {
		return
	}
	var nested validation.Errors
	if errors.As(err, &nested) {
		for key, child := range nested {
			e.collect(joinPath(prefix, key), child)
		}
		return
	}
	if prefix == "" {
		prefix = "form"
	}
	e[prefix] = err.Error()
}

func (e FieldErrors) markDuplicateEmails(participants []ParticipantForm) {
	if _, ok := e["participants"]; ok {
		return
	}
	seen := make(map[string]bool, len(participants))
	for i, p := range participants {
		if p.Email == "" {
			continue
		}
		if seen[p.Email] {
			path := ParticipantPath(i, "participant_email")
			if _, ok := e[path]; !ok {
				e[path] = duplicateEmailMessage
			}
			continue
		}
		seen[p.Email] = true
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
