package forms

import (
	"errors"
	"strings"
)

// User-facing notices shown after a submission attempt.
const (
	NoticeApplicationsClosed = "No se aceptan más aplicaciones en este momento :("
	NoticeSubmitFailed       = "Hubo un error al registrar la aplicación :("
	NoticeSubmitted          = "¡Tu participación fue registrada!"
	NoticeTooManyRequests    = "Demasiados intentos, espera unos minutos antes de volver a enviar :("
)

var (
	ErrTooManyParticipants = errors.New("participant limit reached")
	ErrLastParticipant     = errors.New("at least one participant is required")
	ErrParticipantIndex    = errors.New("participant index out of range")
)

type NoticeKind string

const (
	NoticeError   NoticeKind = "error"
	NoticeSuccess NoticeKind = "success"
)

type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// State is the server-side state of one registration form: the current
// values, the errors of the last validation and the notice to display.
type State struct {
	schema *Schema

	Values RegistrationForm
	Errors FieldErrors
	Notice *Notice

	// submitted switches on revalidation of the participant list whenever
	// it changes, as happens after the first submit attempt.
	submitted bool
}

// NewState returns a form holding the default values.
func NewState(schema *Schema) *State {
	return &State{schema: schema, Values: DefaultRegistrationForm()}
}

// StateFrom wraps already decoded values. An empty participant list gets the
// default single participant back.
func StateFrom(schema *Schema, values RegistrationForm, submitted bool) *State {
	if len(values.Participants) == 0 {
		values.Participants = []ParticipantForm{{}}
	}
	return &State{schema: schema, Values: values, submitted: submitted}
}

func (s *State) Submitted() bool { return s.submitted }

func (s *State) CanAddParticipant() bool {
	return len(s.Values.Participants) < s.schema.MaxParticipants
}

func (s *State) CanRemoveParticipant() bool {
	return len(s.Values.Participants) > 1
}

func (s *State) AppendParticipant() error {
	if !s.CanAddParticipant() {
		return ErrTooManyParticipants
	}
	s.Values.Participants = append(s.Values.Participants, ParticipantForm{})
	s.afterParticipantsChanged()
	return nil
}

func (s *State) RemoveParticipant(index int) error {
	if index < 0 || index >= len(s.Values.Participants) {
		return ErrParticipantIndex
	}
	if !s.CanRemoveParticipant() {
		return ErrLastParticipant
	}
	s.Values.Participants = append(s.Values.Participants[:index], s.Values.Participants[index+1:]...)
	s.afterParticipantsChanged()
	return nil
}

// Validate runs the whole schema and marks the form as submitted.
func (s *State) Validate() bool {
	s.submitted = true
	s.Errors = s.schema.Validate(s.Values)
	return len(s.Errors) == 0
}

// TriggerParticipants revalidates only the participants subtree, keeping the
// errors already reported for the project fields.
func (s *State) TriggerParticipants() {
	kept := FieldErrors{}
	for path, msg := range s.Errors {
		if !isParticipantsPath(path) {
			kept[path] = msg
		}
	}
	for path, msg := range s.schema.Validate(s.Values) {
		if isParticipantsPath(path) {
			kept[path] = msg
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.Errors = kept
}

// SetErrors replaces the field errors, e.g. with the ones returned by a
// submission.
func (s *State) SetErrors(errs FieldErrors) {
	s.submitted = true
	s.Errors = errs
}

func (s *State) SetNotice(kind NoticeKind, message string) {
	s.Notice = &Notice{Kind: kind, Message: message}
}

// Reset brings the form back to its defaults. The notice survives so the
// outcome of the last submission is still shown.
func (s *State) Reset() {
	s.Values = DefaultRegistrationForm()
	s.Errors = nil
	s.submitted = false
}

// FieldError returns the message for path, or "".
func (s *State) FieldError(path string) string {
	return s.Errors[path]
}

func (s *State) afterParticipantsChanged() {
	if s.submitted {
		s.TriggerParticipants()
		return
	}
	for path := range s.Errors {
		if isParticipantsPath(path) {
			delete(s.Errors, path)
		}
	}
}

func isParticipantsPath(path string) bool {
	return path == "participants" || strings.HasPrefix(path, "participants.")
}
