package forms

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	MaxProjectNameLength        = 100
	MaxProjectDescriptionLength = 1000
	MaxParticipantNameLength    = 100
)

var httpScheme = regexp.MustCompile(`(?i)^https?://`)

// Schema is the fixed shape a registration must satisfy before it is
// submitted.
type Schema struct {
	MaxParticipants int
	countries       []interface{}
}

// NewSchema builds a schema allowing up to maxParticipants participants. An
// empty catalogue disables the country membership check.
func NewSchema(maxParticipants int, catalogue Countries) *Schema {
	if maxParticipants < 1 {
		maxParticipants = 1
	}
	s := &Schema{MaxParticipants: maxParticipants}
	for _, name := range catalogue.Names() {
		s.countries = append(s.countries, name)
	}
	return s
}

// Validate checks the normalized form and returns nil when it is valid.
func (s *Schema) Validate(form RegistrationForm) FieldErrors {
	f := form.Normalize()

	err := validation.ValidateStruct(&f,
		validation.Field(&f.ProjectName,
			validation.Required.Error("El nombre del proyecto es obligatorio"),
			validation.RuneLength(1, MaxProjectNameLength).
				Error(fmt.Sprintf("El nombre del proyecto no puede superar %d caracteres", MaxProjectNameLength)),
		),
		validation.Field(&f.ProjectDescription,
			validation.Required.Error("La descripción del proyecto es obligatoria"),
			validation.RuneLength(1, MaxProjectDescriptionLength).
				Error(fmt.Sprintf("La descripción no puede superar %d caracteres", MaxProjectDescriptionLength)),
		),
		validation.Field(&f.ProjectURL,
			validation.Required.Error("La URL del proyecto es obligatoria"),
			is.RequestURL.Error("Introduce una URL válida"),
			validation.By(requireHost),
			validation.Match(httpScheme).Error("La URL debe empezar por http:// o https://"),
		),
		validation.Field(&f.Participants,
			validation.Required.Error("Debe haber al menos un participante"),
			validation.Length(1, s.MaxParticipants).
				Error(fmt.Sprintf("Puede haber como máximo %d participantes", s.MaxParticipants)),
			validation.Each(validation.By(s.validateParticipant)),
		),
		validation.Field(&f.TermsAndConditions,
			validation.Required.Error("Debes aceptar los términos y condiciones"),
		),
	)

	errs := FieldErrors{}
	errs.collect("", err)
	errs.markDuplicateEmails(f.Participants)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// requireHost rejects URLs such as "https://" or "http:///path" that parse
// as request URIs but name no host.
func requireHost(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return errors.New("La URL debe incluir un dominio")
	}
	return nil
}

func (s *Schema) validateParticipant(value interface{}) error {
	p, ok := value.(ParticipantForm)
	if !ok {
		return fmt.Errorf("unexpected participant type %T", value)
	}

	countryRules := []validation.Rule{
		validation.Required.Error("El país es obligatorio"),
	}
	if len(s.countries) > 0 {
		countryRules = append(countryRules, validation.In(s.countries...).Error("Selecciona un país de la lista"))
	}

	return validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.Required.Error("El nombre es obligatorio"),
			validation.RuneLength(1, MaxParticipantNameLength).
				Error(fmt.Sprintf("El nombre no puede superar %d caracteres", MaxParticipantNameLength)),
		),
		validation.Field(&p.Country, countryRules...),
		validation.Field(&p.Email,
			validation.Required.Error("El correo es obligatorio"),
			is.EmailFormat.Error("Introduce un correo válido"),
		),
	)
}
