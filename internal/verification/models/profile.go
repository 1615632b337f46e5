package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
)

// Identity is the proof-of-identity block shared by every persona. Company
// and school profiles carry one for their authorized representative.
type Identity struct {
	FirstName   string    `json:"firstName" validate:"required"`
	MiddleName  string    `json:"middleName,omitempty"`
	LastName    string    `json:"lastName" validate:"required"`
	DateOfBirth string    `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Nationality string    `json:"nationality" validate:"required"`
	Contact     Contact   `json:"contact"`
	Address     Address   `json:"address"`
	IDDetails   IDDetails `json:"idDetails"`
	SelfieImage string    `json:"selfieImage" validate:"required"`
}

type Contact struct {
	Email  string `json:"email" validate:"required,email"`
	Number string `json:"number" validate:"required"`
}

type Address struct {
	Country       string `json:"country" validate:"required"`
	StateProvince string `json:"stateProvince" validate:"required"`
	City          string `json:"city" validate:"required"`
	District      string `json:"district,omitempty"`
	Street        string `json:"street" validate:"required"`
	PostalCode    string `json:"postalCode" validate:"required"`
}

type IDDetails struct {
	Type       string `json:"type" validate:"required"`
	Number     string `json:"number" validate:"required"`
	Expiry     string `json:"expiry" validate:"required,datetime=2006-01-02"`
	FrontImage string `json:"frontImage" validate:"required"`
	BackImage  string `json:"backImage,omitempty"`
}

// FullName joins the non-empty name parts.
func (i Identity) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{i.FirstName, i.MiddleName, i.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Profile is one persona variant. Each variant declares its own required
// fields through struct tags.
type Profile interface {
	Persona() Persona
	// DisplayName is what reviewers search and see: the person for
	// individuals, the organization for companies and schools.
	DisplayName() string
	ContactEmail() string
	// SchoolName is the student's school, empty for other personas.
	SchoolName() string
}

type StudentProfile struct {
	Identity      Identity `json:"identity"`
	School        string   `json:"schoolName" validate:"required"`
	StudentNumber string   `json:"studentNumber" validate:"required"`
	Program       string   `json:"program" validate:"required"`
	YearLevel     string   `json:"yearLevel" validate:"required"`
}

func (p *StudentProfile) Persona() Persona { return PersonaStudent }
func (p *StudentProfile) DisplayName() string { return p.Identity.FullName() }
func (p *StudentProfile) ContactEmail() string { return p.Identity.Contact.Email }
func (p *StudentProfile) SchoolName() string { return strings.TrimSpace(p.School) }

type IndividualSponsorProfile struct {
	Identity      Identity `json:"identity"`
	Occupation    string   `json:"occupation" validate:"required"`
	SourceOfFunds string   `json:"sourceOfFunds" validate:"required"`
}

func (p *IndividualSponsorProfile) Persona() Persona { return PersonaIndividualSponsor }
func (p *IndividualSponsorProfile) DisplayName() string { return p.Identity.FullName() }
func (p *IndividualSponsorProfile) ContactEmail() string { return p.Identity.Contact.Email }
func (p *IndividualSponsorProfile) SchoolName() string { return "" }

type CorporateSponsorProfile struct {
	CompanyName        string   `json:"companyName" validate:"required"`
	RegistrationNumber string   `json:"registrationNumber" validate:"required"`
	BusinessAddress    Address  `json:"businessAddress"`
	Representative     Identity `json:"representative"`
	RepresentativeRole string   `json:"representativeRole" validate:"required"`
}

func (p *CorporateSponsorProfile) Persona() Persona { return PersonaCorporateSponsor }
func (p *CorporateSponsorProfile) DisplayName() string { return strings.TrimSpace(p.CompanyName) }
func (p *CorporateSponsorProfile) ContactEmail() string { return p.Representative.Contact.Email }
func (p *CorporateSponsorProfile) SchoolName() string { return "" }

type SchoolProfile struct {
	InstitutionName     string   `json:"institutionName" validate:"required"`
	AccreditationNumber string   `json:"accreditationNumber" validate:"required"`
	InstitutionAddress  Address  `json:"institutionAddress"`
	Representative      Identity `json:"representative"`
}

func (p *SchoolProfile) Persona() Persona { return PersonaSchool }
func (p *SchoolProfile) DisplayName() string { return strings.TrimSpace(p.InstitutionName) }
func (p *SchoolProfile) ContactEmail() string { return p.Representative.Contact.Email }
func (p *SchoolProfile) SchoolName() string { return "" }

func newProfile(persona Persona) (Profile, error) {
	switch persona {
	case PersonaStudent:
		return &StudentProfile{}, nil
	case PersonaIndividualSponsor:
		return &IndividualSponsorProfile{}, nil
	case PersonaCorporateSponsor:
		return &CorporateSponsorProfile{}, nil
	case PersonaSchool:
		return &SchoolProfile{}, nil
	}
	return nil, dErrors.New(dErrors.CodeBadRequest, "unknown persona: "+string(persona))
}

// DecodeProfile parses data as the variant for persona. Unknown fields are
// rejected so a client cannot send a sponsor payload to the student route.
func DecodeProfile(persona Persona, data []byte) (Profile, error) {
	p, err := newProfile(persona)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "profile data is required")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "malformed profile data")
	}
	return p, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateProfile checks the variant's required fields. Failures come back as
// a CodeValidation error whose Fields are keyed by JSON path, e.g.
// "identity.contact.email".
func ValidateProfile(p Profile) error {
	if p == nil {
		return dErrors.New(dErrors.CodeValidation, "profile is required")
	}
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "profile validation failed")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = describe(fe)
	}
	return dErrors.WithFields(dErrors.CodeValidation, "profile is missing required fields for "+p.Persona().String(), fields)
}

// fieldPath drops the struct type name validator puts first.
func fieldPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	return rest
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	default:
		return "invalid"
	}
}

// PersonaProfile is a stored profile. A new one supersedes the previous
// profile of the same record wholesale.
type PersonaProfile struct {
	ID             id.ProfileID
	VerificationID id.VerificationID
	UserID         id.UserID
	Data           Profile
	CreatedAt      time.Time
}

func (p *PersonaProfile) Persona() Persona {
	if p.Data == nil {
		return ""
	}
	return p.Data.Persona()
}

type profileJSON struct {
	ID             id.ProfileID      `json:"id"`
	VerificationID id.VerificationID `json:"verificationId"`
	Persona        Persona           `json:"persona"`
	Data           json.RawMessage   `json:"data"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// MarshalJSON writes the {persona, data} envelope.
func (p PersonaProfile) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(profileJSON{
		ID:             p.ID,
		VerificationID: p.VerificationID,
		Persona:        p.Persona(),
		Data:           data,
		CreatedAt:      p.CreatedAt,
	})
}

func (p *PersonaProfile) UnmarshalJSON(b []byte) error {
	var raw profileJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := DecodeProfile(raw.Persona, raw.Data)
	if err != nil {
		return err
	}
	p.ID = raw.ID
	p.VerificationID = raw.VerificationID
	p.Data = data
	p.CreatedAt = raw.CreatedAt
	return nil
}
