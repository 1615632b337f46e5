package models

import (
	dErrors "idverify/pkg/domain-errors"
)

// Persona is the role-specific identity a verification is filed under.
type Persona string

const (
	PersonaStudent           Persona = "student"
	PersonaIndividualSponsor Persona = "individual-sponsor"
	PersonaCorporateSponsor  Persona = "corporate-sponsor"
	PersonaSchool            Persona = "school"
)

// RecordType is the coarse persona type shown to reviewers.
type RecordType string

const (
	TypeStudent RecordType = "student"
	TypeSponsor RecordType = "sponsor"
	TypeSchool  RecordType = "school"
)

// SubRole splits sponsors into individuals and companies.
type SubRole string

const (
	SubRoleIndividual SubRole = "individual"
	SubRoleCorporate  SubRole = "corporate"
)

var personas = map[Persona]struct {
	typ     RecordType
	subRole SubRole
}{
	PersonaStudent:           {TypeStudent, ""},
	PersonaIndividualSponsor: {TypeSponsor, SubRoleIndividual},
	PersonaCorporateSponsor:  {TypeSponsor, SubRoleCorporate},
	PersonaSchool:            {TypeSchool, ""},
}

func ParsePersona(s string) (Persona, error) {
	p := Persona(s)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown persona: "+s)
	}
	return p, nil
}

func (p Persona) IsValid() bool {
	_, ok := personas[p]
	return ok
}

func (p Persona) Type() RecordType {
	return personas[p].typ
}

func (p Persona) SubRole() SubRole {
	return personas[p].subRole
}

func (p Persona) String() string {
	return string(p)
}

// ParseRecordType accepts a coarse type ("sponsor") or a full persona
// ("corporate-sponsor") and reports which one it matched.
func ParseRecordType(s string) (RecordType, Persona, error) {
	switch RecordType(s) {
	case TypeStudent, TypeSponsor, TypeSchool:
		return RecordType(s), "", nil
	}
	if p := Persona(s); p.IsValid() {
		return p.Type(), p, nil
	}
	return "", "", dErrors.New(dErrors.CodeBadRequest, "unknown persona type: "+s)
}

// AllPersonas lists every persona in a stable order.
var AllPersonas = []Persona{PersonaStudent, PersonaIndividualSponsor, PersonaCorporateSponsor, PersonaSchool}

// PersonasOf returns the personas that share record type t.
func PersonasOf(t RecordType) []Persona {
	var out []Persona
	for _, p := range AllPersonas {
		if p.Type() == t {
			out = append(out, p)
		}
	}
	return out
}
