package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
)

const validIdentity = `{
	"firstName": "Ana",
	"middleName": "Lopez",
	"lastName": "Cruz",
	"dateOfBirth": "2004-05-17",
	"nationality": "PH",
	"contact": {"email": "ana@example.com", "number": "+63 900 000 0000"},
	"address": {"country": "PH", "stateProvince": "NCR", "city": "Quezon City", "street": "1 Katipunan", "postalCode": "1108"},
	"idDetails": {"type": "UMID", "number": "0111-2222", "expiry": "2030-01-01", "frontImage": "uploads/front.png"},
	"selfieImage": "uploads/selfie.png"
}`

func studentJSON(school string) []byte {
	return []byte(`{"identity": ` + validIdentity + `, "schoolName": "` + school + `", "studentNumber": "2024-001", "program": "BS CS", "yearLevel": "2"}`)
}

func TestDecodeProfile(t *testing.T) {
	t.Run("decodes the persona's variant", func(t *testing.T) {
		p, err := DecodeProfile(PersonaStudent, studentJSON("North High"))
		require.NoError(t, err)
		require.IsType(t, &StudentProfile{}, p)
		assert.Equal(t, "Ana Lopez Cruz", p.DisplayName())
		assert.Equal(t, "North High", p.SchoolName())
		assert.NoError(t, ValidateProfile(p))
	})

	t.Run("rejects fields of another variant", func(t *testing.T) {
		_, err := DecodeProfile(PersonaIndividualSponsor, studentJSON("North High"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects unknown persona", func(t *testing.T) {
		_, err := DecodeProfile(Persona("parent"), []byte(`{}`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects empty body", func(t *testing.T) {
		_, err := DecodeProfile(PersonaSchool, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestValidateProfile(t *testing.T) {
	t.Run("reports missing fields by JSON path", func(t *testing.T) {
		p, err := DecodeProfile(PersonaStudent, studentJSON(""))
		require.NoError(t, err)
		p.(*StudentProfile).Identity.Contact.Email = "not-an-email"

		err = ValidateProfile(p)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		fields := dErrors.FieldsOf(err)
		assert.Equal(t, "required", fields["schoolName"])
		assert.Equal(t, "must be a valid email address", fields["identity.contact.email"])
	})

	t.Run("each variant has its own required set", func(t *testing.T) {
		err := ValidateProfile(&CorporateSponsorProfile{})
		fields := dErrors.FieldsOf(err)
		assert.Contains(t, fields, "companyName")
		assert.Contains(t, fields, "representative.firstName")
		assert.Contains(t, fields, "businessAddress.city")
		assert.NotContains(t, fields, "identity.firstName")

		fields = dErrors.FieldsOf(ValidateProfile(&SchoolProfile{}))
		assert.Contains(t, fields, "institutionName")
		assert.Contains(t, fields, "accreditationNumber")
	})

	t.Run("dates must be ISO formatted", func(t *testing.T) {
		p, err := DecodeProfile(PersonaStudent, studentJSON("North High"))
		require.NoError(t, err)
		p.(*StudentProfile).Identity.DateOfBirth = "17/05/2004"
		fields := dErrors.FieldsOf(ValidateProfile(p))
		assert.Contains(t, fields["identity.dateOfBirth"], "2006-01-02")
	})

	t.Run("nil profile", func(t *testing.T) {
		assert.True(t, dErrors.HasCode(ValidateProfile(nil), dErrors.CodeValidation))
	})
}

func TestPersonaProfileJSON(t *testing.T) {
	data, err := DecodeProfile(PersonaStudent, studentJSON("North High"))
	require.NoError(t, err)
	stored := PersonaProfile{
		ID:             id.NewProfileID(),
		VerificationID: id.NewVerificationID(),
		UserID:         id.NewUserID(),
		Data:           data,
		CreatedAt:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"persona":"student"`)

	var back PersonaProfile
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, stored.ID, back.ID)
	assert.Equal(t, PersonaStudent, back.Persona())
	assert.Equal(t, data, back.Data)
}

func TestParseRecordType(t *testing.T) {
	typ, persona, err := ParseRecordType("sponsor")
	require.NoError(t, err)
	assert.Equal(t, TypeSponsor, typ)
	assert.Empty(t, persona)

	typ, persona, err = ParseRecordType("corporate-sponsor")
	require.NoError(t, err)
	assert.Equal(t, TypeSponsor, typ)
	assert.Equal(t, PersonaCorporateSponsor, persona)

	_, _, err = ParseRecordType("parent")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}
