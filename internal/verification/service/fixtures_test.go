package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
)

func identity(first, last, email string) models.Identity {
	return models.Identity{
		FirstName:   first,
		LastName:    last,
		DateOfBirth: "2004-05-17",
		Nationality: "PH",
		Contact:     models.Contact{Email: email, Number: "+63 900 000 0000"},
		Address:     address(),
		IDDetails: models.IDDetails{
			Type:       "UMID",
			Number:     "0111-2222",
			Expiry:     "2030-01-01",
			FrontImage: "uploads/front.png",
		},
		SelfieImage: "uploads/selfie.png",
	}
}

func address() models.Address {
	return models.Address{
		Country:       "PH",
		StateProvince: "NCR",
		City:          "Quezon City",
		Street:        "1 Katipunan",
		PostalCode:    "1108",
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func studentProfile(first, school string) json.RawMessage {
	return mustJSON(models.StudentProfile{
		Identity:      identity(first, "Cruz", first+"@example.com"),
		School:        school,
		StudentNumber: "2024-001",
		Program:       "BS CS",
		YearLevel:     "2",
	})
}

func sponsorProfile(first string) json.RawMessage {
	return mustJSON(models.IndividualSponsorProfile{
		Identity:      identity(first, "Reyes", first+"@example.com"),
		Occupation:    "Engineer",
		SourceOfFunds: "Salary",
	})
}

func schoolProfile(name string) json.RawMessage {
	return mustJSON(models.SchoolProfile{
		InstitutionName:     name,
		AccreditationNumber: "DEPED-1",
		InstitutionAddress:  address(),
		Representative:      identity("Registrar", "Santos", "registrar@example.com"),
	})
}

// memBlob keeps uploads in memory.
type memBlob struct {
	mu    sync.Mutex
	files map[string][]byte
	n     int
}

func newMemBlob() *memBlob {
	return &memBlob{files: make(map[string][]byte)}
}

func (b *memBlob) Write(_ context.Context, owner id.UserID, fileName string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	url := fmt.Sprintf("mem://%s/%d-%s", owner, b.n, fileName)
	b.files[url] = data
	return url, nil
}

func (b *memBlob) Delete(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.files, url)
	return nil
}
