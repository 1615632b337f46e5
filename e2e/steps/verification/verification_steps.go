package verification

import (
	"context"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path string, body any) error
	Upload(path, docType, fileName string, content []byte) error
}

// RegisterSteps registers owner-side verification steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &verificationSteps{tc: tc}

	ctx.Step(`^I save a student profile for school "([^"]*)"$`, steps.saveStudentProfile)
	ctx.Step(`^I save a school profile for "([^"]*)"$`, steps.saveSchoolProfile)
	ctx.Step(`^I upload a "([^"]*)" document$`, steps.uploadDocument)
	ctx.Step(`^I submit my (student|individual-sponsor|corporate-sponsor|school) verification$`, steps.submit)
	ctx.Step(`^I submit my (student|individual-sponsor|corporate-sponsor|school) verification without consent$`, steps.submitWithoutConsent)
	ctx.Step(`^I resubmit my verification$`, steps.resubmit)
	ctx.Step(`^I check my verification status$`, steps.status)
}

type verificationSteps struct {
	tc TestContext
}

func (s *verificationSteps) saveStudentProfile(ctx context.Context, school string) error {
	return s.tc.Do(http.MethodPut, "/identity-verification/student/profile", map[string]any{
		"profile": map[string]any{
			"identity":      identity("Ana", "Cruz"),
			"schoolName":    school,
			"studentNumber": "2024-001",
			"program":       "BS Computer Science",
			"yearLevel":     "2",
		},
	})
}

func (s *verificationSteps) saveSchoolProfile(ctx context.Context, name string) error {
	return s.tc.Do(http.MethodPut, "/identity-verification/school/profile", map[string]any{
		"profile": map[string]any{
			"institutionName":     name,
			"accreditationNumber": "ACC-001",
			"institutionAddress":  address(),
			"representative":      identity("Rita", "Santos"),
		},
	})
}

func (s *verificationSteps) uploadDocument(ctx context.Context, docType string) error {
	return s.tc.Upload("/identity-verification/upload-document", docType, "scan.png", []byte("\x89PNG e2e"))
}

func (s *verificationSteps) submit(ctx context.Context, persona string) error {
	return s.tc.Do(http.MethodPost, "/identity-verification/"+persona+"/submit", map[string]any{
		"declarationsAndConsent": true,
	})
}

func (s *verificationSteps) submitWithoutConsent(ctx context.Context, persona string) error {
	return s.tc.Do(http.MethodPost, "/identity-verification/"+persona+"/submit", map[string]any{
		"declarationsAndConsent": false,
	})
}

func (s *verificationSteps) resubmit(ctx context.Context) error {
	return s.tc.Do(http.MethodPost, "/identity-verification/resubmit", nil)
}

func (s *verificationSteps) status(ctx context.Context) error {
	return s.tc.Do(http.MethodGet, "/identity-verification/status", nil)
}

func identity(first, last string) map[string]any {
	return map[string]any{
		"firstName":   first,
		"lastName":    last,
		"dateOfBirth": "2004-05-17",
		"nationality": "PH",
		"contact":     map[string]any{"email": "e2e@example.com", "number": "+63 900 000 0000"},
		"address":     address(),
		"idDetails": map[string]any{
			"type":       "Passport",
			"number":     "P-1234",
			"expiry":     "2031-01-01",
			"frontImage": "uploads/front.png",
		},
		"selfieImage": "uploads/selfie.png",
	}
}

func address() map[string]any {
	return map[string]any{
		"country":       "PH",
		"stateProvince": "NCR",
		"city":          "Quezon City",
		"street":        "1 Katipunan",
		"postalCode":    "1108",
	}
}
