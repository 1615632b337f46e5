package review

import (
	"context"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Act(name string) error
	Do(method, path string, body any) error
	Saved(key string) string
}

// RegisterSteps registers school and admin decisions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &reviewSteps{tc: tc}

	ctx.Step(`^"([^"]*)" approves verification "([^"]*)"$`, steps.approve)
	ctx.Step(`^"([^"]*)" denies verification "([^"]*)" because "([^"]*)"$`, steps.deny)
	ctx.Step(`^"([^"]*)" pre-approves verification "([^"]*)"$`, steps.preApprove)
	ctx.Step(`^"([^"]*)" opens the school queue$`, steps.schoolQueue)
}

type reviewSteps struct {
	tc TestContext
}

func (s *reviewSteps) approve(ctx context.Context, reviewer, key string) error {
	return s.decide(reviewer, key, map[string]any{"status": "verified", "notes": "documents match"})
}

func (s *reviewSteps) deny(ctx context.Context, reviewer, key, reason string) error {
	return s.decide(reviewer, key, map[string]any{"status": "denied", "reason": reason})
}

func (s *reviewSteps) decide(reviewer, key string, body map[string]any) error {
	if err := s.tc.Act(reviewer); err != nil {
		return err
	}
	return s.tc.Do(http.MethodPut, "/identity-verification/"+s.tc.Saved(key)+"/status", body)
}

func (s *reviewSteps) preApprove(ctx context.Context, reviewer, key string) error {
	if err := s.tc.Act(reviewer); err != nil {
		return err
	}
	return s.tc.Do(http.MethodPost, "/kyc-kyb-verification/pre-approve/"+s.tc.Saved(key), nil)
}

func (s *reviewSteps) schoolQueue(ctx context.Context, reviewer string) error {
	if err := s.tc.Act(reviewer); err != nil {
		return err
	}
	return s.tc.Do(http.MethodGet, "/kyc-kyb-verification/school/queue", nil)
}
