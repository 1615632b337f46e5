package e2e

import (
	"github.com/cucumber/godog"

	"idverify/e2e/steps/common"
	"idverify/e2e/steps/review"
	"idverify/e2e/steps/verification"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Actors, generic requests and response assertions
	common.RegisterSteps(ctx, tc)

	// Owner side: profiles, documents, submissions
	verification.RegisterSteps(ctx, tc)

	// Reviewer side: school and admin decisions
	review.RegisterSteps(ctx, tc)
}
