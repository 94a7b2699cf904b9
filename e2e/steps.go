package e2e

import (
	"github.com/cucumber/godog"

	"familyshare/e2e/steps/common"
	"familyshare/e2e/steps/groups"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (status and body assertions)
	common.RegisterSteps(ctx, tc)

	// Register group, invitation and feed steps
	groups.RegisterSteps(ctx, tc)
}
