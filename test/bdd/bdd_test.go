package bdd

import (
	"testing"

	"github.com/cucumber/godog"
	"github.com/sirupsen/logrus"

	"github.com/hddwater/bargesim/test/bdd/steps"
)

func TestFeatures(t *testing.T) {
	logrus.SetLevel(logrus.ErrorLevel)
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	steps.InitializeCampaignScenario(sc)
	steps.InitializeSearchScenario(sc)
}
