package portfolio_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	portfolioModel "github.com/zhouzirui/investor-interview/backend/internal/model/portfolio"
	"github.com/zhouzirui/investor-interview/backend/internal/service/portfolio"
)

func newSelector(t *testing.T) *portfolio.Selector {
	t.Helper()
	selector, err := portfolio.NewSelector(portfolioModel.NewMemoryCatalog(portfolioModel.MustSeed()))
	require.NoError(t, err)
	return selector
}

func baseAnswers() interview.Answers {
	return interview.Answers{
		Name:                 "Dana",
		Age:                  35,
		FamilySituation:      "Married, two kids",
		WealthSource:         "Salary",
		CoreValues:           "Technology",
		InvestmentGoal:       "Retirement",
		RiskForReturn:        interview.RiskHigh,
		InvestmentAmount:     "500 a month",
		ForeseeableNeeds:     "No",
		InvestmentHorizon:    interview.HorizonLong,
		RiskToleranceConfirm: interview.RiskHigh,
	}
}

func TestSelectGrowthWhenNoTriggers(t *testing.T) {
	sel, err := newSelector(t).Select(baseAnswers())
	require.NoError(t, err)

	assert.Equal(t, portfolioModel.ModerateGrowth, sel.PortfolioID)
	assert.Empty(t, sel.Reasons)
	assert.Equal(t, "Selected Moderate Growth Portfolio: no conservative triggers identified. "+
		"Risk tolerance is not low, investment horizon is 5+ years, age is under 60, and no major near-term cash needs.", sel.Rationale)
	assert.Equal(t, "Moderate Growth Portfolio", sel.Portfolio.Title)
}

func TestSelectConservativeCollectsReasonsInOrder(t *testing.T) {
	answers := baseAnswers()
	answers.Age = 65
	answers.RiskToleranceConfirm = interview.RiskLow

	sel, err := newSelector(t).Select(answers)
	require.NoError(t, err)

	assert.Equal(t, portfolioModel.ConservativeIncome, sel.PortfolioID)
	assert.Equal(t, []string{"Confirmed risk tolerance is low", "Age is 65 (60 or above)"}, sel.Reasons)
	assert.Equal(t, "Selected Conservative Income Portfolio because: Confirmed risk tolerance is low; Age is 65 (60 or above).", sel.Rationale)
	assert.Equal(t, "Conservative Income Portfolio", sel.Portfolio.Title)
}

func TestSelectEveryTrigger(t *testing.T) {
	answers := baseAnswers()
	answers.Age = 60
	answers.RiskToleranceConfirm = interview.RiskLow
	answers.InvestmentHorizon = interview.HorizonShort
	answers.ForeseeableNeeds = "Yes, planning to buy a house next year"

	sel, err := newSelector(t).Select(answers)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Confirmed risk tolerance is low",
		"Investment horizon is under 5 years",
		"Age is 60 (60 or above)",
		"Has foreseeable near-term cash needs",
	}, sel.Reasons)
}

func TestSelectMediumRiskIsNotATrigger(t *testing.T) {
	answers := baseAnswers()
	answers.RiskToleranceConfirm = interview.RiskMedium
	answers.RiskForReturn = interview.RiskLow
	answers.InvestmentHorizon = interview.HorizonMedium
	answers.Age = 59

	sel, err := newSelector(t).Select(answers)
	require.NoError(t, err)
	assert.Equal(t, portfolioModel.ModerateGrowth, sel.PortfolioID)
}

func TestSelectIgnoresKeyOrder(t *testing.T) {
	docs := []string{
		`{"name":"Ann","age":61,"familySituation":"","wealthSource":"","coreValues":"","investmentGoal":"","riskForReturn":"medium","investmentAmount":"","foreseeableNeeds":"No","investmentHorizon":"15+ years","riskToleranceConfirm":"high"}`,
		`{"riskToleranceConfirm":"high","investmentHorizon":"15+ years","foreseeableNeeds":"No","investmentAmount":"","riskForReturn":"medium","investmentGoal":"","coreValues":"","wealthSource":"","familySituation":"","age":61,"name":"Ann"}`,
	}

	selector := newSelector(t)
	var results []portfolio.Selection
	for _, doc := range docs {
		var set interview.AnswerSet
		require.NoError(t, json.Unmarshal([]byte(doc), &set))
		answers, err := set.Complete()
		require.NoError(t, err)
		sel, err := selector.Select(answers)
		require.NoError(t, err)
		results = append(results, sel)
	}
	assert.Equal(t, results[0], results[1])
}

func TestSelectRejectsOutOfDomainAnswers(t *testing.T) {
	answers := baseAnswers()
	answers.RiskToleranceConfirm = "extreme"

	_, err := newSelector(t).Select(answers)
	var verr *interview.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Invalid, 1)
	assert.Equal(t, interview.FieldRiskToleranceConfirm, verr.Invalid[0].Field)
}

func TestNewSelectorRequiresBothPortfolios(t *testing.T) {
	only := portfolioModel.MustSeed()[:1]
	_, err := portfolio.NewSelector(portfolioModel.NewMemoryCatalog(only))
	require.Error(t, err)
}
