package portfolio

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/investor-interview/backend/internal/analysis/needs"
	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	portfolioModel "github.com/zhouzirui/investor-interview/backend/internal/model/portfolio"
)

const (
	conservativePrefix = "Selected Conservative Income Portfolio because: "
	growthRationale    = "Selected Moderate Growth Portfolio: no conservative triggers identified. " +
		"Risk tolerance is not low, investment horizon is 5+ years, age is under 60, and no major near-term cash needs."

	retirementAge = 60
)

// Selection is the outcome of portfolio selection.
type Selection struct {
	PortfolioID portfolioModel.ID
	Rationale   string
	Reasons     []string
	Portfolio   portfolioModel.Portfolio
}

// Selector maps a completed answer record to one of the model portfolios. It is pure:
// the same answers always give the same selection.
type Selector struct {
	catalog portfolioModel.Catalog
}

// NewSelector builds a selector over the catalog. Both model portfolios must be present.
func NewSelector(catalog portfolioModel.Catalog) (*Selector, error) {
	for _, id := range []portfolioModel.ID{portfolioModel.ModerateGrowth, portfolioModel.ConservativeIncome} {
		if _, ok := catalog.Find(id); !ok {
			return nil, fmt.Errorf("portfolio catalog missing %s", id)
		}
	}
	return &Selector{catalog: catalog}, nil
}

// Select applies the conservative triggers in fixed order and collects every match.
// Any match selects the conservative portfolio. Answers that fail domain validation
// return *interview.ValidationError; the interview completion gate should have
// rejected them earlier.
func (s *Selector) Select(answers interview.Answers) (Selection, error) {
	if err := answers.Validate(); err != nil {
		return Selection{}, err
	}

	reasons := conservativeReasons(answers)
	if len(reasons) > 0 {
		p, _ := s.catalog.Find(portfolioModel.ConservativeIncome)
		return Selection{
			PortfolioID: portfolioModel.ConservativeIncome,
			Rationale:   conservativePrefix + strings.Join(reasons, "; ") + ".",
			Reasons:     reasons,
			Portfolio:   p,
		}, nil
	}

	p, _ := s.catalog.Find(portfolioModel.ModerateGrowth)
	return Selection{
		PortfolioID: portfolioModel.ModerateGrowth,
		Rationale:   growthRationale,
		Portfolio:   p,
	}, nil
}

func conservativeReasons(answers interview.Answers) []string {
	var reasons []string
	if answers.RiskToleranceConfirm == interview.RiskLow {
		reasons = append(reasons, "Confirmed risk tolerance is low")
	}
	if answers.InvestmentHorizon == interview.HorizonShort {
		reasons = append(reasons, "Investment horizon is under 5 years")
	}
	if answers.Age >= retirementAge {
		reasons = append(reasons, fmt.Sprintf("Age is %d (60 or above)", answers.Age))
	}
	if needs.HasNearTermNeed(answers.ForeseeableNeeds) {
		reasons = append(reasons, "Has foreseeable near-term cash needs")
	}
	return reasons
}
