package portfolio

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ID identifies one of the model portfolios.
type ID string

const (
	ModerateGrowth     ID = "P1"
	ConservativeIncome ID = "P2"
)

// AssetAllocation is one row of a portfolio's allocation table.
type AssetAllocation struct {
	AssetClass string `json:"assetClass" yaml:"assetClass"`
	TargetPct  int    `json:"targetPct" yaml:"targetPct"`
	Range      string `json:"range" yaml:"range"`
}

// Portfolio is a static model portfolio definition exposed to the frontend.
type Portfolio struct {
	ID                   ID                `json:"-" yaml:"id"`
	Title                string            `json:"title" yaml:"title"`
	ClientProfile        string            `json:"clientProfile" yaml:"clientProfile"`
	InvestmentObjectives []string          `json:"investmentObjectives" yaml:"investmentObjectives"`
	RiskTolerance        string            `json:"riskTolerance" yaml:"riskTolerance"`
	AssetAllocation      []AssetAllocation `json:"assetAllocation" yaml:"assetAllocation"`
	StrategicSplit       string            `json:"strategicSplit" yaml:"strategicSplit"`
	Rebalancing          string            `json:"rebalancing" yaml:"rebalancing"`
}

//go:embed catalog.yaml
var catalogYAML []byte

type catalogDocument struct {
	Portfolios []Portfolio `yaml:"portfolios"`
}

// Seed parses the embedded catalog. It fails if an entry is missing or its allocation
// targets do not add up to 100%.
func Seed() ([]Portfolio, error) {
	return parseCatalog(catalogYAML)
}

// MustSeed is Seed for process start-up.
func MustSeed() []Portfolio {
	items, err := Seed()
	if err != nil {
		panic(err)
	}
	return items
}

func parseCatalog(data []byte) ([]Portfolio, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse portfolio catalog: %w", err)
	}

	seen := make(map[ID]bool, len(doc.Portfolios))
	for _, p := range doc.Portfolios {
		if p.ID == "" || p.Title == "" {
			return nil, fmt.Errorf("portfolio catalog entry without id or title")
		}
		total := 0
		for _, row := range p.AssetAllocation {
			total += row.TargetPct
		}
		if total != 100 {
			return nil, fmt.Errorf("portfolio %s allocation sums to %d%%", p.ID, total)
		}
		seen[p.ID] = true
	}
	for _, id := range []ID{ModerateGrowth, ConservativeIncome} {
		if !seen[id] {
			return nil, fmt.Errorf("portfolio catalog missing %s", id)
		}
	}
	return doc.Portfolios, nil
}
