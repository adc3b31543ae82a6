package portfolio

// Catalog exposes portfolio retrieval for services and HTTP handlers.
type Catalog interface {
	List() []Portfolio
	Find(id ID) (Portfolio, bool)
}

// MemoryCatalog implements Catalog over a fixed slice.
type MemoryCatalog struct {
	items []Portfolio
}

// NewMemoryCatalog returns a MemoryCatalog preloaded with the supplied portfolios.
func NewMemoryCatalog(items []Portfolio) *MemoryCatalog {
	return &MemoryCatalog{items: clonePortfolios(items)}
}

// List returns copies of all portfolios in catalog order.
func (c *MemoryCatalog) List() []Portfolio {
	return clonePortfolios(c.items)
}

// Find looks up a portfolio by identifier. The result is a copy.
func (c *MemoryCatalog) Find(id ID) (Portfolio, bool) {
	for _, item := range c.items {
		if item.ID == id {
			return clonePortfolio(item), true
		}
	}
	return Portfolio{}, false
}

func clonePortfolios(items []Portfolio) []Portfolio {
	out := make([]Portfolio, len(items))
	for i, item := range items {
		out[i] = clonePortfolio(item)
	}
	return out
}

func clonePortfolio(p Portfolio) Portfolio {
	p.InvestmentObjectives = append([]string(nil), p.InvestmentObjectives...)
	p.AssetAllocation = append([]AssetAllocation(nil), p.AssetAllocation...)
	return p
}
