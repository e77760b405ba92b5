// internal/rules/catalog.go
package rules

import (
	"fmt"
	"regexp"

	"github.com/optistock/replenish/internal/domain"
)

// Catalog is the static lookup of packaging and lead-time rules. Rules are
// resolved either directly by category or by matching the supplier product
// code against the known numbering patterns.
type Catalog struct {
	byCategory map[domain.Category]domain.ProductRule
	patterns   []codePattern
}

type codePattern struct {
	re       *regexp.Regexp
	category domain.Category
}

// Supplier code numbering: daily lenses 30xxxx, monthly lenses 3xxxx (packs
// of 3) and 6xxxx (packs of 6), solutions carry their volume twice.
var defaultPatterns = []struct {
	expr     string
	category domain.Category
}{
	{`^30\d{4}$`, domain.CategoryDailyLens},
	{`^3\d{4}$`, domain.CategoryMonthlyLens},
	{`^6\d{4}$`, domain.CategoryMonthlyLens},
	{`^(360360|500500)$`, domain.CategorySolution360500},
	{`^120120$`, domain.CategorySolution120},
}

func defaultRules() []domain.ProductRule {
	return []domain.ProductRule{
		{
			Category:           domain.CategoryDailyLens,
			OrderMultiple:      30,
			MinOrderQty:        3000,
			ProductionLeadDays: 45,
			SoloDeliveryDays:   12,
			SafetyStockDays:    10,
			CanCombineDelivery: true,
		},
		{
			Category:           domain.CategoryMonthlyLens,
			OrderMultiple:      50,
			MinOrderQty:        5000,
			ProductionLeadDays: 45,
			SoloDeliveryDays:   12,
			SafetyStockDays:    14,
			CanCombineDelivery: true,
		},
		{
			Category:             domain.CategorySolution360500,
			OrderMultiple:        24,
			MinOrderQty:          5000,
			ProductionLeadDays:   45,
			SoloDeliveryDays:     37,
			CombinedDeliveryDays: 37,
			SafetyStockDays:      21,
			CanCombineDelivery:   true,
		},
		{
			Category:             domain.CategorySolution120,
			OrderMultiple:        48,
			MinOrderQty:          5000,
			ProductionLeadDays:   45,
			SoloDeliveryDays:     37,
			CombinedDeliveryDays: 37,
			SafetyStockDays:      21,
			CanCombineDelivery:   true,
		},
	}
}

// NewCatalog builds the default rule catalog.
func NewCatalog() *Catalog {
	c, err := NewCatalogWithRules(defaultRules())
	if err != nil {
		// Default table is static; a failure here is a programming error.
		panic(err)
	}
	return c
}

// NewCatalogWithRules builds a catalog from an explicit rule table,
// validating each rule's invariants.
func NewCatalogWithRules(ruleList []domain.ProductRule) (*Catalog, error) {
	byCategory := make(map[domain.Category]domain.ProductRule, len(ruleList))
	for _, r := range ruleList {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Category, err)
		}
		byCategory[r.Category] = r
	}

	patterns := make([]codePattern, 0, len(defaultPatterns))
	for _, p := range defaultPatterns {
		if _, ok := byCategory[p.category]; !ok {
			continue
		}
		patterns = append(patterns, codePattern{
			re:       regexp.MustCompile(p.expr),
			category: p.category,
		})
	}

	return &Catalog{byCategory: byCategory, patterns: patterns}, nil
}

func validateRule(r domain.ProductRule) error {
	if r.OrderMultiple <= 0 {
		return fmt.Errorf("order multiple must be positive, got %d", r.OrderMultiple)
	}
	if r.MinOrderQty <= 0 {
		return fmt.Errorf("min order qty must be positive, got %d", r.MinOrderQty)
	}
	if r.CombinedDeliveryDays > r.SoloDeliveryDays {
		return fmt.Errorf("combined delivery %d exceeds solo delivery %d",
			r.CombinedDeliveryDays, r.SoloDeliveryDays)
	}
	return nil
}

// ByCategory returns the rule for a category.
func (c *Catalog) ByCategory(category domain.Category) (domain.ProductRule, error) {
	rule, ok := c.byCategory[category]
	if !ok {
		return domain.ProductRule{}, fmt.Errorf("category %s: %w", category, domain.ErrNoRuleFound)
	}
	return rule, nil
}

// ByProductCode resolves a rule by matching the product code against the
// catalog's numbering patterns.
func (c *Catalog) ByProductCode(code string) (domain.ProductRule, error) {
	for _, p := range c.patterns {
		if p.re.MatchString(code) {
			return c.byCategory[p.category], nil
		}
	}
	return domain.ProductRule{}, fmt.Errorf("product code %q: %w", code, domain.ErrNoRuleFound)
}

// CategoryForCode resolves just the category of a product code.
func (c *Catalog) CategoryForCode(code string) (domain.Category, error) {
	for _, p := range c.patterns {
		if p.re.MatchString(code) {
			return p.category, nil
		}
	}
	return "", fmt.Errorf("product code %q: %w", code, domain.ErrNoRuleFound)
}
