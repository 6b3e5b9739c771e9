package analyzer

import (
	"encoding/json"
	"fmt"
	"os"

	"go-label-scan/pkg/models"
)

// Comparison selects how a nutrient value is tested against a threshold.
type Comparison string

const (
	CompareAtLeast Comparison = "at_least"
	CompareAtMost  Comparison = "at_most"
	CompareAbove   Comparison = "above"
)

// IngredientRule flags an ingredient family by pattern. Patterns are
// normalized lowercase phrases; a rule fires at most once per scan no
// matter how many tokens match.
type IngredientRule struct {
	Name     string          `json:"name"`
	Severity models.Severity `json:"severity"`
	Patterns []string        `json:"patterns"`
}

// NutrientRule scores a numeric nutrition-fact value against a
// threshold. Delta is applied to the score when the comparison holds:
// negative for penalties, positive for bonuses.
type NutrientRule struct {
	Name      string          `json:"name"`
	Nutrient  string          `json:"nutrient"` // matched against fact keys, case-insensitive substring
	Compare   Comparison      `json:"compare"`
	Threshold float64         `json:"threshold"`
	Delta     int             `json:"delta"`
	Severity  models.Severity `json:"severity"`
}

// RuleSet is the full analyzer configuration. Weights are data, not
// code: the defaults below are a starting point, not an authority.
type RuleSet struct {
	BaselineScore     int                     `json:"baselineScore"`
	SeverityPenalties map[models.Severity]int `json:"severityPenalties"`
	Ingredients       []IngredientRule        `json:"ingredients"`
	Nutrients         []NutrientRule          `json:"nutrients"`
}

// DefaultRuleSet mirrors the catalog's health-flag vocabulary: palm
// oil, trans fats, artificial colors, high-fructose corn syrup, plus
// sugar/sodium/fiber thresholds.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		BaselineScore: 100,
		SeverityPenalties: map[models.Severity]int{
			models.SeverityHigh:     20,
			models.SeverityModerate: 10,
			models.SeverityLow:      5,
		},
		Ingredients: []IngredientRule{
			{
				Name:     "PALM_OIL",
				Severity: models.SeverityModerate,
				Patterns: []string{"palm oil", "palm olein", "palm kernel oil", "palmolein", "palm fat"},
			},
			{
				Name:     "TRANS_FATS",
				Severity: models.SeverityHigh,
				Patterns: []string{"hydrogenated", "partially hydrogenated", "hydrogenated vegetable oil", "shortening"},
			},
			{
				Name:     "ARTIFICIAL_COLORS",
				Severity: models.SeverityModerate,
				Patterns: []string{
					"artificial color", "artificial colour", "tartrazine", "sunset yellow",
					"allura red", "brilliant blue", "carmoisine",
					"e102", "e110", "e122", "e129", "e133",
				},
			},
			{
				Name:     "HIGH_FRUCTOSE_CORN_SYRUP",
				Severity: models.SeverityHigh,
				Patterns: []string{"high fructose corn syrup", "hfcs", "glucose fructose syrup"},
			},
			{
				Name:     "ARTIFICIAL_SWEETENERS",
				Severity: models.SeverityLow,
				Patterns: []string{"aspartame", "acesulfame", "saccharin", "sucralose"},
			},
		},
		Nutrients: []NutrientRule{
			{Name: "HIGH_SUGAR", Nutrient: "sugar", Compare: CompareAtLeast, Threshold: 15, Delta: -10, Severity: models.SeverityModerate},
			{Name: "LOW_SUGAR", Nutrient: "sugar", Compare: CompareAtMost, Threshold: 5, Delta: 5, Severity: models.SeverityLow},
			{Name: "HIGH_SODIUM", Nutrient: "sodium", Compare: CompareAbove, Threshold: 400, Delta: -10, Severity: models.SeverityModerate},
			{Name: "GOOD_FIBER", Nutrient: "fiber", Compare: CompareAtLeast, Threshold: 3, Delta: 5, Severity: models.SeverityLow},
		},
	}
}

// LoadRuleSet reads a JSON rule file. An empty path returns defaults.
func LoadRuleSet(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRuleSet(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rule file: %w", err)
	}
	var rules RuleSet
	if err := json.Unmarshal(data, &rules); err != nil {
		return RuleSet{}, fmt.Errorf("parse rule file: %w", err)
	}
	return rules, nil
}

// Validate rejects rule configurations the analyzer cannot score with.
func (r RuleSet) Validate() error {
	if r.BaselineScore < 0 || r.BaselineScore > 100 {
		return fmt.Errorf("baseline score must be within [0,100], got %d", r.BaselineScore)
	}
	for _, severity := range []models.Severity{models.SeverityHigh, models.SeverityModerate, models.SeverityLow} {
		penalty, ok := r.SeverityPenalties[severity]
		if !ok {
			return fmt.Errorf("missing penalty for severity %q", severity)
		}
		if penalty < 0 {
			return fmt.Errorf("penalty for severity %q must be non-negative, got %d", severity, penalty)
		}
	}
	for _, rule := range r.Ingredients {
		if rule.Name == "" {
			return fmt.Errorf("ingredient rule with empty name")
		}
		if len(rule.Patterns) == 0 {
			return fmt.Errorf("ingredient rule %q has no patterns", rule.Name)
		}
		if _, ok := r.SeverityPenalties[rule.Severity]; !ok {
			return fmt.Errorf("ingredient rule %q has unknown severity %q", rule.Name, rule.Severity)
		}
	}
	for _, rule := range r.Nutrients {
		if rule.Name == "" {
			return fmt.Errorf("nutrient rule with empty name")
		}
		if rule.Nutrient == "" {
			return fmt.Errorf("nutrient rule %q has no nutrient key", rule.Name)
		}
		switch rule.Compare {
		case CompareAtLeast, CompareAtMost, CompareAbove:
		default:
			return fmt.Errorf("nutrient rule %q has unknown comparison %q", rule.Name, rule.Compare)
		}
		switch rule.Severity {
		case models.SeverityHigh, models.SeverityModerate, models.SeverityLow:
		default:
			return fmt.Errorf("nutrient rule %q has unknown severity %q", rule.Name, rule.Severity)
		}
	}
	return nil
}
