// Package analyzer scores a parsed label against a configurable rule
// set. Analysis is a pure function: identical input and rules always
// produce identical output, so the only nondeterminism in the pipeline
// stays inside the OCR engine.
package analyzer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/arbovm/levenshtein"

	"go-label-scan/internal/parser"
	"go-label-scan/pkg/models"
)

type Analyzer struct {
	rules RuleSet
}

// New validates the rule set up front so a misconfigured analyzer
// fails at construction, not per scan.
func New(rules RuleSet) (*Analyzer, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{rules: rules}, nil
}

var numericValueRe = regexp.MustCompile(`-?\d+(\.\d+)?`)

// Analyze scores a parsed label. The score starts at the configured
// baseline, takes one penalty per matched ingredient rule, applies
// nutrient threshold deltas, and is clamped to [0,100].
func (a *Analyzer) Analyze(label models.ParsedLabel) (models.AnalysisResult, error) {
	score := a.rules.BaselineScore
	findings := []models.Finding{}

	for _, rule := range a.rules.Ingredients {
		evidence, matched := a.matchIngredientRule(rule, label.Ingredients)
		if !matched {
			continue
		}
		penalty := a.rules.SeverityPenalties[rule.Severity]
		score -= penalty
		findings = append(findings, models.Finding{
			Rule:         rule.Name,
			Severity:     rule.Severity,
			EvidenceText: evidence,
			ScoreDelta:   -penalty,
		})
	}

	factKeys := sortedKeys(label.NutritionFacts)
	for _, rule := range a.rules.Nutrients {
		finding, matched := matchNutrientRule(rule, factKeys, label.NutritionFacts)
		if !matched {
			continue
		}
		score += finding.ScoreDelta
		findings = append(findings, finding)
	}

	return models.AnalysisResult{
		OverallScore: clampScore(score),
		Findings:     findings,
	}, nil
}

// matchIngredientRule reports the first ingredient token matching any
// of the rule's patterns. Matching is substring over normalized text
// with a small Levenshtein allowance so common OCR misreads ("palrn
// oil") still flag.
func (a *Analyzer) matchIngredientRule(rule IngredientRule, ingredients []string) (string, bool) {
	for _, ingredient := range ingredients {
		normalized := parser.NormalizeIngredient(ingredient)
		if normalized == "" {
			continue
		}
		for _, pattern := range rule.Patterns {
			if matchesPattern(normalized, pattern) {
				return ingredient, true
			}
		}
	}
	return "", false
}

func matchesPattern(token, pattern string) bool {
	if strings.Contains(token, pattern) {
		return true
	}
	// Fuzzy fallback only for patterns long enough that a one or two
	// character edit cannot turn an unrelated word into a match
	if len(pattern) < 5 {
		return false
	}
	maxDistance := 1
	if len(pattern) >= 8 {
		maxDistance = 2
	}
	if levenshtein.Distance(token, pattern) <= maxDistance {
		return true
	}
	// Slide over token windows of the pattern's word count so a fuzzy
	// phrase inside a longer token is still found
	patternWords := len(strings.Fields(pattern))
	tokenWords := strings.Fields(token)
	for i := 0; i+patternWords <= len(tokenWords); i++ {
		window := strings.Join(tokenWords[i:i+patternWords], " ")
		if levenshtein.Distance(window, pattern) <= maxDistance {
			return true
		}
	}
	return false
}

func matchNutrientRule(rule NutrientRule, keys []string, facts map[string]string) (models.Finding, bool) {
	for _, key := range keys {
		if !strings.Contains(strings.ToLower(key), strings.ToLower(rule.Nutrient)) {
			continue
		}
		value, ok := parseNumericValue(facts[key])
		if !ok {
			// Unparseable values are ignored, not errors
			continue
		}
		if !compare(rule.Compare, value, rule.Threshold) {
			continue
		}
		return models.Finding{
			Rule:         rule.Name,
			Severity:     rule.Severity,
			EvidenceText: key + " " + facts[key],
			ScoreDelta:   rule.Delta,
		}, true
	}
	return models.Finding{}, false
}

func compare(cmp Comparison, value, threshold float64) bool {
	switch cmp {
	case CompareAtLeast:
		return value >= threshold
	case CompareAtMost:
		return value <= threshold
	case CompareAbove:
		return value > threshold
	}
	return false
}

// parseNumericValue strips the unit suffix from values like "200mg"
// or "6 g" and returns the leading number.
func parseNumericValue(raw string) (float64, bool) {
	match := numericValueRe.FindString(raw)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func sortedKeys(facts map[string]string) []string {
	keys := make([]string, 0, len(facts))
	for key := range facts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
