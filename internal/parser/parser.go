// Package parser turns raw OCR text into a structured label.
//
// Parsing is deliberately total: any input, including garbage or the
// empty string, produces a valid ParsedLabel. Sparse input degrades to
// empty fields rather than errors so the scan pipeline always reaches
// the analysis step.
package parser

import (
	"regexp"
	"strings"

	"go-label-scan/pkg/models"
)

// Number of lines after the "Ingredients:" marker that may continue
// the ingredient list before a new section is assumed.
const ingredientContinuationLines = 4

var (
	ingredientsMarkerRe = regexp.MustCompile(`(?i)ingredients?:`)
	sectionMarkerRe     = regexp.MustCompile(`(?i)^(nutrition|allergen|warning|serving|storage)\b[^:]*:`)
	nutritionFactRe     = regexp.MustCompile(`(?i)^([a-z\s]+)[\s:]+(\d+\.?\d*\s*[a-z%]*)`)
	warningRe           = regexp.MustCompile(`(?i)contains?:|allergen|warning`)
	ingredientSplitRe   = regexp.MustCompile(`[,;()]`)
	numericTokenRe      = regexp.MustCompile(`^\d+%?$`)
	normalizeRe         = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Parse extracts ingredients, nutrition facts, warnings and a candidate
// product name from a raw OCR text blob.
func Parse(text string) models.ParsedLabel {
	lines := splitLines(text)

	parsed := models.ParsedLabel{
		Ingredients:    []string{},
		NutritionFacts: map[string]string{},
		Warnings:       []string{},
	}

	// Product name is usually the first meaningful line
	if len(lines) > 0 {
		parsed.ProductName = lines[0]
	}

	parsed.Ingredients = extractIngredients(lines)

	for _, line := range lines {
		// Match patterns like "Calories: 150" or "Total Fat 5g";
		// later matches for the same key overwrite earlier ones
		if m := nutritionFactRe.FindStringSubmatch(line); m != nil {
			parsed.NutritionFacts[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
		}
		if warningRe.MatchString(line) {
			parsed.Warnings = append(parsed.Warnings, line)
		}
	}

	return parsed
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// extractIngredients locates the "Ingredients:" marker and gathers the
// list text, following up to ingredientContinuationLines continuation
// lines. A continuation ends at a new section marker or at a line that
// already reads as a nutrition fact ("Sodium 5mg" under the ingredient
// block belongs to the nutrition table, not the ingredient list).
func extractIngredients(lines []string) []string {
	markerIndex := -1
	for i, line := range lines {
		if ingredientsMarkerRe.MatchString(line) {
			markerIndex = i
			break
		}
	}
	if markerIndex == -1 {
		return []string{}
	}

	text := strings.TrimSpace(ingredientsMarkerRe.ReplaceAllString(lines[markerIndex], ""))
	for i := markerIndex + 1; i < len(lines) && i <= markerIndex+ingredientContinuationLines; i++ {
		line := lines[i]
		if sectionMarkerRe.MatchString(line) || nutritionFactRe.MatchString(line) {
			break
		}
		text += " " + line
	}

	ingredients := []string{}
	for _, token := range ingredientSplitRe.Split(text, -1) {
		token = strings.TrimSpace(token)
		if len(token) < 3 || numericTokenRe.MatchString(token) {
			continue
		}
		ingredients = append(ingredients, token)
	}
	return ingredients
}

// NormalizeIngredient lowercases an ingredient token and strips
// punctuation so flagged-ingredient patterns match OCR output.
func NormalizeIngredient(ingredient string) string {
	normalized := normalizeRe.ReplaceAllString(strings.ToLower(ingredient), "")
	return strings.Join(strings.Fields(normalized), " ")
}
