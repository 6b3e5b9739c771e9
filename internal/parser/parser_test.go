package parser

import (
	"reflect"
	"testing"
)

func TestParse_EmptyInput(t *testing.T) {
	parsed := Parse("")

	if parsed.ProductName != "" {
		t.Errorf("Expected empty product name, got %q", parsed.ProductName)
	}
	if len(parsed.Ingredients) != 0 {
		t.Errorf("Expected no ingredients, got %v", parsed.Ingredients)
	}
	if len(parsed.NutritionFacts) != 0 {
		t.Errorf("Expected no nutrition facts, got %v", parsed.NutritionFacts)
	}
	if len(parsed.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", parsed.Warnings)
	}
}

func TestParse_WhitespaceOnlyInput(t *testing.T) {
	parsed := Parse("   \n\t\n   ")

	if parsed.ProductName != "" {
		t.Errorf("Expected empty product name, got %q", parsed.ProductName)
	}
	if len(parsed.Ingredients) != 0 {
		t.Errorf("Expected no ingredients, got %v", parsed.Ingredients)
	}
}

func TestParse_ProductNameIsFirstLine(t *testing.T) {
	parsed := Parse("\n\n  Pintola Peanut Butter  \nIngredients: Peanuts")

	if parsed.ProductName != "Pintola Peanut Butter" {
		t.Errorf("Expected product name %q, got %q", "Pintola Peanut Butter", parsed.ProductName)
	}
}

func TestParse_IngredientExtraction(t *testing.T) {
	parsed := Parse("Ingredients: Almonds, Cashews, Walnuts, Sea Salt")

	expected := []string{"Almonds", "Cashews", "Walnuts", "Sea Salt"}
	if !reflect.DeepEqual(parsed.Ingredients, expected) {
		t.Errorf("Expected ingredients %v, got %v", expected, parsed.Ingredients)
	}
}

func TestParse_IngredientContinuationLines(t *testing.T) {
	text := "Trail Mix\n" +
		"Ingredients: Peanuts, Raisins,\n" +
		"Dried Cranberries, Sunflower Seeds\n" +
		"Nutrition: per serving\n" +
		"Chocolate Chips"

	parsed := Parse(text)

	// Continuation stops at the "Nutrition:" section marker, so the
	// trailing line never joins the list
	expected := []string{"Peanuts", "Raisins", "Dried Cranberries", "Sunflower Seeds"}
	if !reflect.DeepEqual(parsed.Ingredients, expected) {
		t.Errorf("Expected ingredients %v, got %v", expected, parsed.Ingredients)
	}
}

func TestParse_IngredientContinuationStopsAtNutritionFact(t *testing.T) {
	text := "Ingredients: Roasted Peanuts (100%)\nSodium 5mg\nSugar 6g"

	parsed := Parse(text)

	expected := []string{"Roasted Peanuts"}
	if !reflect.DeepEqual(parsed.Ingredients, expected) {
		t.Errorf("Expected ingredients %v, got %v", expected, parsed.Ingredients)
	}
	if parsed.NutritionFacts["Sodium"] != "5mg" {
		t.Errorf("Expected Sodium 5mg in nutrition facts, got %v", parsed.NutritionFacts)
	}
	if parsed.NutritionFacts["Sugar"] != "6g" {
		t.Errorf("Expected Sugar 6g in nutrition facts, got %v", parsed.NutritionFacts)
	}
}

func TestParse_NoIngredientsMarker(t *testing.T) {
	parsed := Parse("Granola Bar\nOats, Honey, Almonds")

	if len(parsed.Ingredients) != 0 {
		t.Errorf("Expected no ingredients without a marker, got %v", parsed.Ingredients)
	}
}

func TestParse_DropsShortAndNumericTokens(t *testing.T) {
	parsed := Parse("Ingredients: Oats (90), Salt, A, 100%")

	for _, ingredient := range parsed.Ingredients {
		if ingredient == "90" || ingredient == "A" || ingredient == "100%" {
			t.Errorf("Token %q should have been discarded", ingredient)
		}
	}
	expected := []string{"Oats", "Salt"}
	if !reflect.DeepEqual(parsed.Ingredients, expected) {
		t.Errorf("Expected ingredients %v, got %v", expected, parsed.Ingredients)
	}
}

func TestParse_NutritionFacts(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		key   string
		value string
	}{
		{name: "space separated with unit", line: "Sodium 200mg", key: "Sodium", value: "200mg"},
		{name: "colon separated", line: "Calories: 150", key: "Calories", value: "150"},
		{name: "multi word key", line: "Total Fat 5g", key: "Total Fat", value: "5g"},
		{name: "percent value", line: "Daily Value 20%", key: "Daily Value", value: "20%"},
		{name: "decimal value", line: "Protein 7.5g", key: "Protein", value: "7.5g"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.line)
			if got := parsed.NutritionFacts[tt.key]; got != tt.value {
				t.Errorf("Expected %q -> %q, got %q (all facts: %v)", tt.key, tt.value, got, parsed.NutritionFacts)
			}
		})
	}
}

func TestParse_LaterNutritionFactOverwrites(t *testing.T) {
	parsed := Parse("Sodium 200mg\nSodium 250mg")

	if parsed.NutritionFacts["Sodium"] != "250mg" {
		t.Errorf("Expected later match to overwrite, got %q", parsed.NutritionFacts["Sodium"])
	}
}

func TestParse_Warnings(t *testing.T) {
	text := "Choco Bites\n" +
		"Contains: milk, soy\n" +
		"Allergen information: made in a facility that processes nuts\n" +
		"Warning: may contain traces of peanuts\n" +
		"Best before: see package"

	parsed := Parse(text)

	if len(parsed.Warnings) != 3 {
		t.Fatalf("Expected 3 warnings, got %d: %v", len(parsed.Warnings), parsed.Warnings)
	}
	if parsed.Warnings[0] != "Contains: milk, soy" {
		t.Errorf("Expected verbatim warning line, got %q", parsed.Warnings[0])
	}
}

func TestParse_EndToEndLabel(t *testing.T) {
	text := "Pintola Peanut Butter\nIngredients: Roasted Peanuts (100%)\nSodium 5mg\nSugar 6g"

	parsed := Parse(text)

	if parsed.ProductName != "Pintola Peanut Butter" {
		t.Errorf("Expected product name %q, got %q", "Pintola Peanut Butter", parsed.ProductName)
	}
	if !reflect.DeepEqual(parsed.Ingredients, []string{"Roasted Peanuts"}) {
		t.Errorf("Expected ingredients [Roasted Peanuts], got %v", parsed.Ingredients)
	}
	if parsed.NutritionFacts["Sodium"] != "5mg" || parsed.NutritionFacts["Sugar"] != "6g" {
		t.Errorf("Unexpected nutrition facts: %v", parsed.NutritionFacts)
	}
	if len(parsed.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", parsed.Warnings)
	}
}

func TestNormalizeIngredient(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "Palm Oil", expected: "palm oil"},
		{input: "  Hydrogenated  Oils!  ", expected: "hydrogenated oils"},
		{input: "E-102", expected: "e102"},
		{input: "***", expected: ""},
	}

	for _, tt := range tests {
		if got := NormalizeIngredient(tt.input); got != tt.expected {
			t.Errorf("NormalizeIngredient(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
