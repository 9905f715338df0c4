package engine

import (
	"slices"
	"testing"
)

func TestFoodMatches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		needle, food string
		want         bool
	}{
		{"peanuts", "peanut butter", true},
		{"Peanut", "PEANUTS", true},
		{"nut", "peanut", false},
		{"nut", "mixed nuts", true},
		{"berries", "mixed berry", true},
		{"egg", "Eggs", true},
		{"grapefruit", "grapefruit juice", true},
		{"grapefruit juice", "grapefruit", false},
		{"milk", "oat-milk", true},
		{"shellfish", "fish", false},
		{"fish", "shellfish", false},
		{"tomatoes", "tomato soup", true},
		{"cookie", "oatmeal cookies", true},
		{"cookies", "cookie dough", true},
		{"brownie", "brownies", true},
		{"quiche", "spinach quiches", true},
		{"mousse", "chocolate mousses", true},
		{"peach", "peaches", true},
		{"cherry", "cherries", true},
		{"glass", "glasses", true},
		{"pie", "pies", true},
		{"hummus", "humm", false},
		{"", "egg", false},
		{"egg", "", false},
	}
	for _, tc := range cases {
		if got := FoodMatches(tc.needle, tc.food); got != tc.want {
			t.Errorf("FoodMatches(%q, %q) = %v, want %v", tc.needle, tc.food, got, tc.want)
		}
	}
}

func TestNormalizeFood(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		" Peanut-Butter ": "peanut butter",
		"Cherries":        "cherries",
		"leafy  GREENS":   "leafy greens",
		"!!!":             "",
	}
	for in, want := range cases {
		if got := NormalizeFood(in); got != want {
			t.Errorf("NormalizeFood(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUniqueFoodsFoldsPlurals(t *testing.T) {
	t.Parallel()

	got := uniqueFoods([]string{"peanuts", "cookies", "peanut", "cookie", "peanut butter", "cookie"})
	want := []string{"cookie", "peanut", "peanut butter"}
	if !slices.Equal(got, want) {
		t.Fatalf("uniqueFoods = %v, want %v", got, want)
	}
}
