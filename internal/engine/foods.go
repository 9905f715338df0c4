package engine

import (
	"slices"
	"strings"
	"unicode"
)

// foodTokens lowercases s and splits on anything that is not a letter or digit.
func foodTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tokenForms returns tok plus every singular it could be the plural of.
// English plural endings are ambiguous ("cookies" from cookie, "cherries"
// from cherry, "quiches" from quiche, "peaches" from peach), so all
// candidates are kept and two tokens match when their forms intersect.
func tokenForms(tok string) []string {
	forms := []string{tok}
	n := len(tok)
	if n <= 3 {
		return forms
	}
	switch {
	case strings.HasSuffix(tok, "ies"):
		forms = append(forms, tok[:n-3]+"y", tok[:n-1])
	case strings.HasSuffix(tok, "es"):
		forms = append(forms, tok[:n-2], tok[:n-1])
	case strings.HasSuffix(tok, "ss"), strings.HasSuffix(tok, "us"):
	case strings.HasSuffix(tok, "s"):
		forms = append(forms, tok[:n-1])
	}
	return forms
}

func sameToken(a, b string) bool {
	if a == b {
		return true
	}
	fb := tokenForms(b)
	for _, f := range tokenForms(a) {
		if slices.Contains(fb, f) {
			return true
		}
	}
	return false
}

// NormalizeFood is the canonical spelling used for allergen and avoid sets:
// lowercase tokens joined by single spaces. Plurals are left alone; matching
// folds them.
func NormalizeFood(s string) string {
	return strings.Join(foodTokens(s), " ")
}

// FoodMatches reports whether needle names food: the needle's tokens must
// appear as a contiguous whole-token run inside the food's, with singular and
// plural forms treated alike. "peanuts" matches "peanut butter" and "cookie"
// matches "oatmeal cookies"; "nut" does not match "peanut".
func FoodMatches(needle, food string) bool {
	n := foodTokens(needle)
	f := foodTokens(food)
	if len(n) == 0 || len(n) > len(f) {
		return false
	}
	for start := 0; start+len(n) <= len(f); start++ {
		matched := true
		for i := range n {
			if !sameToken(f[start+i], n[i]) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// sameFood reports whether a and b name the same food up to plural forms.
func sameFood(a, b string) bool {
	return len(foodTokens(a)) == len(foodTokens(b)) && FoodMatches(a, b)
}

// uniqueFoods sorts foods and drops entries that differ from an earlier one
// only by plural form, keeping the first spelling in sort order.
func uniqueFoods(foods []string) []string {
	sorted := uniqueSorted(foods)
	out := make([]string, 0, len(sorted))
	for _, f := range sorted {
		if !slices.ContainsFunc(out, func(o string) bool { return sameFood(o, f) }) {
			out = append(out, f)
		}
	}
	return out
}
