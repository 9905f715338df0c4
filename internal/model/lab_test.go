package model

import (
	"errors"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestRange(t *testing.T) {
	t.Parallel()

	closed := bounds(10, 20)
	open := Range{Min: f(100)}

	if !closed.Contains(10) || !closed.Contains(20) || closed.Contains(20.01) {
		t.Fatal("closed range bounds are inclusive")
	}
	if !open.Contains(1e9) || open.Contains(99.9) {
		t.Fatal("open upper bound")
	}
	if !(Range{}).Empty() || closed.Empty() {
		t.Fatal("Empty")
	}
	if closed.Overlaps(open) || !closed.Overlaps(bounds(20, 30)) {
		t.Fatal("Overlaps")
	}
	if got := open.String(); got != "[100, +inf]" {
		t.Fatalf("String() = %q", got)
	}
}

func TestNormalRangeFor(t *testing.T) {
	t.Parallel()

	rule := LabRule{NormalRanges: []NormalRange{
		{Range: bounds(0, 1), Gender: GenderBoth},
		{Range: bounds(5, 6), Gender: GenderFemale},
	}}

	if r, ok := rule.NormalRangeFor(GenderFemale); !ok || *r.Min != 5 {
		t.Fatalf("female range = %v, %v", r, ok)
	}
	if r, ok := rule.NormalRangeFor(GenderMale); !ok || *r.Min != 0 {
		t.Fatalf("male falls back to both: %v, %v", r, ok)
	}
	if _, ok := (LabRule{}).NormalRangeFor(GenderMale); ok {
		t.Fatal("no ranges must report false")
	}
}

func TestLabRuleValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rule LabRule
		want error
	}{
		{
			name: "valid",
			rule: LabRule{
				TestName: "ldl",
				Interpretations: []Interpretation{
					{Condition: StatusHigh, Range: bounds(130, 189)},
					{Condition: StatusVeryHigh, Range: Range{Min: f(160)}},
				},
			},
		},
		{
			name: "missing name",
			rule: LabRule{},
			want: ErrLabRuleMissingTestName,
		},
		{
			name: "inverted normal range",
			rule: LabRule{TestName: "x", NormalRanges: []NormalRange{{Range: bounds(5, 1)}}},
			want: ErrRangeInverted,
		},
		{
			name: "same tag overlap in shared scope",
			rule: LabRule{TestName: "x", Interpretations: []Interpretation{
				{Condition: StatusLow, Range: bounds(0, 10)},
				{Condition: StatusLow, Range: bounds(5, 12), Gender: GenderFemale},
			}},
			want: ErrAmbiguousInterpretation,
		},
		{
			name: "same tag split by gender",
			rule: LabRule{TestName: "x", Interpretations: []Interpretation{
				{Condition: StatusLow, Range: bounds(0, 10), Gender: GenderMale},
				{Condition: StatusLow, Range: bounds(5, 12), Gender: GenderFemale},
			}},
		},
		{
			name: "bad status",
			rule: LabRule{TestName: "x", Interpretations: []Interpretation{{Condition: StatusUndetermined}}},
			want: ErrInvalidEnum,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseCondition(t *testing.T) {
	t.Parallel()

	cases := map[string]ConditionTag{
		"diabetes_type2":       ConditionDiabetesType2,
		" High Blood Pressure": ConditionHighBloodPressure,
		"vitamin-d-deficiency": ConditionVitaminDDeficiency,
	}
	for in, want := range cases {
		if got, ok := ParseCondition(in); !ok || got != want {
			t.Errorf("ParseCondition(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseCondition("diabetes"); ok {
		t.Error("diabetes is not a tag")
	}
	if len(AllConditions()) != 20 {
		t.Errorf("AllConditions() = %d tags", len(AllConditions()))
	}
}

func bounds(lo, hi float64) Range {
	return Range{Min: &lo, Max: &hi}
}
