package merge

import "testing"

func TestMatchWaterfall(t *testing.T) {
	a := Candidate{GAAP: "us-gaap:Revenues", Label: "Total net sales", Values: map[string]*float64{"2023": ptr(100)}}

	tests := []struct {
		name    string
		b       Candidate
		overlap []string
		ignore  bool
		want    bool
	}{
		{
			name: "equal code",
			b:    Candidate{GAAP: "us-gaap:Revenues", Label: "Revenue"},
			want: true,
		},
		{
			name:   "equal code ignored on collision",
			b:      Candidate{GAAP: "us-gaap:Revenues", Label: "Revenue"},
			ignore: true,
			want:   false,
		},
		{
			name: "equal normalized label",
			b:    Candidate{Label: "TOTAL NET SALES:"},
			want: true,
		},
		{
			name:    "identical evidence on overlap",
			b:       Candidate{Label: "Net revenues", Values: map[string]*float64{"2023": ptr(100), "2024": ptr(9)}},
			overlap: []string{"2023"},
			want:    true,
		},
		{
			name:    "different evidence",
			b:       Candidate{Label: "Net revenues", Values: map[string]*float64{"2023": ptr(101)}},
			overlap: []string{"2023"},
			want:    false,
		},
		{
			name:    "zero is not evidence",
			b:       Candidate{Label: "Other", Values: map[string]*float64{"2023": ptr(0)}},
			overlap: []string{"2023"},
			want:    false,
		},
		{
			name: "empty labels are not equal",
			b:    Candidate{GAAP: "us-gaap:CostOfRevenue"},
			want: false,
		},
		{
			name: "no overlap",
			b:    Candidate{Label: "Net revenues", Values: map[string]*float64{"2022": ptr(100)}},
			want: false,
		},
	}
	codeOnly := Candidate{GAAP: "us-gaap:Revenues"}
	if Match(codeOnly, Candidate{GAAP: "us-gaap:CostOfRevenue"}, nil, false) {
		t.Error("code-only candidates with different codes matched")
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(a, tt.b, tt.overlap, tt.ignore); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameEvidenceBothZero(t *testing.T) {
	a := map[string]*float64{"2023": ptr(0), "2022": nil}
	b := map[string]*float64{"2023": ptr(0), "2022": nil}
	if sameEvidence(a, b, []string{"2022", "2023"}) {
		t.Error("empty evidence sets must not match")
	}
}

func TestOverlapPeriods(t *testing.T) {
	a := map[string]*float64{"2024": nil, "2023": ptr(1), "2022": ptr(2)}
	b := map[string]*float64{"2023": ptr(1), "2022": nil, "2021": ptr(3)}
	got := OverlapPeriods(a, b)
	if len(got) != 2 || got[0] != "2022" || got[1] != "2023" {
		t.Errorf("OverlapPeriods = %v, want [2022 2023]", got)
	}
}

func TestDetectGAAPCollisions(t *testing.T) {
	rows := []FlatRow{
		{ItemGAAP: "us-gaap:Other", ItemLabel: "Other income"},
		{ItemGAAP: "us-gaap:Other", ItemLabel: "Other expense"},
		{ItemGAAP: "us-gaap:NetIncome", ItemLabel: "Net income"},
		{ItemLabel: "Untagged"},
		{ItemLabel: "Untagged again"},
	}
	got := DetectGAAPCollisions(rows)
	if len(got) != 1 || !got["us-gaap:Other"] {
		t.Errorf("DetectGAAPCollisions = %v, want only us-gaap:Other", got)
	}
}

func TestFlagDuplicateSectionCodes(t *testing.T) {
	rows := []FlatRow{
		{SectionGAAP: "us-gaap:Ops", SectionLabel: "Operating activities", ItemLabel: "a"},
		{SectionGAAP: "us-gaap:Ops", SectionLabel: "Operating Activities:", ItemLabel: "b"},
		{SectionGAAP: "us-gaap:Ops", SectionLabel: "Investing activities", ItemLabel: "c"},
		{SectionGAAP: "us-gaap:Fin", SectionLabel: "Financing activities", ItemLabel: "d"},
	}
	if n := FlagDuplicateSectionCodes(rows); n != 1 {
		t.Fatalf("expected 1 blanked row, got %d", n)
	}
	if rows[1].SectionGAAP != "us-gaap:Ops" {
		t.Error("same normalized label must keep its code")
	}
	if rows[2].SectionGAAP != "" {
		t.Error("reused code on a different label must be blanked")
	}
	if rows[3].SectionGAAP != "us-gaap:Fin" {
		t.Error("unrelated code must be kept")
	}
}

func TestFlattenPositionsRestartPerSection(t *testing.T) {
	stmt := statement([]string{"Sep. 28, 2024", "Sep. 30, 2023", "FY 2024"},
		section("", "Revenue",
			item("us-gaap:Products", "Products", map[string]float64{"Sep. 28, 2024": 1}),
			item("us-gaap:Services", "Services", map[string]float64{"Sep. 28, 2024": 2}),
		),
		section("", "Costs",
			item("", "Cost of sales", map[string]float64{"Sep. 30, 2023": 3}),
		),
	)
	periods, rows := Flatten(stmt)
	if len(periods) != 2 || periods[0] != "2024" || periods[1] != "2023" {
		t.Errorf("periods = %v, want [2024 2023]", periods)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Position != 0 || rows[1].Position != 1 || rows[2].Position != 0 {
		t.Errorf("positions = %d,%d,%d, want 0,1,0", rows[0].Position, rows[1].Position, rows[2].Position)
	}
	if _, ok := rows[2].Values["2023"]; !ok {
		t.Errorf("value keys must be normalized, got %v", rows[2].Values)
	}
}
