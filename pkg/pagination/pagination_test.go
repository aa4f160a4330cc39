package pagination

import "testing"

func TestParseLimit(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", DefaultLimit, false},
		{"5", 5, false},
		{" 7 ", 7, false},
		{"1000", MaxLimit, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseLimit(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseLimit(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseLimit(%q) = %d, %v; want %d", tc.raw, got, err, tc.want)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	if NormalizeLimit(0) != DefaultLimit || NormalizeLimit(500) != MaxLimit || NormalizeLimit(9) != 9 {
		t.Fatal("unexpected normalization")
	}
}
