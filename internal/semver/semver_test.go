package semver

import "testing"

func TestCanonicalCollapsesShortVersions(t *testing.T) {
	if Canonical("1.0") != Canonical("1.0.0") {
		t.Fatalf("expected 1.0 and 1.0.0 to share a canonical form")
	}
	if Canonical("1.0.0-Beta") != "1.0.0-beta" {
		t.Fatalf("expected prerelease labels to be lower-cased, got %q", Canonical("1.0.0-Beta"))
	}
	if Canonical(" 1.2.3.4 ") != "1.2.3.4" {
		t.Fatalf("expected a non-zero revision to be kept, got %q", Canonical(" 1.2.3.4 "))
	}
	if Canonical("Not-A-Version") != "not-a-version" {
		t.Fatalf("expected unparseable versions to fall back to trimmed text, got %q", Canonical("Not-A-Version"))
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "1", want: "1.0.0"},
		{raw: "1.0", want: "1.0.0"},
		{raw: "1.0.0.0", want: "1.0.0"},
		{raw: "1.2.3.4", want: "1.2.3.4"},
		{raw: "1.2.3.4-Beta.1", want: "1.2.3.4-Beta.1"},
		{raw: "1.0.0+sha.5114f85", want: "1.0.0"},
		{raw: "1.0.0.0-rc1+build", want: "1.0.0-rc1"},
		{raw: "", wantErr: true},
		{raw: "1.2.3.4.5", wantErr: true},
		{raw: "1.2.3.x", wantErr: true},
		{raw: "not-a-version", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q, got %q", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestMinimumOfRange(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "1.1", want: "1.1"},
		{raw: "[1.2]", want: "1.2"},
		{raw: "[1.0.0, 2.0.0)", want: "1.0.0"},
		{raw: "[3.0, )", want: "3.0"},
		{raw: "1.0.0.0", want: "1.0.0.0"},
		{raw: "[1.2.3.4]", want: "1.2.3.4"},
		{raw: "(1.0, 2.0)", wantErr: true},
		{raw: "(, 2.0]", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "not-a-version", wantErr: true},
	}
	for _, tt := range tests {
		got, err := MinimumOfRange(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("MinimumOfRange(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
