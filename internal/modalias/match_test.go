package modalias

import (
	"errors"
	"testing"
)

func TestBus(t *testing.T) {
	tests := []struct {
		alias string
		want  string
	}{
		{"pci:v000010DEd*", "pci"},
		{"usb:v0A5Cp2198d*", "usb"},
		{"ssb:v4243id0812rev0D", "ssb"},
		{"nocolon", "nocolon"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Bus(tt.alias); got != tt.want {
			t.Errorf("Bus(%q) = %q, want %q", tt.alias, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		concrete string
		want     bool
	}{
		{
			name:     "wildcard match",
			pattern:  "pci:v000010DEd*sv*sd*bc03sc*i*",
			concrete: "pci:v000010DEd00001234sv00001043sd00008000bc03sc00i00",
			want:     true,
		},
		{
			name:     "vendor mismatch",
			pattern:  "pci:v000010DEd*sv*sd*bc03sc*i*",
			concrete: "pci:v00008086d00001234sv00001043sd00008000bc03sc00i00",
			want:     false,
		},
		{
			name:     "bus mismatch with catch-all",
			pattern:  "usb:*",
			concrete: "pci:v000010DEd00001234sv00001043sd00008000bc03sc00i00",
			want:     false,
		},
		{
			name:     "question mark",
			pattern:  "usb:v0A5Cp219?d*",
			concrete: "usb:v0A5Cp2198d0100dcE0dsc01dp01",
			want:     true,
		},
		{
			name:     "character class",
			pattern:  "pci:v000014E4d0000435[37]sv*",
			concrete: "pci:v000014E4d00004353sv0000103Csd00001509bc02sc80i00",
			want:     true,
		},
		{
			name:     "negated character class",
			pattern:  "pci:v000014E4d0000435[!37]sv*",
			concrete: "pci:v000014E4d00004353sv0000103Csd00001509bc02sc80i00",
			want:     false,
		},
		{
			name:     "star spans slashes",
			pattern:  "dmi:*",
			concrete: "dmi:bvnLENOVO:bvrN1EET/1.2:rnP8Z77-V/LX:",
			want:     true,
		},
		{
			name:     "infix star across slash",
			pattern:  "dmi:*svnLENOVO*",
			concrete: "dmi:bvnLENOVO:bvrN1EET/1.2:svnLENOVO:",
			want:     true,
		},
		{
			name:     "question mark matches slash",
			pattern:  "dmi:*rnP8Z77-V?LX:",
			concrete: "dmi:bvnLENOVO:bvrN1EET/1.2:rnP8Z77-V/LX:",
			want:     true,
		},
		{
			name:     "braces are literal",
			pattern:  "acpi:{ABC}*",
			concrete: "acpi:{ABC}0001:",
			want:     true,
		},
		{
			name:     "braces are not alternation",
			pattern:  "acpi:{A,B}*",
			concrete: "acpi:A0001:",
			want:     false,
		},
		{
			name:     "bus is case sensitive",
			pattern:  "PCI:*",
			concrete: "pci:v000010DEd00001234",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.pattern, tt.concrete)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.concrete, got, tt.want)
			}
		})
	}
}

func TestMatchMalformedPattern(t *testing.T) {
	ok, err := Match("pci:v000010DEd[", "pci:v000010DEd00001234")
	if err == nil {
		t.Fatal("Match() with unterminated class should fail")
	}
	if !errors.Is(err, ErrBadPattern) {
		t.Errorf("error = %v, want ErrBadPattern", err)
	}
	if ok {
		t.Error("malformed pattern must not match")
	}
}
