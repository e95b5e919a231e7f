package alternatives

import (
	"reflect"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int // sign only
	}{
		{"updates before stable", "drv-updates", "drv", -1},
		{"stable after updates", "drv", "drv-updates", 1},
		{"stable before experimental", "drv", "drv-experimental", -1},
		{"experimental after stable", "drv-experimental", "drv", 1},
		{"updates before experimental", "drv-updates", "drv-experimental", -1},
		{"name tie-break", "akmod-nvidia", "kmod-nvidia", -1},
		{"equal", "drv", "drv", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.a, tt.b)
			if sign(got) != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestSort(t *testing.T) {
	names := []string{"drv-experimental", "drv", "drv-updates"}
	Sort(names)

	want := []string{"drv-updates", "drv", "drv-experimental"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Sort() = %v, want %v", names, want)
	}
}

func TestSortIsDeterministic(t *testing.T) {
	orders := [][]string{
		{"b-kmod-nvidia", "a-kmod-nvidia", "kmod-nvidia-experimental-updates"},
		{"kmod-nvidia-experimental-updates", "a-kmod-nvidia", "b-kmod-nvidia"},
		{"a-kmod-nvidia", "kmod-nvidia-experimental-updates", "b-kmod-nvidia"},
	}
	want := []string{"kmod-nvidia-experimental-updates", "a-kmod-nvidia", "b-kmod-nvidia"}

	for _, names := range orders {
		Sort(names)
		if !reflect.DeepEqual(names, want) {
			t.Errorf("Sort() = %v, want %v", names, want)
		}
	}
}

func TestRecommend(t *testing.T) {
	flags := Recommend([]string{"drv", "drv-experimental", "drv-updates"})

	want := map[string]bool{
		"drv-updates":      true,
		"drv":              false,
		"drv-experimental": false,
	}
	if !reflect.DeepEqual(flags, want) {
		t.Errorf("Recommend() = %v, want %v", flags, want)
	}

	if Recommend(nil) != nil {
		t.Error("Recommend(nil) should be nil")
	}
}

func TestRecommendExactlyOne(t *testing.T) {
	inputs := [][]string{
		{"akmod-nvidia"},
		{"akmod-nvidia", "kmod-nvidia"},
		{"kmod-nvidia-experimental", "kmod-nvidia-340xx"},
	}

	for _, names := range inputs {
		count := 0
		for _, rec := range Recommend(names) {
			if rec {
				count++
			}
		}
		if count != 1 {
			t.Errorf("Recommend(%v) flagged %d packages, want 1", names, count)
		}
	}
}

func TestFamilyMembers(t *testing.T) {
	names := []string{"broadcom-wl", "akmod-nvidia", "kmod-catalyst", "kmod-nvidia-updates"}

	nvidia := Families[0].Members(names)
	// kmod-nvidia-updates does not end with the family suffix.
	if want := []string{"akmod-nvidia"}; !reflect.DeepEqual(nvidia, want) {
		t.Errorf("nvidia Members() = %v, want %v", nvidia, want)
	}

	catalyst := Families[1].Members(names)
	if want := []string{"kmod-catalyst"}; !reflect.DeepEqual(catalyst, want) {
		t.Errorf("catalyst Members() = %v, want %v", catalyst, want)
	}
}
