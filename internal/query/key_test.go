package query

import "testing"

func TestKeyEquality(t *testing.T) {
	tests := []struct {
		name string
		a, b Key
		want bool
	}{
		{"identical parts", K("search", "music", "", 20), K("search", "music", "", 20), true},
		{"different keyword", K("search", "music", "", 20), K("search", "jazz", "", 20), false},
		{"absent differs from empty string", K("search", nil, "", 20), K("search", "", "", 20), false},
		{"different length", K("search", "music"), K("search", "music", 0), false},
		{"number vs string", K("search", 1), K("search", "1"), false},
		{"empty keys", K(), K(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
			stringsEqual := tt.a.String() == tt.b.String()
			if stringsEqual != tt.want {
				t.Errorf("String equality = %v, want %v (%q vs %q)", stringsEqual, tt.want, tt.a, tt.b)
			}
		})
	}
}

func TestKeyStringIsUnambiguous(t *testing.T) {
	// Parts containing the separator must not collide with split parts.
	a := K("a/b")
	b := K("a", "b")
	if a.String() == b.String() {
		t.Errorf("keys collide: %q", a)
	}
}
