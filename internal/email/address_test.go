package email

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"simple", "user@example.com", "user@example.com", true},
		{"with name", "User Name <user@example.com>", "user@example.com", true},
		{"padded", "  user@example.com ", "user@example.com", true},
		{"no at", "invalid", "", false},
		{"empty local part", "@example.com", "", false},
		{"empty domain", "user@", "", false},
		{"empty", "", "", false},
		{"spaces", "not an email", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseAddress(tc.raw)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("ParseAddress(%q) = %q, %v, want %q, %v", tc.raw, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"user@EXAMPLE.COM", "example.com"},
		{"User <user@Sub.Example.Com>", "sub.example.com"},
		{"invalid", ""},
	}

	for _, tc := range tests {
		if got := Domain(tc.raw); got != tc.want {
			t.Errorf("Domain(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
