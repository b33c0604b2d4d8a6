package keys

import "testing"

func TestDeriveSelectsStrategy(t *testing.T) {
	tests := []struct {
		name     string
		ip       string
		username string
		enabled  bool
		want     Key
	}{
		{
			name:    "address only when username disabled",
			ip:      "1.2.3.4",
			enabled: false,
			want:    ByAddress("1.2.3.4"),
		},
		{
			name:     "username ignored when disabled",
			ip:       "1.2.3.4",
			username: "alice",
			enabled:  false,
			want:     ByAddress("1.2.3.4"),
		},
		{
			name:     "address and username when enabled",
			ip:       "1.2.3.4",
			username: "alice",
			enabled:  true,
			want:     ByAddressAndUsername("1.2.3.4", "alice"),
		},
		{
			name:     "blank username falls back to address",
			ip:       "1.2.3.4",
			username: "   ",
			enabled:  true,
			want:     ByAddress("1.2.3.4"),
		},
		{
			name:     "fields are trimmed",
			ip:       " 10.0.0.1 ",
			username: " bob\t",
			enabled:  true,
			want:     ByAddressAndUsername("10.0.0.1", "bob"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.ip, tt.username, tt.enabled)
			if got != tt.want {
				t.Fatalf("Derive(%q, %q, %v) = %+v, want %+v", tt.ip, tt.username, tt.enabled, got, tt.want)
			}
		})
	}
}

func TestKindsNeverCompareEqual(t *testing.T) {
	a := ByAddress("1.2.3.4")
	b := ByAddressAndUsername("1.2.3.4", "")
	if a == b {
		t.Fatal("address key must differ from address+username key with empty username")
	}

	seen := map[Key]int{}
	seen[ByAddress("1.2.3.4")]++
	seen[ByAddressAndUsername("1.2.3.4", "alice")]++
	seen[ByAddress("1.2.3.4")]++
	if len(seen) != 2 {
		t.Fatalf("expected 2 distinct keys, got %d", len(seen))
	}
	if seen[ByAddress("1.2.3.4")] != 2 {
		t.Fatalf("expected structural equality for repeated address keys")
	}
}

func TestKeyString(t *testing.T) {
	if got := ByAddress("1.2.3.4").String(); got != "1.2.3.4" {
		t.Fatalf("unexpected address key string %q", got)
	}
	if got := ByAddressAndUsername("1.2.3.4", "alice").String(); got != "1.2.3.4;alice" {
		t.Fatalf("unexpected address+username key string %q", got)
	}
	if KindAddress.String() != "address" || KindAddressUsername.String() != "address_username" {
		t.Fatal("unexpected kind names")
	}
	if Kind(0).String() != "unknown" {
		t.Fatal("zero kind should render as unknown")
	}
}
