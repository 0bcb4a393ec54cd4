//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseUserID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
//
// Justification: Trust boundary functions must handle arbitrary input safely.
func FuzzParseUserID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseUserID(input)
		if err == nil {
			roundTrip, err2 := ParseUserID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzNormalizePhone checks the normalizer is total and idempotent.
func FuzzNormalizePhone(f *testing.F) {
	f.Add("0712345678")
	f.Add("+254 712 345 678")
	f.Add("")
	f.Add("abc")

	f.Fuzz(func(t *testing.T, input string) {
		once := NormalizePhone(input)
		for _, r := range once {
			if r < '0' || r > '9' {
				t.Fatalf("normalized value %q contains non-digit", once)
			}
		}
		if twice := NormalizePhone(once); twice != once {
			t.Errorf("not idempotent: %q -> %q -> %q", input, once, twice)
		}
	})
}
