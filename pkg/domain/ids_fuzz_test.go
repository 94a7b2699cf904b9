package domain

import "testing"

// FuzzParseUserID checks that parsing never panics and valid results round-trip.
func FuzzParseUserID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseUserID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatal("parse returned nil id without error")
		}
		again, err := ParseUserID(id.String())
		if err != nil || again != id {
			t.Fatalf("round trip failed for %q", input)
		}
	})
}
