package address

import "testing"

// FuzzParse checks that arbitrary input does not panic and that a parsed
// address renders to a string that parses back to the same string.
func FuzzParse(f *testing.F) {
	f.Add("XIN12jVjGbD3wrDT6L19fyB486MyMfMdNjc148QTEgR2qypJqKtTHnBDUjubAxFytva52tzNzog1PChUSJ1vFMgt165qXJA")
	f.Add("MIX3QEezkMEfKTnofT28SBMW6MftV3WSRF")
	f.Add("MIX2K374pTFjyUUcf985pKJfNqERVBsPi4Xq5P3g1WyoW5aQZfsbmz39")
	f.Add("XIN")

	f.Fuzz(func(t *testing.T, s string) {
		a, err := Parse(s)
		if err != nil {
			return
		}
		out := a.String()
		if out == "" {
			return
		}
		again, err := Parse(out)
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", out, err)
		}
		if again.String() != out {
			t.Fatalf("unstable rendering: %q then %q", out, again.String())
		}
	})
}
