package invoice

import "testing"

// FuzzParse checks that arbitrary input does not panic and that a parsed
// invoice renders to a string that parses back to the same string.
func FuzzParse(f *testing.F) {
	f.Add(goldenInvoice)
	f.Add(Prefix)
	f.Add("MINAAAA")

	f.Fuzz(func(t *testing.T, s string) {
		inv, err := Parse(s)
		if err != nil {
			return
		}
		out := inv.String()
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
