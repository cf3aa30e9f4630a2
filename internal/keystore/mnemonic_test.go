package keystore

import (
	"encoding/hex"
	"strings"
	"testing"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerateMnemonic(t *testing.T) {
	m1, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	if words := strings.Fields(m1); len(words) != 24 {
		t.Errorf("word count = %d, want 24", len(words))
	}
	if !ValidateMnemonic(m1) {
		t.Error("generated mnemonic should validate")
	}

	m2, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	if m1 == m2 {
		t.Error("two generated mnemonics should not be identical")
	}
}

func TestSpendSeedFromMnemonic(t *testing.T) {
	// First half of the BIP-39 test vector seed for this mnemonic.
	want := "5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc1"

	seed, err := SpendSeedFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("SpendSeedFromMnemonic() error: %v", err)
	}
	if got := hex.EncodeToString(seed); got != want {
		t.Errorf("seed = %s, want %s", got, want)
	}

	other, err := SpendSeedFromMnemonic(testMnemonic, "passphrase")
	if err != nil {
		t.Fatalf("SpendSeedFromMnemonic() error: %v", err)
	}
	if hex.EncodeToString(other) == want {
		t.Error("passphrase should change the seed")
	}
}

func TestSpendSeedFromMnemonic_Invalid(t *testing.T) {
	bad := strings.Replace(testMnemonic, "about", "abandon", 1)
	if _, err := SpendSeedFromMnemonic(bad, ""); err == nil {
		t.Error("invalid checksum should fail")
	}
}
