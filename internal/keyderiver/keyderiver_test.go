package keyderiver

import (
	"strings"
	"testing"
)

func fixedSecret(t *testing.T, last byte, compressed bool) Secret {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = last
	s, err := ImportSecret(raw, compressed)
	if err != nil {
		t.Fatalf("ImportSecret: %v", err)
	}
	return s
}

func TestImportSecretRejectsWrongLength(t *testing.T) {
	if _, err := ImportSecret(make([]byte, 31), true); err == nil {
		t.Error("expected error for 31-byte input")
	}
	if _, err := ImportSecret(make([]byte, 33), true); err == nil {
		t.Error("expected error for 33-byte input")
	}
}

func TestImportSecretRejectsZero(t *testing.T) {
	if _, err := ImportSecret(make([]byte, 32), true); err != ErrInvalidRange {
		t.Errorf("expected ErrInvalidRange for the zero secret, got %v", err)
	}
}

func TestImportSecretRejectsCurveOrderAndAbove(t *testing.T) {
	raw := curveOrderN.Bytes()
	if _, err := ImportSecret(raw, true); err != ErrInvalidRange {
		t.Errorf("expected ErrInvalidRange for a secret equal to N, got %v", err)
	}
}

func TestImportSecretAcceptsOne(t *testing.T) {
	raw := make([]byte, 32)
	raw[31] = 1
	if _, err := ImportSecret(raw, true); err != nil {
		t.Errorf("expected the secret 1 to be valid, got %v", err)
	}
}

func TestAddressMainnetVersionByte(t *testing.T) {
	d := New(Mainnet)
	secret := fixedSecret(t, 1, true)

	address, err := d.Address(secret)
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if address == "" {
		t.Fatal("expected a non-empty address")
	}
	if !strings.HasPrefix(address, "1") {
		t.Errorf("expected mainnet P2PKH address to start with '1', got %q", address)
	}
}

func TestAddressTestnetVersionByte(t *testing.T) {
	d := New(Testnet)
	secret := fixedSecret(t, 2, true)

	address, err := d.Address(secret)
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if address == "" || (address[0] != 'm' && address[0] != 'n') {
		t.Errorf("expected testnet P2PKH address to start with 'm' or 'n', got %q", address)
	}
}

func TestAddressDeterministic(t *testing.T) {
	d := New(Mainnet)
	secret := fixedSecret(t, 42, true)

	first, err := d.Address(secret)
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.Address(secret)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("expected deterministic address derivation, got %q then %q", first, second)
	}
}

func TestCompressedAndUncompressedDiffer(t *testing.T) {
	d := New(Mainnet)
	compressed := fixedSecret(t, 7, true)
	uncompressed := fixedSecret(t, 7, false)

	a1, err := d.Address(compressed)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := d.Address(uncompressed)
	if err != nil {
		t.Fatal(err)
	}
	if a1 == a2 {
		t.Error("expected compressed and uncompressed public keys to yield different addresses")
	}
}

func TestWIFCompressedMainnetPrefix(t *testing.T) {
	d := New(Mainnet)
	secret := fixedSecret(t, 9, true)

	wif, err := d.WIF(secret)
	if err != nil {
		t.Fatalf("WIF: %v", err)
	}
	if wif == "" {
		t.Fatal("expected a non-empty WIF string")
	}
	if wif[0] != 'K' && wif[0] != 'L' {
		t.Errorf("expected a compressed mainnet WIF to start with 'K' or 'L', got %q", wif)
	}
}
