package crypto

import "testing"

func addr(suffix byte) Address {
	raw := make([]byte, AddressLength)
	raw[AddressLength-1] = suffix
	return NewAddress(AccountPrefix, raw)
}

func TestDeriveAuthorityDeterministic(t *testing.T) {
	market, collateral, liquidity := addr(1), addr(2), addr(3)

	first := DeriveAuthority(market, collateral, liquidity, 7)
	second := DeriveAuthority(market, collateral, liquidity, 7)
	if !first.Equal(second) {
		t.Fatalf("same seeds derived %s and %s", first, second)
	}
	if first.Equal(DeriveAuthority(market, collateral, liquidity, 8)) {
		t.Fatalf("bump change did not derive a new authority")
	}
	if first.Equal(DeriveAuthority(market, liquidity, collateral, 7)) {
		t.Fatalf("seed order is not significant")
	}
}

func TestDeriveRecordAddressSeedSensitivity(t *testing.T) {
	a, b := addr(10), addr(11)

	if !DeriveRecordAddress(a, b).Equal(DeriveRecordAddress(a, b)) {
		t.Fatalf("record derivation is not deterministic")
	}
	if DeriveRecordAddress(a, b).Equal(DeriveRecordAddress(b, a)) {
		t.Fatalf("seed order collision")
	}
	if DeriveRecordAddress(a).Equal(DeriveRecordAddress(a, b)) {
		t.Fatalf("seed count collision")
	}
}

func TestDerivationDomainsDisjoint(t *testing.T) {
	market, collateral, liquidity := addr(1), addr(2), addr(3)
	authority := DeriveAuthority(market, collateral, liquidity, 0)
	record := DeriveRecordAddress(market, collateral, liquidity, addr(0))
	if authority.Equal(record) {
		t.Fatalf("authority and record derivations collided")
	}
}

func TestAddressRoundTrip(t *testing.T) {
	original := addr(0x5A)
	decoded, err := DecodeAddress(original.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(original) || decoded.Prefix() != AccountPrefix {
		t.Fatalf("round trip mismatch: %s", decoded)
	}

	if _, err := DecodeAddress("not-an-address"); err == nil {
		t.Fatalf("expected decode failure")
	}
}

func TestKeyedAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	address := key.PubKey().Address()
	if address.IsZero() {
		t.Fatalf("keyed address should not be zero")
	}

	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore key: %v", err)
	}
	if !restored.PubKey().Address().Equal(address) {
		t.Fatalf("restored key derives a different address")
	}
}
