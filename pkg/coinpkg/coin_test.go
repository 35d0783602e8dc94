package coinpkg

import "testing"

func TestIsSupportedCoin(t *testing.T) {
	t.Parallel()

	for _, symbol := range SupportedCoins {
		if !IsSupportedCoin(symbol) {
			t.Errorf("IsSupportedCoin(%q) = false, want true", symbol)
		}
	}

	for _, symbol := range []string{"", "btc", "USD", "XYZ"} {
		if IsSupportedCoin(symbol) {
			t.Errorf("IsSupportedCoin(%q) = true, want false", symbol)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	c, ok := Lookup(BTC)
	if !ok {
		t.Fatalf("Lookup(%q) ok = false", BTC)
	}

	if c.CoinCapID != "bitcoin" || c.Name != "Bitcoin" {
		t.Errorf("Lookup(%q) = %+v", BTC, c)
	}
}
