package curve

import (
	"math"
	"testing"
)

func TestProgress_ClampsToRange(t *testing.T) {
	tests := []struct {
		name      string
		raised    float64
		threshold float64
		want      float64
	}{
		{"zero raised", 0, DefaultMigrationThreshold, 0},
		{"negative raised", -5, DefaultMigrationThreshold, 0},
		{"half raised", DefaultMigrationThreshold / 2, DefaultMigrationThreshold, 50},
		{"at threshold", DefaultMigrationThreshold, DefaultMigrationThreshold, 100},
		{"over threshold", DefaultMigrationThreshold * 2, DefaultMigrationThreshold, 100},
		{"zero threshold", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Progress(tt.raised, tt.threshold)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Progress(%v, %v) = %v, want %v", tt.raised, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestProgress_BuyExample(t *testing.T) {
	// Buy of 10 AVAX against the default threshold: 10/503.15*100 ≈ 1.988
	got := Progress(10, 503.15)
	want := 10.0 / 503.15 * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Progress(10, 503.15) = %v, want %v", got, want)
	}
	if got < 1.98 || got > 1.99 {
		t.Errorf("Progress(10, 503.15) = %v, expected ≈ 1.988", got)
	}
}

func TestPrice_MonotoneNonDecreasing(t *testing.T) {
	prev := Price(0, DefaultMigrationThreshold)
	if prev != StartingPrice {
		t.Errorf("Price(0) = %v, want StartingPrice %v", prev, StartingPrice)
	}

	for raised := 1.0; raised <= DefaultMigrationThreshold*1.5; raised += 7.3 {
		p := Price(raised, DefaultMigrationThreshold)
		if p < prev {
			t.Fatalf("Price not monotone: Price(%v)=%v < previous %v", raised, p, prev)
		}
		prev = p
	}
}

func TestPrice_ClampsAtMigration(t *testing.T) {
	atThreshold := Price(DefaultMigrationThreshold, DefaultMigrationThreshold)
	if math.Abs(atThreshold-MigrationPrice) > 1e-15 {
		t.Errorf("Price at threshold = %v, want MigrationPrice %v", atThreshold, MigrationPrice)
	}

	over := Price(DefaultMigrationThreshold*10, DefaultMigrationThreshold)
	if over != atThreshold {
		t.Errorf("Price past threshold = %v, want clamped %v", over, atThreshold)
	}
}

func TestPrice_SuperLinear(t *testing.T) {
	// The second half of the raise must move price more than the first half.
	firstHalf := Price(DefaultMigrationThreshold/2, DefaultMigrationThreshold) - Price(0, DefaultMigrationThreshold)
	secondHalf := Price(DefaultMigrationThreshold, DefaultMigrationThreshold) - Price(DefaultMigrationThreshold/2, DefaultMigrationThreshold)
	if secondHalf <= firstHalf {
		t.Errorf("curve not super-linear: first half delta %v, second half delta %v", firstHalf, secondHalf)
	}
}

func TestTradePrice_ZeroTokens(t *testing.T) {
	if got := TradePrice(5, 0); got != 0 {
		t.Errorf("TradePrice(5, 0) = %v, want 0", got)
	}
	if got := TradePrice(5, -1); got != 0 {
		t.Errorf("TradePrice(5, -1) = %v, want 0", got)
	}
	if got := TradePrice(10, 1000); got != 0.01 {
		t.Errorf("TradePrice(10, 1000) = %v, want 0.01", got)
	}
}

func TestMarketCap(t *testing.T) {
	if got := MarketCap(0, 1e10); got != 0 {
		t.Errorf("MarketCap(0, supply) = %v, want 0", got)
	}
	got := MarketCap(0.0000001, 1e10)
	want := 0.0000001 * 1e10 * CirculatingFraction
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("MarketCap = %v, want %v", got, want)
	}
}
