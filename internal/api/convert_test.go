package api

import (
	"encoding/json"
	"testing"
)

func TestDollarsToCents(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"0.52", 52, true},
		{"0.5260", 53, true},
		{"0.5240", 52, true},
		{"0.00", 0, true},
		{"1.00", 100, true},
		{"0.01", 1, true},
		{"", 0, false},
		{"invalid", 0, false},
		{"  0.52  ", 52, true},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-Inf", 0, false},
		{"1e300", 0, false},
		{"-0.01", 0, false},
		{"1.01", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := DollarsToCents(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DollarsToCents(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPickCents(t *testing.T) {
	cents := 41
	dollars := "0.77"
	bad := "n/a"
	nan := "NaN"

	if got := PickCents(&cents, &dollars); got == nil || *got != 41 {
		t.Errorf("PickCents(cents, dollars) = %v, want 41", got)
	}
	if got := PickCents(nil, &dollars); got == nil || *got != 77 {
		t.Errorf("PickCents(nil, dollars) = %v, want 77", got)
	}
	if got := PickCents(nil, &bad); got != nil {
		t.Errorf("PickCents(nil, bad) = %v, want nil", *got)
	}
	if got := PickCents(nil, &nan); got != nil {
		t.Errorf("PickCents(nil, NaN) = %v, want nil", *got)
	}
	if got := PickCents(nil, nil); got != nil {
		t.Errorf("PickCents(nil, nil) = %v, want nil", *got)
	}

	// The result must not alias the input.
	got := PickCents(&cents, nil)
	*got = 99
	if cents != 41 {
		t.Errorf("PickCents aliased its input: cents = %d", cents)
	}
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantNil bool
	}{
		{`{"settlement_value": "yes"}`, "yes", false},
		{`{"settlement_value": 100}`, "100", false},
		{`{"settlement_value": 0.5}`, "0.5", false},
		{`{"settlement_value": null}`, "", true},
		{`{}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var m RawMarket
			if err := json.Unmarshal([]byte(tt.input), &m); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if tt.wantNil {
				if m.SettlementValue != nil {
					t.Errorf("SettlementValue = %q, want nil", *m.SettlementValue)
				}
				return
			}
			if m.SettlementValue == nil || string(*m.SettlementValue) != tt.want {
				t.Errorf("SettlementValue = %v, want %q", m.SettlementValue, tt.want)
			}
		})
	}

	var m RawMarket
	if err := json.Unmarshal([]byte(`{"settlement_value": true}`), &m); err == nil {
		t.Error("expected error for boolean settlement_value")
	}
}

func TestRawMarketPrices(t *testing.T) {
	yesBid := 10
	noAskDollars := "0.93"
	lastDollars := "0.11"
	m := RawMarket{
		YesBid:           &yesBid,
		NoAskDollars:     &noAskDollars,
		LastPriceDollars: &lastDollars,
	}

	yb, ya, nb, na, last := m.Prices()
	if yb == nil || *yb != 10 {
		t.Errorf("yesBid = %v, want 10", yb)
	}
	if ya != nil || nb != nil {
		t.Errorf("yesAsk/noBid should be nil, got %v/%v", ya, nb)
	}
	if na == nil || *na != 93 {
		t.Errorf("noAsk = %v, want 93", na)
	}
	if last == nil || *last != 11 {
		t.Errorf("last = %v, want 11", last)
	}
}
