package normalize

import (
	"testing"

	"github.com/rickgao/market-terminal/internal/api"
	"github.com/rickgao/market-terminal/internal/quote"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
func i64Ptr(v int64) *int64   { return &v }

func newNormalizer() *Normalizer {
	return New(quote.Builder{})
}

func TestIsCombo(t *testing.T) {
	n := newNormalizer()

	tests := []struct {
		name   string
		ticker string
		title  string
		want   bool
	}{
		{"yes legs", "KXMVE-1", "yes Lakers, yes Celtics", true},
		{"no legs mixed case", "KXMVE-2", "No Lakers, yes Over 210.5", true},
		{"leading whitespace", "KXMVE-3", "  YES Lakers,no Celtics", true},
		{"multigame marker", "KXMVENBAMULTIGAME-26FEB01-ABC", "Lakers and Celtics", true},
		{"yes without comma", "KXA-1", "yes or no?", false},
		{"comma without prefix", "KXA-2", "Will Lakers, Celtics or Knicks win?", false},
		{"plain", "KXHIGHNY-24JAN01-T60", "Highest temperature in NYC", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := api.RawMarket{Ticker: tt.ticker, Title: tt.title}
			if got := n.IsCombo(&raw); got != tt.want {
				t.Errorf("IsCombo(%q, %q) = %v, want %v", tt.ticker, tt.title, got, tt.want)
			}
		})
	}

	t.Run("custom marker", func(t *testing.T) {
		custom := New(quote.Builder{}, "PARLAY")
		raw := api.RawMarket{Ticker: "KXPARLAY-1", Title: "Parlay"}
		if !custom.IsCombo(&raw) {
			t.Error("IsCombo = false for custom marker")
		}
		raw = api.RawMarket{Ticker: "KXMULTIGAME-1", Title: "Multi"}
		if custom.IsCombo(&raw) {
			t.Error("IsCombo = true for default marker after override")
		}
	})
}

func TestDisplayTitle(t *testing.T) {
	n := newNormalizer()

	tests := []struct {
		name string
		raw  api.RawMarket
		tc   TitleContext
		want string
	}{
		{
			name: "yes subtitle wins",
			raw:  api.RawMarket{Ticker: "A-1-X", Title: "Who wins?", YesSubTitle: strPtr("Alice"), Subtitle: strPtr("Bob")},
			tc:   TitleContext{EventTitle: "Race"},
			want: "Alice",
		},
		{
			name: "yes subtitle equal to title is skipped",
			raw:  api.RawMarket{Ticker: "A-1-X", Title: "Who wins?", YesSubTitle: strPtr("Who wins?"), Subtitle: strPtr("Bob")},
			want: "Bob",
		},
		{
			name: "generic title falls back to event title",
			raw:  api.RawMarket{Ticker: "A-1-X", Title: "Who wins?", Subtitle: strPtr("Who wins?")},
			tc:   TitleContext{EventTitle: "Mayor race", SeriesTitle: "Elections"},
			want: "Mayor race",
		},
		{
			name: "combo event title falls back to series title",
			raw:  api.RawMarket{Ticker: "A-1-X", Title: "Who wins?"},
			tc:   TitleContext{EventTitle: "Combo", SeriesTitle: "Elections"},
			want: "Elections",
		},
		{
			name: "generic title kept without context",
			raw:  api.RawMarket{Ticker: "A-1-X", Title: "Who wins?"},
			want: "Who wins?",
		},
		{
			name: "empty title uses ticker",
			raw:  api.RawMarket{Ticker: "A-1-X", Title: "  "},
			want: "A-1-X",
		},
		{
			name: "combo uses event title",
			raw:  api.RawMarket{Ticker: "KXMVE-1", Title: "yes Lakers, yes Celtics"},
			tc:   TitleContext{EventTitle: "NBA parlay", SeriesTitle: "Parlays"},
			want: "NBA parlay",
		},
		{
			name: "combo uses series title",
			raw:  api.RawMarket{Ticker: "KXMVE-1", Title: "yes Lakers, yes Celtics"},
			tc:   TitleContext{SeriesTitle: "Parlays"},
			want: "Parlays",
		},
		{
			name: "combo without context",
			raw:  api.RawMarket{Ticker: "KXMVE-1", Title: "yes Lakers, yes Celtics", YesSubTitle: strPtr("Lakers")},
			want: "Combo",
		},
		{
			name: "combo never shows raw title",
			raw:  api.RawMarket{Ticker: "KXMVE-1", Title: "yes Lakers, yes Celtics"},
			tc:   TitleContext{EventTitle: "yes Lakers, yes Celtics"},
			want: "Combo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := n.Normalize(tt.raw, tt.tc)
			if m.DisplayTitle != tt.want {
				t.Errorf("DisplayTitle = %q, want %q", m.DisplayTitle, tt.want)
			}
		})
	}
}

func TestNormalizeComboProperty(t *testing.T) {
	n := newNormalizer()
	titles := []string{
		"yes A, yes B",
		"no A, no B",
		"Yes Over 10.5,No Under 3",
		"NO x,",
	}
	contexts := []TitleContext{
		{},
		{EventTitle: "Event"},
		{SeriesTitle: "Series"},
		{EventTitle: "Combo"},
	}

	for _, title := range titles {
		for _, tc := range contexts {
			m := n.Normalize(api.RawMarket{Ticker: "KX-1", Title: title}, tc)
			if !m.IsCombo {
				t.Errorf("%q: IsCombo = false", title)
			}
			if m.DisplayTitle == title {
				t.Errorf("%q with %+v: DisplayTitle equals raw title", title, tc)
			}
			if m.DisplayDetail == nil || *m.DisplayDetail != "Multi-leg combo" {
				t.Errorf("%q: DisplayDetail = %v", title, m.DisplayDetail)
			}
		}
	}

	m := n.Normalize(api.RawMarket{Ticker: "KXNBAMULTIGAME-1", Title: "Lakers and Celtics"}, TitleContext{})
	if !m.IsCombo || m.DisplayTitle == m.Title {
		t.Errorf("marker combo: IsCombo = %v, DisplayTitle = %q", m.IsCombo, m.DisplayTitle)
	}
}

func TestNormalize(t *testing.T) {
	n := newNormalizer()
	settlement := api.FlexString("100")

	raw := api.RawMarket{
		Ticker:          "KXHIGHNY-24JAN01-T60",
		Title:           "Highest temperature in NYC",
		EventTicker:     strPtr("KXHIGHNY-24JAN01"),
		SeriesTicker:    strPtr("KXHIGHNY"),
		Subtitle:        strPtr("60° or above"),
		YesBid:          intPtr(40),
		YesAsk:          intPtr(44),
		NoAskDollars:    strPtr("0.60"),
		LastPrice:       intPtr(41),
		Volume:          i64Ptr(9000),
		Volume24h:       i64Ptr(120),
		OpenInterest:    i64Ptr(55),
		Status:          strPtr("active"),
		RulesPrimary:    strPtr("Resolves yes if..."),
		SettlementValue: &settlement,
	}

	m := n.Normalize(raw, TitleContext{EventTitle: " NYC high ", SeriesTitle: "Weather"})

	if m.Ticker != raw.Ticker || m.Title != raw.Title {
		t.Errorf("identity = %q/%q", m.Ticker, m.Title)
	}
	if m.DisplayTitle != "60° or above" {
		t.Errorf("DisplayTitle = %q", m.DisplayTitle)
	}
	if m.DisplayDetail != nil {
		t.Errorf("DisplayDetail = %q, want nil", *m.DisplayDetail)
	}
	if m.EventTitle == nil || *m.EventTitle != "NYC high" {
		t.Errorf("EventTitle = %v, want trimmed", m.EventTitle)
	}
	if m.Quote.Chance == nil || *m.Quote.Chance != 42 {
		t.Errorf("Quote.Chance = %v, want 42", m.Quote.Chance)
	}
	if m.Quote.NoAsk == nil || *m.Quote.NoAsk != 60 {
		t.Errorf("Quote.NoAsk = %v, want 60 from dollars", m.Quote.NoAsk)
	}
	if m.LastPrice == nil || *m.LastPrice != 41 {
		t.Errorf("LastPrice = %v, want 41", m.LastPrice)
	}
	if m.Volume == nil || *m.Volume != 120 {
		t.Errorf("Volume = %v, want 24h volume 120", m.Volume)
	}
	if m.SettlementValue == nil || *m.SettlementValue != "100" {
		t.Errorf("SettlementValue = %v", m.SettlementValue)
	}
	if m.RulesSecondary != nil || m.Resolution != nil || m.Result != nil {
		t.Error("absent upstream fields must stay nil")
	}

	t.Run("volume falls back to lifetime", func(t *testing.T) {
		m := n.Normalize(api.RawMarket{Ticker: "X", Title: "X", Volume: i64Ptr(7)}, TitleContext{})
		if m.Volume == nil || *m.Volume != 7 {
			t.Errorf("Volume = %v, want 7", m.Volume)
		}
		if m.Volume24h != nil {
			t.Errorf("Volume24h = %d, want nil", *m.Volume24h)
		}
	})

	t.Run("no context leaves titles nil", func(t *testing.T) {
		m := n.Normalize(api.RawMarket{Ticker: "X", Title: "X"}, TitleContext{})
		if m.EventTitle != nil || m.SeriesTitle != nil {
			t.Error("EventTitle/SeriesTitle should be nil")
		}
	})
}

func TestNormalizeAll(t *testing.T) {
	n := newNormalizer()
	raws := []api.RawMarket{
		{Ticker: "EV-1-A", Title: "Who wins?", EventTicker: strPtr("EV-1"), SeriesTicker: strPtr("EV")},
		{Ticker: "OTHER-1-A", Title: "Who wins?", EventTicker: strPtr("OTHER-1")},
		{Ticker: "LONE", Title: "Lone"},
	}

	markets := n.NormalizeAll(raws,
		map[string]string{"EV-1": "Election"},
		map[string]string{"EV": "Elections"},
	)

	if len(markets) != 3 {
		t.Fatalf("len = %d, want 3", len(markets))
	}
	if markets[0].DisplayTitle != "Election" {
		t.Errorf("markets[0].DisplayTitle = %q", markets[0].DisplayTitle)
	}
	if markets[1].DisplayTitle != "Who wins?" {
		t.Errorf("markets[1].DisplayTitle = %q", markets[1].DisplayTitle)
	}
	if markets[2].DisplayTitle != "Lone" {
		t.Errorf("markets[2].DisplayTitle = %q", markets[2].DisplayTitle)
	}
}

func TestNormalizeMalformedDollarPrice(t *testing.T) {
	n := newNormalizer()

	m := n.Normalize(api.RawMarket{
		Ticker:        "KXHIGHNY-24JAN01-T60",
		Title:         "Highest temperature in NYC",
		YesBidDollars: strPtr("NaN"),
		YesAskDollars: strPtr("0.50"),
	}, TitleContext{})

	if m.Quote.YesBid != nil {
		t.Errorf("YesBid = %d, want nil", *m.Quote.YesBid)
	}
	if m.Quote.Spread != nil {
		t.Errorf("Spread = %d, want nil", *m.Quote.Spread)
	}
	if !m.Quote.HasWideSpread {
		t.Error("HasWideSpread = false, want true")
	}
	if m.Quote.Chance == nil || *m.Quote.Chance != 50 {
		t.Errorf("Chance = %v, want 50", m.Quote.Chance)
	}
}
