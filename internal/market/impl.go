package market

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/market-terminal/internal/api"
	"github.com/rickgao/market-terminal/internal/grouping"
	"github.com/rickgao/market-terminal/internal/model"
	"github.com/rickgao/market-terminal/internal/normalize"
	"github.com/rickgao/market-terminal/internal/quote"
	"github.com/rickgao/market-terminal/internal/ticker"
	"github.com/rickgao/market-terminal/internal/titles"
)

// Config holds Market Service configuration.
type Config struct {
	DefaultStatus       string
	DefaultLimit        int
	GroupedLimit        int
	EventMarketsLimit   int
	MVEFilter           string
	CandleWindowDays    int
	WideSpreadCents     int
	IlliquidSpreadCents int
	ComboMarkers        []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultStatus:       "open",
		DefaultLimit:        24,
		GroupedLimit:        100,
		EventMarketsLimit:   100,
		MVEFilter:           "exclude",
		CandleWindowDays:    30,
		WideSpreadCents:     quote.DefaultWideSpreadCents,
		IlliquidSpreadCents: grouping.DefaultIlliquidSpreadCents,
		ComboMarkers:        []string{normalize.DefaultComboMarker},
	}
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	cfg        Config
	rest       *api.Client
	titles     *titles.Resolver
	normalizer *normalize.Normalizer
	grouper    *grouping.Grouper
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a Market Service. A nil resolver gets a default one
// backed by rest.
func NewService(cfg Config, rest *api.Client, resolver *titles.Resolver, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = titles.NewResolver(rest, titles.WithLogger(logger))
	}

	return &serviceImpl{
		cfg:        cfg,
		rest:       rest,
		titles:     resolver,
		normalizer: normalize.New(quote.NewBuilder(cfg.WideSpreadCents), cfg.ComboMarkers...),
		grouper:    grouping.New(cfg.IlliquidSpreadCents),
		logger:     logger,
		now:        time.Now,
	}
}

// GetMarkets returns one page of markets with event and series titles
// resolved in parallel.
func (s *serviceImpl) GetMarkets(ctx context.Context, opts ListOptions) (*MarketPage, error) {
	return s.listMarkets(ctx, opts, s.cfg.DefaultLimit)
}

func (s *serviceImpl) listMarkets(ctx context.Context, opts ListOptions, defaultLimit int) (*MarketPage, error) {
	resp, err := s.rest.GetMarkets(ctx, api.GetMarketsOptions{
		Limit:     cmp.Or(opts.Limit, defaultLimit),
		Cursor:    opts.Cursor,
		Status:    cmp.Or(opts.Status, s.cfg.DefaultStatus),
		MVEFilter: s.cfg.MVEFilter,
	})
	if err != nil {
		return nil, err
	}

	var eventTickers, seriesTickers []string
	for _, m := range resp.Markets {
		if m.EventTicker != nil {
			eventTickers = append(eventTickers, *m.EventTicker)
		}
		if m.SeriesTicker != nil {
			seriesTickers = append(seriesTickers, *m.SeriesTicker)
		}
	}

	var (
		eventTitles, seriesTitles map[string]string
		g                         errgroup.Group
	)
	g.Go(func() error {
		eventTitles = s.titles.EventTitles(ctx, eventTickers)
		return nil
	})
	g.Go(func() error {
		seriesTitles = s.titles.SeriesTitles(ctx, seriesTickers)
		return nil
	})
	_ = g.Wait()

	return &MarketPage{
		Cursor:  resp.Cursor,
		Markets: s.normalizer.NormalizeAll(resp.Markets, eventTitles, seriesTitles),
	}, nil
}

// GetMarket returns a single market enriched with its event and series titles.
func (s *serviceImpl) GetMarket(ctx context.Context, ticker string) (*model.Market, error) {
	raw, err := s.rest.GetMarket(ctx, ticker)
	if err != nil {
		return nil, err
	}

	var (
		tc normalize.TitleContext
		g  errgroup.Group
	)
	if raw.EventTicker != nil {
		g.Go(func() error {
			tc.EventTitle = s.titles.EventTitle(ctx, *raw.EventTicker)
			return nil
		})
	}
	if raw.SeriesTicker != nil {
		g.Go(func() error {
			tc.SeriesTitle = s.titles.SeriesTitle(ctx, *raw.SeriesTicker)
			return nil
		})
	}
	_ = g.Wait()

	m := s.normalizer.Normalize(*raw, tc)
	return &m, nil
}

// GetEvent returns nil, nil when the upstream answers 404.
func (s *serviceImpl) GetEvent(ctx context.Context, eventTicker string) (*model.Event, error) {
	raw, err := s.rest.GetEvent(ctx, eventTicker, true)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var seriesTitle string
	if raw.SeriesTicker != nil {
		seriesTitle = s.titles.SeriesTitle(ctx, *raw.SeriesTicker)
	}

	ev := s.toEvent(raw, seriesTitle)
	return &ev, nil
}

// GetEvents returns one page of events. Series titles are resolved once
// per distinct series.
func (s *serviceImpl) GetEvents(ctx context.Context, opts EventListOptions) (*EventPage, error) {
	resp, err := s.rest.GetEvents(ctx, api.GetEventsOptions{
		Limit:             cmp.Or(opts.Limit, s.cfg.DefaultLimit),
		Cursor:            opts.Cursor,
		SeriesTicker:      opts.SeriesTicker,
		Status:            cmp.Or(opts.Status, s.cfg.DefaultStatus),
		WithNestedMarkets: opts.WithNestedMarkets,
	})
	if err != nil {
		return nil, err
	}

	var seriesTickers []string
	for _, e := range resp.Events {
		if e.SeriesTicker != nil {
			seriesTickers = append(seriesTickers, *e.SeriesTicker)
		}
	}
	seriesTitles := s.titles.SeriesTitles(ctx, seriesTickers)

	events := make([]model.Event, 0, len(resp.Events))
	for i := range resp.Events {
		raw := &resp.Events[i]
		var seriesTitle string
		if raw.SeriesTicker != nil {
			seriesTitle = seriesTitles[*raw.SeriesTicker]
		}
		events = append(events, s.toEvent(raw, seriesTitle))
	}

	return &EventPage{Cursor: resp.Cursor, Events: events}, nil
}

func (s *serviceImpl) toEvent(raw *api.RawEvent, seriesTitle string) model.Event {
	tc := normalize.TitleContext{EventTitle: raw.Title, SeriesTitle: seriesTitle}

	markets := make([]model.Market, 0, len(raw.Markets))
	for _, m := range raw.Markets {
		markets = append(markets, s.normalizer.Normalize(m, tc))
	}

	return model.Event{
		EventTicker:       raw.EventTicker,
		Title:             raw.Title,
		SubTitle:          raw.SubTitle,
		Category:          raw.Category,
		SeriesTicker:      raw.SeriesTicker,
		MutuallyExclusive: raw.MutuallyExclusive,
		StrikeDate:        raw.StrikeDate,
		Markets:           markets,
	}
}

// GetEventMarkets lists the event's open markets through the markets
// endpoint rather than the nested event payload.
func (s *serviceImpl) GetEventMarkets(ctx context.Context, eventTicker string) ([]model.Market, error) {
	resp, err := s.rest.GetMarkets(ctx, api.GetMarketsOptions{
		EventTicker: eventTicker,
		Status:      s.cfg.DefaultStatus,
		Limit:       s.cfg.EventMarketsLimit,
	})
	if err != nil {
		return nil, err
	}

	tc := normalize.TitleContext{EventTitle: s.titles.EventTitle(ctx, eventTicker)}

	markets := make([]model.Market, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		markets = append(markets, s.normalizer.Normalize(m, tc))
	}
	return markets, nil
}

// GetGroupedMarkets fetches a larger page so events collect more of their
// outcomes, then groups it.
func (s *serviceImpl) GetGroupedMarkets(ctx context.Context, opts ListOptions) (*GroupedPage, error) {
	page, err := s.listMarkets(ctx, opts, s.cfg.GroupedLimit)
	if err != nil {
		return nil, err
	}

	events, ungrouped := s.grouper.Partition(page.Markets)
	if len(ungrouped) > 0 {
		s.logger.Info("markets without event ticker left out of grouping",
			"count", len(ungrouped),
			"first", ungrouped[0].Ticker,
		)
	}

	return &GroupedPage{
		Cursor:    page.Cursor,
		Events:    events,
		Ungrouped: len(ungrouped),
	}, nil
}

// GetOrderbook returns the book with null sides as empty slices.
func (s *serviceImpl) GetOrderbook(ctx context.Context, ticker string) (*model.Orderbook, error) {
	resp, err := s.rest.GetOrderbook(ctx, ticker, 0)
	if err != nil {
		return nil, err
	}
	ob := resp.ToOrderbook(ticker)
	return &ob, nil
}

// GetMarketCandlesticks returns price history for q.
func (s *serviceImpl) GetMarketCandlesticks(ctx context.Context, q CandlestickQuery) ([]model.Candlestick, error) {
	if q.Ticker == "" {
		return nil, fmt.Errorf("candlesticks: %w: ticker is required", ErrInvalidQuery)
	}

	series := q.SeriesTicker
	if series == "" {
		series = ticker.SeriesPrefix(q.Ticker)
	}

	start, end := q.StartTs, q.EndTs
	if start == 0 && end == 0 {
		start, end = RecentWindow(s.now(), s.cfg.CandleWindowDays)
	}
	if end < start {
		return nil, fmt.Errorf("candlesticks: %w: end %d before start %d", ErrInvalidQuery, end, start)
	}

	raw, err := s.rest.GetCandlesticks(ctx, series, q.Ticker, api.CandlesticksOptions{
		StartTs:        start,
		EndTs:          end,
		PeriodInterval: cmp.Or(q.PeriodInterval, api.DefaultPeriodInterval),
	})
	if err != nil {
		return nil, err
	}
	return api.ToCandlesticks(raw), nil
}

// Resolve parses input and loads what it names. A structural guess that
// misses upstream falls back to the other of market and event, since
// series names can themselves contain hyphens.
func (s *serviceImpl) Resolve(ctx context.Context, input string) (*Resolution, error) {
	t := ticker.Parse(input)
	if t == "" {
		return nil, ErrEmptyInput
	}

	res := &Resolution{Input: input, Ticker: t}

	switch ticker.Classify(t) {
	case model.KindMarket:
		m, err := s.GetMarket(ctx, t)
		if err == nil {
			res.Kind, res.Market = model.KindMarket, m
			return res, nil
		}
		if !api.IsNotFound(err) {
			return nil, err
		}
		// A delisted market still lands on its event when the ticker
		// carries a dated event prefix.
		candidates := []string{t}
		if ticker.HasDateSuffix(t) {
			candidates = append(candidates, ticker.EventPrefix(t))
		}
		for _, et := range candidates {
			ev, err := s.GetEvent(ctx, et)
			if err != nil {
				return nil, err
			}
			if ev != nil {
				res.Kind, res.Event = model.KindEvent, ev
				return res, nil
			}
		}
		return nil, fmt.Errorf("resolve %s: %w", t, ErrNotFound)

	case model.KindEvent:
		ev, err := s.GetEvent(ctx, t)
		if err != nil {
			return nil, err
		}
		if ev != nil {
			res.Kind, res.Event = model.KindEvent, ev
			return res, nil
		}
		m, err := s.GetMarket(ctx, t)
		if err != nil {
			if api.IsNotFound(err) {
				return nil, fmt.Errorf("resolve %s: %w", t, ErrNotFound)
			}
			return nil, err
		}
		res.Kind, res.Market = model.KindMarket, m
		return res, nil

	default:
		page, err := s.GetEvents(ctx, EventListOptions{SeriesTicker: t, WithNestedMarkets: true})
		if err != nil {
			return nil, err
		}
		if len(page.Events) == 0 {
			return nil, fmt.Errorf("resolve %s: %w", t, ErrNotFound)
		}
		res.Kind, res.Events = model.KindSeries, page.Events
		return res, nil
	}
}

// RecentWindow returns the Unix-second range covering the last days days
// up to now. days <= 0 selects 30.
func RecentWindow(now time.Time, days int) (start, end int64) {
	if days <= 0 {
		days = 30
	}
	end = now.Unix()
	start = end - int64(days)*24*60*60
	return start, end
}

// LeadMarket returns the market with the highest volume, the first one on
// ties, or nil for an empty slice.
func LeadMarket(markets []model.Market) *model.Market {
	if len(markets) == 0 {
		return nil
	}
	volume := func(m model.Market) int64 {
		if m.Volume == nil {
			return 0
		}
		return *m.Volume
	}
	lead := 0
	for i := 1; i < len(markets); i++ {
		if volume(markets[i]) > volume(markets[lead]) {
			lead = i
		}
	}
	m := markets[lead]
	return &m
}
