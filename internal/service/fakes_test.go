package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"incrementum/internal/dto"
	"incrementum/internal/model"
	"incrementum/pkg/utils"
)

type barKey struct {
	model.BarKey
	intraday bool
}

type fakeBarRepo struct {
	mu              sync.Mutex
	bars            map[barKey]model.Bar
	referenceCloses []model.ReferenceClose
	findErr         error
	upsertErr       error

	upsertCalls    int32
	referenceCalls int32
	scanCalls      int32
}

func newFakeBarRepo(bars ...model.Bar) *fakeBarRepo {
	r := &fakeBarRepo{bars: map[barKey]model.Bar{}}
	for _, b := range bars {
		r.bars[barKey{b.Key(), b.IsIntraday}] = b
	}
	return r
}

func (r *fakeBarRepo) FindBySymbol(_ context.Context, symbol string, intraday bool) ([]model.Bar, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Bar
	for k, b := range r.bars {
		if k.Symbol == symbol && k.intraday == intraday {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *fakeBarRepo) Upsert(_ context.Context, bars []model.Bar, _ ...utils.DBOption) error {
	atomic.AddInt32(&r.upsertCalls, 1)
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range bars {
		r.bars[barKey{b.Key(), b.IsIntraday}] = b
	}
	return nil
}

func (r *fakeBarRepo) aggregate(symbols []string, since time.Time, pick func(cur model.SymbolValue, b model.Bar, seen bool) model.SymbolValue) []model.SymbolValue {
	atomic.AddInt32(&r.scanCalls, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := map[string]bool{}
	for _, s := range symbols {
		wanted[s] = true
	}
	acc := map[string]model.SymbolValue{}
	for _, b := range r.bars {
		if !wanted[b.Symbol] || b.Timestamp.Before(since) {
			continue
		}
		cur, seen := acc[b.Symbol]
		acc[b.Symbol] = pick(cur, b, seen)
	}
	out := make([]model.SymbolValue, 0, len(acc))
	for _, v := range acc {
		out = append(out, v)
	}
	return out
}

func (r *fakeBarRepo) LatestCloses(_ context.Context, symbols []string) ([]model.SymbolValue, error) {
	latest := map[string]time.Time{}
	return r.aggregate(symbols, time.Time{}, func(cur model.SymbolValue, b model.Bar, seen bool) model.SymbolValue {
		if !seen || b.Timestamp.After(latest[b.Symbol]) {
			latest[b.Symbol] = b.Timestamp
			return model.SymbolValue{Symbol: b.Symbol, Value: b.Close}
		}
		return cur
	}), nil
}

func (r *fakeBarRepo) Highs(_ context.Context, symbols []string, since time.Time) ([]model.SymbolValue, error) {
	return r.aggregate(symbols, since, func(cur model.SymbolValue, b model.Bar, seen bool) model.SymbolValue {
		if !seen || b.High > cur.Value {
			return model.SymbolValue{Symbol: b.Symbol, Value: b.High}
		}
		return cur
	}), nil
}

func (r *fakeBarRepo) Lows(_ context.Context, symbols []string, since time.Time) ([]model.SymbolValue, error) {
	return r.aggregate(symbols, since, func(cur model.SymbolValue, b model.Bar, seen bool) model.SymbolValue {
		if !seen || b.Low < cur.Value {
			return model.SymbolValue{Symbol: b.Symbol, Value: b.Low}
		}
		return cur
	}), nil
}

func (r *fakeBarRepo) ReferenceCloses(_ context.Context, symbols []string, _ int, _ string) ([]model.ReferenceClose, error) {
	atomic.AddInt32(&r.referenceCalls, 1)
	wanted := map[string]bool{}
	for _, s := range symbols {
		wanted[s] = true
	}
	var out []model.ReferenceClose
	for _, c := range r.referenceCloses {
		if wanted[c.Symbol] {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeSymbolRepo struct {
	mu          sync.Mutex
	rows        map[string]model.Symbol
	lastQuery   *model.ScreenQuery
	screenRows  []model.Symbol
	screenTotal int64
	ensureErr   error

	updateCalls int32
	lastUpdates []model.PercentChangeUpdate
}

func newFakeSymbolRepo(rows ...model.Symbol) *fakeSymbolRepo {
	r := &fakeSymbolRepo{rows: map[string]model.Symbol{}}
	for _, row := range rows {
		r.rows[row.Symbol] = row
	}
	return r
}

func (r *fakeSymbolRepo) Screen(_ context.Context, q model.ScreenQuery) ([]model.Symbol, int64, error) {
	r.lastQuery = &q
	return r.screenRows, r.screenTotal, nil
}

func (r *fakeSymbolRepo) FindBySymbols(_ context.Context, symbols []string) ([]model.Symbol, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Symbol
	for _, s := range symbols {
		if row, ok := r.rows[s]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeSymbolRepo) ListSymbols(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.rows))
	for s := range r.rows {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeSymbolRepo) EnsureExists(_ context.Context, symbol model.Symbol, _ ...utils.DBOption) error {
	if r.ensureErr != nil {
		return r.ensureErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[symbol.Symbol]; !ok {
		r.rows[symbol.Symbol] = symbol
	}
	return nil
}

func (r *fakeSymbolRepo) UpdateDayPercentChange(_ context.Context, updates []model.PercentChangeUpdate, at time.Time) error {
	atomic.AddInt32(&r.updateCalls, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastUpdates = updates
	for _, u := range updates {
		row, ok := r.rows[u.Symbol]
		if !ok {
			continue
		}
		if u.Value != nil {
			row.DayPercentChange = u.Value
		}
		stamped := at
		row.MetricUpdatedAt = &stamped
		r.rows[u.Symbol] = row
	}
	return nil
}

type fakeProvider struct {
	calls   int32
	started chan struct{}
	release chan struct{}
	fn      func(param dto.GetHistoryParam) (*dto.StockData, error)

	mu     sync.Mutex
	params []dto.GetHistoryParam
}

func (p *fakeProvider) GetHistory(_ context.Context, param dto.GetHistoryParam) (*dto.StockData, error) {
	if atomic.AddInt32(&p.calls, 1) == 1 && p.started != nil {
		close(p.started)
	}
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	p.params = append(p.params, param)
	p.mu.Unlock()
	return p.fn(param)
}

type fakeUnitOfWork struct{}

func (fakeUnitOfWork) Run(_ context.Context, fn func(opts ...utils.DBOption) error) error {
	return fn()
}

// mutableClock is a Clock tests can move forward.
type mutableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mutableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mutableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
