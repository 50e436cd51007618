package matrix

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"go-rate-matrix/amount"
	"go-rate-matrix/domain"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownAsset    = errors.New("unknown asset")
	ErrUnknownPair     = errors.New("unknown pair")
)

// Service maintains cross rates between assets.
// An entry (a, b) = r reads: 1 a = r b, with r expressed in b's basis.
type Service interface {
	AddAsset(asset *domain.Asset, reference *domain.Asset, rate amount.Amount) error
	UpdateRates(asset *domain.Asset, reference *domain.Asset, rate amount.Amount) error
	Rate(a *domain.Asset, b *domain.Asset) (amount.Amount, error)
	ContainsPair(a *domain.Asset, b *domain.Asset) bool
}

// Symbols pegged 1:1 to each other when the stablecoin peg is enabled
const (
	pegUSD  = "USD"
	pegUSDT = "USDT"
)

// row the rates of one asset against every asset it is linked to
type row struct {
	asset *domain.Asset
	rates map[string]amount.Amount
}

// crossUpdate the derived rates between the updated asset and other
type crossUpdate struct {
	other   *row
	cross   amount.Amount
	inverse amount.Amount
}

// Matrix rate table. Matrix is concurrency safe.
// Cross rates are derived when rates are written, so reads are a map lookup.
type Matrix struct {
	// rows maps an asset symbol to its rates
	rows map[string]*row

	// lock writers hold lock for a whole operation so readers never see a partial update
	lock sync.RWMutex

	// stablecoinPeg forces USD/USDT to 1 whenever the pair would be derived
	stablecoinPeg bool

	// rounding shared by every computation
	rounding amount.Rounding

	logger log.Logger
}

// Option configures a Matrix
type Option func(*Matrix)

// WithStablecoinPeg enables or disables the USD/USDT forced peg. Enabled by default.
func WithStablecoinPeg(enabled bool) Option {
	return func(m *Matrix) {
		m.stablecoinPeg = enabled
	}
}

// New constructs an empty Matrix
func New(logger log.Logger, opts ...Option) *Matrix {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	m := &Matrix{
		rows:          map[string]*row{},
		stablecoinPeg: true,
		rounding:      amount.DefaultRounding,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewWithAsset constructs a Matrix holding a single asset and its rate to itself
func NewWithAsset(asset *domain.Asset, logger log.Logger, opts ...Option) (*Matrix, error) {
	if asset == nil {
		return nil, fmt.Errorf("new matrix: nil asset: %w", ErrInvalidArgument)
	}
	one, err := amount.One(asset.Basis)
	if err != nil {
		return nil, fmt.Errorf("new matrix [%v]: %w", asset, err)
	}
	m := New(logger, opts...)
	r := m.ensureRow(asset)
	r.rates[asset.Symbol] = one
	return m, nil
}

// NewWithPair constructs a Matrix holding asset and reference with 1 asset = rate reference
func NewWithPair(asset *domain.Asset, reference *domain.Asset, rate amount.Amount, logger log.Logger, opts ...Option) (*Matrix, error) {
	m := New(logger, opts...)
	if err := m.AddAsset(asset, reference, rate); err != nil {
		return nil, fmt.Errorf("new matrix: %w", err)
	}
	return m, nil
}

// Clone returns a deep copy of the matrix sharing the same options
func (m *Matrix) Clone() *Matrix {
	m.lock.RLock()
	defer m.lock.RUnlock()

	c := &Matrix{
		rows:          make(map[string]*row, len(m.rows)),
		stablecoinPeg: m.stablecoinPeg,
		rounding:      m.rounding,
		logger:        m.logger,
	}
	for symbol, r := range m.rows {
		rates := make(map[string]amount.Amount, len(r.rates))
		for k, v := range r.rates {
			rates[k] = v
		}
		c.rows[symbol] = &row{asset: r.asset, rates: rates}
	}
	return c
}

// AddAsset links asset to reference with 1 asset = rate reference.
// Only the pair (asset, reference) is written, cross rates with other assets are
// established by a later UpdateRates. If reference is unknown it is added as well,
// which is how the first pair of an empty matrix is created.
// rate is re-expressed in reference's basis first.
// A zero rate carries no information and is ignored.
func (m *Matrix) AddAsset(asset *domain.Asset, reference *domain.Asset, rate amount.Amount) error {
	if asset == nil || reference == nil {
		return fmt.Errorf("add asset: nil asset: %w", ErrInvalidArgument)
	}
	if asset.Symbol == reference.Symbol {
		return fmt.Errorf("add asset [%v]: asset and reference must differ: %w", asset, ErrInvalidArgument)
	}
	if rate.IsZero() {
		return nil
	}
	rate, err := m.normalize(rate, reference)
	if err != nil {
		return fmt.Errorf("add asset [%v/%v]: %w", asset, reference, err)
	}
	if rate.IsZero() {
		return nil
	}

	inverse, err := amount.Invert(rate, asset.Basis, m.rounding)
	if err != nil {
		return fmt.Errorf("add asset [%v/%v]: %w", asset, reference, err)
	}
	assetOne, err := amount.One(asset.Basis)
	if err != nil {
		return fmt.Errorf("add asset [%v]: %w", asset, err)
	}
	referenceOne, err := amount.One(reference.Basis)
	if err != nil {
		return fmt.Errorf("add asset [%v]: %w", reference, err)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	referenceRow := m.ensureRow(reference)
	assetRow := m.ensureRow(asset)

	assetRow.rates[reference.Symbol] = rate
	assetRow.rates[asset.Symbol] = assetOne
	referenceRow.rates[asset.Symbol] = inverse
	referenceRow.rates[reference.Symbol] = referenceOne

	level.Debug(m.logger).Log("msg", "added asset", "asset", asset, "reference", reference, "rate", rate, "inverse", inverse)
	return nil
}

// UpdateRates sets 1 asset = rate reference and re-derives the rates of asset
// against every asset linked to reference.
// Assets linked to asset only through another reference are left untouched, so
// rates built along different reference chains may drift until they are updated.
// rate is re-expressed in reference's basis first.
// A zero rate carries no information and is ignored.
func (m *Matrix) UpdateRates(asset *domain.Asset, reference *domain.Asset, rate amount.Amount) error {
	if asset == nil || reference == nil {
		return fmt.Errorf("update rates: nil asset: %w", ErrInvalidArgument)
	}
	if asset.Symbol == reference.Symbol {
		return fmt.Errorf("update rates [%v]: asset and reference must differ: %w", asset, ErrInvalidArgument)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	referenceRow, ok := m.rows[reference.Symbol]
	if !ok {
		return fmt.Errorf("update rates: reference [%v]: %w", reference, ErrUnknownAsset)
	}
	if _, ok := referenceRow.rates[asset.Symbol]; !ok {
		return fmt.Errorf("update rates: [%v] not linked to [%v]: %w", asset, reference, ErrUnknownAsset)
	}
	if rate.IsZero() {
		return nil
	}
	assetRow, ok := m.rows[asset.Symbol]
	if !ok {
		return fmt.Errorf("update rates: [%v]: %w", asset, ErrUnknownAsset)
	}
	rate, err := m.normalize(rate, reference)
	if err != nil {
		return fmt.Errorf("update rates [%v/%v]: %w", asset, reference, err)
	}
	if rate.IsZero() {
		return nil
	}

	inverse, err := amount.Invert(rate, asset.Basis, m.rounding)
	if err != nil {
		return fmt.Errorf("update rates [%v/%v]: %w", asset, reference, err)
	}

	// derive every cross rate before writing so a failure leaves the table as it was
	var updates []crossUpdate
	for _, symbol := range m.symbols() {
		if symbol == reference.Symbol || symbol == asset.Symbol {
			continue
		}
		referenceRate, ok := referenceRow.rates[symbol]
		if !ok || referenceRate.IsZero() {
			continue
		}
		other := m.rows[symbol]

		var u crossUpdate
		if m.isPegged(asset.Symbol, symbol) {
			u, err = m.peg(asset, other)
		} else {
			u, err = m.cross(asset, other, rate, referenceRate)
		}
		if err != nil {
			return fmt.Errorf("update rates [%v/%v]: %w", asset, symbol, err)
		}
		if u.cross.IsZero() {
			level.Warn(m.logger).Log("msg", "cross rate below basis, keeping previous rate", "asset", asset, "other", symbol)
			continue
		}
		updates = append(updates, u)
	}

	assetRow.rates[reference.Symbol] = rate
	referenceRow.rates[asset.Symbol] = inverse
	for _, u := range updates {
		assetRow.rates[u.other.asset.Symbol] = u.cross
		u.other.rates[asset.Symbol] = u.inverse
		level.Debug(m.logger).Log(
			"msg", "updated cross rate",
			"asset", asset,
			"reference", reference,
			"other", u.other.asset,
			"cross_rate", u.cross,
			"inverse_cross_rate", u.inverse,
		)
	}
	return nil
}

// Rate returns the rate such that 1 a = rate b
func (m *Matrix) Rate(a *domain.Asset, b *domain.Asset) (amount.Amount, error) {
	if a == nil || b == nil {
		return amount.Amount{}, fmt.Errorf("rate: nil asset: %w", ErrInvalidArgument)
	}
	if a.Symbol == b.Symbol {
		return amount.One(a.Basis)
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	r, ok := m.rows[a.Symbol]
	if !ok {
		return amount.Amount{}, fmt.Errorf("rate [%v/%v]: %v not in matrix: %w", a, b, a, ErrUnknownPair)
	}
	rate, ok := r.rates[b.Symbol]
	if !ok {
		return amount.Amount{}, fmt.Errorf("rate [%v/%v]: %w", a, b, ErrUnknownPair)
	}
	return rate, nil
}

// ContainsPair reports whether both assets are in the matrix.
// It does not guarantee that a rate between them is known.
func (m *Matrix) ContainsPair(a *domain.Asset, b *domain.Asset) bool {
	if a == nil || b == nil {
		return false
	}
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, okA := m.rows[a.Symbol]
	_, okB := m.rows[b.Symbol]
	return okA && okB
}

// Assets returns the known assets ordered by symbol
func (m *Matrix) Assets() []*domain.Asset {
	m.lock.RLock()
	defer m.lock.RUnlock()
	assets := make([]*domain.Asset, 0, len(m.rows))
	for _, symbol := range m.symbols() {
		assets = append(assets, m.rows[symbol].asset)
	}
	return assets
}

func (m *Matrix) String() string {
	m.lock.RLock()
	defer m.lock.RUnlock()

	var sb strings.Builder
	sb.WriteString("{")
	for i, symbol := range m.symbols() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(symbol)
		sb.WriteString("=>{")
		r := m.rows[symbol]
		others := make([]string, 0, len(r.rates))
		for other := range r.rates {
			others = append(others, other)
		}
		sort.Strings(others)
		for j, other := range others {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s:%v", other, r.rates[other].Decimal())
		}
		sb.WriteString("}")
	}
	sb.WriteString("}")
	return sb.String()
}

// ensureRow returns the row of asset, creating it if needed. Caller must hold the write lock.
func (m *Matrix) ensureRow(asset *domain.Asset) *row {
	r, ok := m.rows[asset.Symbol]
	if !ok {
		r = &row{asset: asset, rates: map[string]amount.Amount{}}
		m.rows[asset.Symbol] = r
	}
	return r
}

// symbols snapshots the known symbols in order. Caller must hold the lock.
func (m *Matrix) symbols() []string {
	symbols := make([]string, 0, len(m.rows))
	for symbol := range m.rows {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// normalize expresses rate in the basis of reference, the unit it is quoted in
func (m *Matrix) normalize(rate amount.Amount, reference *domain.Asset) (amount.Amount, error) {
	if rate.Basis.Equal(reference.Basis) {
		return rate, nil
	}
	return rate.ToBasis(reference.Basis, m.rounding)
}

func (m *Matrix) isPegged(a string, b string) bool {
	if !m.stablecoinPeg {
		return false
	}
	return (a == pegUSD && b == pegUSDT) || (a == pegUSDT && b == pegUSD)
}

// peg returns exactly 1 in both directions
func (m *Matrix) peg(asset *domain.Asset, other *row) (crossUpdate, error) {
	cross, err := amount.One(other.asset.Basis)
	if err != nil {
		return crossUpdate{}, err
	}
	inverse, err := amount.One(asset.Basis)
	if err != nil {
		return crossUpdate{}, err
	}
	level.Debug(m.logger).Log("msg", "stablecoin peg", "asset", asset, "other", other.asset)
	return crossUpdate{other: other, cross: cross, inverse: inverse}, nil
}

// cross derives asset/other through the reference:
// 1 asset = rate reference and 1 reference = referenceRate other.
// The product is rounded once, into other's basis.
func (m *Matrix) cross(asset *domain.Asset, other *row, rate amount.Amount, referenceRate amount.Amount) (crossUpdate, error) {
	cross, err := amount.FromDecimal(referenceRate.Decimal().Mul(rate.Decimal()), other.asset.Basis, m.rounding)
	if err != nil {
		return crossUpdate{}, err
	}
	if cross.IsZero() {
		return crossUpdate{other: other, cross: cross}, nil
	}
	inverse, err := amount.Invert(cross, asset.Basis, m.rounding)
	if err != nil {
		return crossUpdate{}, err
	}
	return crossUpdate{other: other, cross: cross, inverse: inverse}, nil
}
