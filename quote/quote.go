package quote

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/aswapdex/aswap/networks"
	"github.com/aswapdex/aswap/registry"
)

var ErrNoLiquidity = errors.New("no router returned a quote for this pair")

// feeBps is the flat fee taken from the input amount when a fee
// collector is configured. Quotes are computed on the net amount so the
// displayed output is the executable one.
const feeBps = 100

// QuoteReader is the chain surface the engine needs, satisfied by
// *reader.EthReader.
type QuoteReader interface {
	GetAmountsOut(router ethcommon.Address, amountIn *big.Int, path []ethcommon.Address) (*big.Int, error)
}

// Route is one executable swap option: a router, the token path it
// quotes on chain and the output it promised for the net input.
type Route struct {
	Router networks.Router
	// Path holds effective on-chain addresses, native sentinel already
	// substituted by the wrapped native token.
	Path []ethcommon.Address
	// AmountIn is the gross input the user typed, NetAmountIn what is
	// actually swapped after the fee deduction.
	AmountIn    *big.Int
	NetAmountIn *big.Int
	AmountOut   *big.Int
	// PriceImpactPct compares the USD value leaving and arriving, in
	// percent. Zero when either side has no known reference price.
	PriceImpactPct float64
	// ValueOutUSD is a rough USD value of the output from the static
	// anchor table, 0 when the asset has no anchor.
	ValueOutUSD float64
}

// Engine quotes a swap on every router of the network in parallel and
// ranks the answers. It is stateless apart from a request sequence
// counter that lets callers discard answers of superseded requests.
type Engine struct {
	network      networks.Network
	reader       QuoteReader
	logger       *zap.Logger
	feeCollector ethcommon.Address
	seq          atomic.Uint64
}

func NewEngine(network networks.Network, reader QuoteReader, feeCollector ethcommon.Address, logger *zap.Logger) *Engine {
	return &Engine{
		network:      network,
		reader:       reader,
		logger:       logger,
		feeCollector: feeCollector,
	}
}

func (e *Engine) FeeCollector() ethcommon.Address {
	return e.feeCollector
}

func (e *Engine) feeEnabled() bool {
	return e.feeCollector != (ethcommon.Address{})
}

// NetAmountIn returns what remains of amountIn after the fee cut, the
// amount that is quoted and swapped.
func (e *Engine) NetAmountIn(amountIn *big.Int) *big.Int {
	if !e.feeEnabled() {
		return new(big.Int).Set(amountIn)
	}
	net := new(big.Int).Mul(amountIn, big.NewInt(10000-feeBps))
	return net.Div(net, big.NewInt(10000))
}

// NextSeq hands out a request sequence number. A caller issuing
// overlapping quote requests keeps only the answer whose number is
// still the latest.
func (e *Engine) NextSeq() uint64 {
	return e.seq.Add(1)
}

func (e *Engine) IsLatest(seq uint64) bool {
	return e.seq.Load() == seq
}

// BuildPath returns the on-chain hop sequence for a pair: direct when
// either side is the wrapped native token, otherwise routed through
// it. Nil when the pair collapses to a single token.
func (e *Engine) BuildPath(from, to registry.Token) []ethcommon.Address {
	effFrom := registry.EffectiveAddress(e.network, from.Address)
	effTo := registry.EffectiveAddress(e.network, to.Address)
	if effFrom == effTo {
		return nil
	}
	wrapped := e.network.GetWrappedNativeTokenAddress()
	if effFrom == wrapped || effTo == wrapped {
		return []ethcommon.Address{effFrom, effTo}
	}
	return []ethcommon.Address{effFrom, wrapped, effTo}
}

// GetAllRoutes quotes amountIn of from against every router and
// returns the successful answers ordered by descending output. Routers
// without a pool for the pair are skipped silently. Degenerate
// requests (zero amount, missing token, identical pair) return an
// empty list without touching the chain.
func (e *Engine) GetAllRoutes(ctx context.Context, from, to registry.Token, amountIn *big.Int) ([]Route, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return []Route{}, nil
	}
	if from.Address == "" || to.Address == "" {
		return []Route{}, nil
	}
	path := e.BuildPath(from, to)
	if path == nil {
		return []Route{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	netIn := e.NetAmountIn(amountIn)
	routers := e.network.GetRouters()
	results := make([]*Route, len(routers))
	wg := sync.WaitGroup{}
	for i, router := range routers {
		wg.Add(1)
		go func(i int, router networks.Router) {
			defer wg.Done()
			out, err := e.reader.GetAmountsOut(router.Address, netIn, path)
			if err != nil {
				e.logger.Debug("router skipped",
					zap.String("router", router.Name),
					zap.Error(err),
				)
				return
			}
			if out == nil || out.Sign() <= 0 {
				return
			}
			results[i] = &Route{
				Router:         router,
				Path:           path,
				AmountIn:       new(big.Int).Set(amountIn),
				NetAmountIn:    netIn,
				AmountOut:      out,
				PriceImpactPct: priceImpactPct(from, to, netIn, out),
				ValueOutUSD:    estimatedUSDValue(to, out),
			}
		}(i, router)
	}
	wg.Wait()

	// keep router declaration order on ties, sortRoutes is stable
	routes := []Route{}
	for _, r := range results {
		if r != nil {
			routes = append(routes, *r)
		}
	}
	sortRoutes(routes)
	return routes, nil
}

// GetBestRoute returns the top ranked route or ErrNoLiquidity when no
// router quoted the pair.
func (e *Engine) GetBestRoute(ctx context.Context, from, to registry.Token, amountIn *big.Int) (*Route, error) {
	routes, err := e.GetAllRoutes(ctx, from, to, amountIn)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, ErrNoLiquidity
	}
	return &routes[0], nil
}
