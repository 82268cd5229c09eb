package swap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/aswapdex/aswap/common"
	"github.com/aswapdex/aswap/networks"
	"github.com/aswapdex/aswap/quote"
	"github.com/aswapdex/aswap/registry"
)

// State tracks where a swap currently is. Transitions are strictly
// forward, Failed can be entered from any non terminal state. A new
// Execute call on a terminal executor resets it to Idle.
type State string

const (
	StateIdle                     State = "idle"
	StateAwaitingApproval         State = "awaiting_approval"
	StateApprovalConfirmed        State = "approval_confirmed"
	StateAwaitingSwapSubmission   State = "awaiting_swap_submission"
	StateAwaitingSwapConfirmation State = "awaiting_swap_confirmation"
	StateComplete                 State = "complete"
	StateFailed                   State = "failed"
)

var (
	ErrInvalidSlippage  = errors.New("slippage must be in [0, 100)")
	ErrInvalidRoute     = errors.New("route is missing or has no output")
	ErrSwapInProgress   = errors.New("another swap is already in flight")
	ErrApprovalFailed   = errors.New("approval tx was not confirmed")
	ErrSwapSubmitFailed = errors.New("swap tx couldn't be submitted")
	ErrSwapReverted     = errors.New("swap tx reverted on chain")
	ErrSwapLost         = errors.New("swap tx disappeared from the network")
)

const (
	// tx deadline handed to the router
	deadlineWindow = 1200 * time.Second
	// fixed gas ceilings, the router call cost is bounded and known so
	// estimation would only add a node round trip
	approveGasLimit     = 100000
	swapGasLimit        = 300000
	swapWithFeeGasLimit = 450000
	slippageScale       = 1000000
)

// SwapReader is the chain surface the executor needs, satisfied by
// *reader.EthReader.
type SwapReader interface {
	GetPendingNonce(address string) (uint64, error)
	ERC20Allowance(caddr string, owner string, spender string) (*big.Int, error)
	SuggestedGasSettings() (maxGasPriceGwei, maxTipGwei float64, err error)
	CheckDynamicFeeTxAvailable() (bool, error)
}

type TxBroadcaster interface {
	BroadcastTx(tx *types.Transaction) (string, bool, error)
}

type TxWaiter interface {
	BlockingWait(ctx context.Context, tx string) common.TxInfo
}

type Signer interface {
	Address() ethcommon.Address
	AddressHex() string
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Params describes one swap to run: the quoted route to execute and
// the slippage tolerance in percent.
type Params struct {
	Route       *quote.Route
	From        registry.Token
	To          registry.Token
	SlippagePct float64
}

// Result reports what happened: the tx hashes (approval hash empty
// when no approval was needed) and the slippage bound the swap was
// submitted with.
type Result struct {
	ApprovalTxHash string
	SwapTxHash     string
	MinAmountOut   *big.Int
	SwapInfo       common.TxInfo
}

// Executor runs one swap at a time through the approve-then-swap
// sequence and exposes its state machine to the UI layer.
type Executor struct {
	network      networks.Network
	reader       SwapReader
	broadcaster  TxBroadcaster
	monitor      TxWaiter
	account      Signer
	feeCollector ethcommon.Address
	logger       *zap.Logger

	mu    sync.Mutex
	state State
}

func NewExecutor(
	network networks.Network,
	reader SwapReader,
	broadcaster TxBroadcaster,
	monitor TxWaiter,
	account Signer,
	feeCollector ethcommon.Address,
	logger *zap.Logger,
) *Executor {
	return &Executor{
		network:      network,
		reader:       reader,
		broadcaster:  broadcaster,
		monitor:      monitor,
		account:      account,
		feeCollector: feeCollector,
		logger:       logger,
		state:        StateIdle,
	}
}

func (ex *Executor) State() State {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.state
}

func (ex *Executor) transition(to State, fields ...zap.Field) {
	ex.mu.Lock()
	from := ex.state
	ex.state = to
	ex.mu.Unlock()
	fields = append(fields,
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	ex.logger.Info("swap state changed", fields...)
}

func (ex *Executor) feeEnabled() bool {
	return ex.feeCollector != (ethcommon.Address{})
}

// spender is who pulls the input token: the fee collector when
// configured, the route's router otherwise.
func (ex *Executor) spender(route *quote.Route) ethcommon.Address {
	if ex.feeEnabled() {
		return ex.feeCollector
	}
	return route.Router.Address
}

// MinAmountOut applies the slippage tolerance to the quoted output
// using integer math at parts-per-million resolution.
func MinAmountOut(amountOut *big.Int, slippagePct float64) (*big.Int, error) {
	if slippagePct < 0 || slippagePct >= 100 || math.IsNaN(slippagePct) {
		return nil, fmt.Errorf("%w: %f", ErrInvalidSlippage, slippagePct)
	}
	keepPPM := int64(slippageScale) - int64(math.Round(slippagePct*slippageScale/100))
	min := new(big.Int).Mul(amountOut, big.NewInt(keepPPM))
	return min.Div(min, big.NewInt(slippageScale)), nil
}

// Execute runs the full swap sequence: allowance check, approval if
// needed, swap submission, confirmation wait. It blocks until the swap
// is confirmed, fails or ctx is cancelled.
func (ex *Executor) Execute(ctx context.Context, p Params) (*Result, error) {
	if p.Route == nil || p.Route.AmountOut == nil || p.Route.AmountOut.Sign() <= 0 {
		return nil, ErrInvalidRoute
	}
	minOut, err := MinAmountOut(p.Route.AmountOut, p.SlippagePct)
	if err != nil {
		return nil, err
	}
	if !ex.begin() {
		return nil, ErrSwapInProgress
	}

	result := &Result{MinAmountOut: minOut}

	if err := ex.ensureAllowance(ctx, p, result); err != nil {
		ex.transition(StateFailed, zap.Error(err))
		return result, err
	}

	if err := ex.submitAndConfirmSwap(ctx, p, minOut, result); err != nil {
		ex.transition(StateFailed, zap.Error(err))
		return result, err
	}

	ex.transition(StateComplete,
		zap.String("tx", result.SwapTxHash),
		zap.String("minAmountOut", minOut.String()),
	)
	return result, nil
}

func (ex *Executor) begin() bool {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	switch ex.state {
	case StateIdle, StateComplete, StateFailed:
		ex.state = StateIdle
		return true
	default:
		return false
	}
}

func (ex *Executor) ensureAllowance(ctx context.Context, p Params, result *Result) error {
	if p.From.IsNative() {
		// the native asset travels as tx value, nothing to approve
		ex.transition(StateApprovalConfirmed, zap.Bool("skipped", true))
		return nil
	}

	spender := ex.spender(p.Route)
	allowance, err := ex.reader.ERC20Allowance(p.From.Address, ex.account.AddressHex(), spender.Hex())
	if err != nil {
		return fmt.Errorf("couldn't read allowance: %w", err)
	}
	if allowance.Cmp(p.Route.AmountIn) >= 0 {
		ex.transition(StateApprovalConfirmed, zap.Bool("skipped", true))
		return nil
	}

	ex.transition(StateAwaitingApproval,
		zap.String("token", p.From.Symbol),
		zap.String("spender", spender.Hex()),
	)

	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	data, err := common.PackERC20Data("approve", spender, maxUint256)
	if err != nil {
		return fmt.Errorf("couldn't pack approve calldata: %w", err)
	}

	hash, info, err := ex.sendTx(ctx, p.From.Address, big.NewInt(0), approveGasLimit, data)
	result.ApprovalTxHash = hash
	if err != nil {
		return fmt.Errorf("%w: %s", ErrApprovalFailed, err)
	}
	if info.Status != common.TxStatusDone {
		return fmt.Errorf("%w: tx %s ended with status %s", ErrApprovalFailed, hash, info.Status)
	}

	ex.transition(StateApprovalConfirmed, zap.String("tx", hash))
	return nil
}

func (ex *Executor) submitAndConfirmSwap(ctx context.Context, p Params, minOut *big.Int, result *Result) error {
	ex.transition(StateAwaitingSwapSubmission,
		zap.String("router", p.Route.Router.Name),
		zap.String("pair", p.From.Symbol+"/"+p.To.Symbol),
	)

	to, value, gasLimit, data, err := ex.buildSwapCall(p, minOut)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSwapSubmitFailed, err)
	}

	txData, err := ex.broadcastTx(to, value, gasLimit, data)
	result.SwapTxHash = txData
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSwapSubmitFailed, err)
	}

	ex.transition(StateAwaitingSwapConfirmation, zap.String("tx", txData))

	info := ex.monitor.BlockingWait(ctx, txData)
	result.SwapInfo = info
	switch info.Status {
	case common.TxStatusDone:
		return nil
	case common.TxStatusReverted:
		return fmt.Errorf("%w: %s", ErrSwapReverted, txData)
	default:
		return fmt.Errorf("%w: %s", ErrSwapLost, txData)
	}
}

// buildSwapCall picks one of the three router call shapes (native in,
// native out, token to token), or their fee collector variants which
// take the router as first argument.
func (ex *Executor) buildSwapCall(p Params, minOut *big.Int) (to string, value *big.Int, gasLimit uint64, data []byte, err error) {
	route := p.Route
	recipient := ex.account.Address()
	deadline := big.NewInt(time.Now().Add(deadlineWindow).Unix())
	value = big.NewInt(0)

	if ex.feeEnabled() {
		abi := common.GetFeeCollectorABI()
		to = ex.feeCollector.Hex()
		gasLimit = swapWithFeeGasLimit
		switch {
		case p.From.IsNative():
			value = route.AmountIn
			data, err = abi.Pack("swapExactAVAXForTokensWithFee",
				route.Router.Address, minOut, route.Path, recipient, deadline)
		case p.To.IsNative():
			data, err = abi.Pack("swapExactTokensForAVAXWithFee",
				route.Router.Address, route.AmountIn, minOut, route.Path, recipient, deadline)
		default:
			data, err = abi.Pack("swapExactTokensForTokensWithFee",
				route.Router.Address, route.AmountIn, minOut, route.Path, recipient, deadline)
		}
		return to, value, gasLimit, data, err
	}

	abi := common.GetRouterABI()
	to = route.Router.Address.Hex()
	gasLimit = swapGasLimit
	switch {
	case p.From.IsNative():
		value = route.NetAmountIn
		data, err = abi.Pack("swapExactAVAXForTokens",
			minOut, route.Path, recipient, deadline)
	case p.To.IsNative():
		data, err = abi.Pack("swapExactTokensForAVAX",
			route.NetAmountIn, minOut, route.Path, recipient, deadline)
	default:
		data, err = abi.Pack("swapExactTokensForTokens",
			route.NetAmountIn, minOut, route.Path, recipient, deadline)
	}
	return to, value, gasLimit, data, err
}

func (ex *Executor) sendTx(ctx context.Context, to string, value *big.Int, gasLimit uint64, data []byte) (string, common.TxInfo, error) {
	hash, err := ex.broadcastTx(to, value, gasLimit, data)
	if err != nil {
		return hash, common.TxInfo{Status: common.TxStatusError}, err
	}
	info := ex.monitor.BlockingWait(ctx, hash)
	return hash, info, nil
}

func (ex *Executor) broadcastTx(to string, value *big.Int, gasLimit uint64, data []byte) (string, error) {
	nonce, err := ex.reader.GetPendingNonce(ex.account.AddressHex())
	if err != nil {
		return "", fmt.Errorf("couldn't get pending nonce: %w", err)
	}
	gasPriceGwei, tipGwei, err := ex.reader.SuggestedGasSettings()
	if err != nil {
		return "", fmt.Errorf("couldn't get gas settings: %w", err)
	}
	txType := common.TxTypeLegacy
	if dynamicFee, err := ex.reader.CheckDynamicFeeTxAvailable(); err == nil && dynamicFee {
		txType = common.TxTypeDynamicFee
	}

	tx := common.BuildExactTx(
		nonce, to, value, gasLimit,
		gasPriceGwei, tipGwei, data,
		txType, ex.network.GetChainID(),
	)
	signedTx, err := ex.account.SignTx(tx, new(big.Int).SetUint64(ex.network.GetChainID()))
	if err != nil {
		return "", err
	}

	hash, reached, err := ex.broadcaster.BroadcastTx(signedTx)
	if !reached {
		msg := "no node accepted the tx"
		if err != nil {
			msg = err.Error()
		}
		return hash, errors.New(firstLine(msg))
	}
	return hash, nil
}

// firstLine trims multi node error joins down to something readable.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
