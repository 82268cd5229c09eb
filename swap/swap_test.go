package swap

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aswapdex/aswap/common"
	"github.com/aswapdex/aswap/networks"
	"github.com/aswapdex/aswap/quote"
	"github.com/aswapdex/aswap/registry"
)

var (
	nativeToken = registry.Token{
		Address:  registry.NativeTokenAddress,
		Symbol:   "AVAX",
		Decimals: 18,
	}
	usdtToken = registry.Token{
		Address:  "0xc7198437980c041c805A1EDcbA50c1Ce5db95118",
		Symbol:   "USDT.e",
		Decimals: 6,
	}
	usdcToken = registry.Token{
		Address:  "0xA7D7079b0FEaD91F3e65f86E8915Cb59c1a4C664",
		Symbol:   "USDC.e",
		Decimals: 6,
	}
)

type fakeSwapReader struct {
	mu             sync.Mutex
	allowance      *big.Int
	allowanceCalls []string // spender per call
	nonce          uint64
}

func (f *fakeSwapReader) GetPendingNonce(address string) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeSwapReader) ERC20Allowance(caddr, owner, spender string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowanceCalls = append(f.allowanceCalls, spender)
	if f.allowance == nil {
		return big.NewInt(0), nil
	}
	return f.allowance, nil
}

func (f *fakeSwapReader) SuggestedGasSettings() (float64, float64, error) {
	return 30, 1, nil
}

func (f *fakeSwapReader) CheckDynamicFeeTxAvailable() (bool, error) {
	return true, nil
}

type fakeBroadcaster struct {
	mu  sync.Mutex
	txs []*types.Transaction
	err error
}

func (f *fakeBroadcaster) BroadcastTx(tx *types.Transaction) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", false, f.err
	}
	f.txs = append(f.txs, tx)
	return tx.Hash().Hex(), true, nil
}

// fakeWaiter answers BlockingWait calls in order from a queue.
type fakeWaiter struct {
	mu    sync.Mutex
	queue []common.TxInfo
}

func (f *fakeWaiter) BlockingWait(ctx context.Context, tx string) common.TxInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return common.TxInfo{Status: common.TxStatusDone}
	}
	info := f.queue[0]
	f.queue = f.queue[1:]
	return info
}

type testSigner struct {
	key     *ecdsa.PrivateKey
	address ethcommon.Address
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &testSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s *testSigner) Address() ethcommon.Address { return s.address }
func (s *testSigner) AddressHex() string         { return s.address.Hex() }

func (s *testSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

type fixture struct {
	executor    *Executor
	reader      *fakeSwapReader
	broadcaster *fakeBroadcaster
	waiter      *fakeWaiter
	network     networks.Network
}

func newFixture(t *testing.T, feeCollector ethcommon.Address) *fixture {
	t.Helper()
	network, err := networks.GetNetwork("avalanche")
	require.NoError(t, err)
	reader := &fakeSwapReader{}
	broadcaster := &fakeBroadcaster{}
	waiter := &fakeWaiter{}
	executor := NewExecutor(
		network, reader, broadcaster, waiter,
		newTestSigner(t), feeCollector, zap.NewNop(),
	)
	return &fixture{executor, reader, broadcaster, waiter, network}
}

func (fx *fixture) route(t *testing.T, from, to registry.Token, amountIn, amountOut int64) *quote.Route {
	t.Helper()
	e := quote.NewEngine(fx.network, nil, ethcommon.Address{}, zap.NewNop())
	path := e.BuildPath(from, to)
	require.NotNil(t, path)
	return &quote.Route{
		Router:      fx.network.GetRouters()[0],
		Path:        path,
		AmountIn:    big.NewInt(amountIn),
		NetAmountIn: big.NewInt(amountIn),
		AmountOut:   big.NewInt(amountOut),
	}
}

func methodID(t *testing.T, data []byte) [4]byte {
	t.Helper()
	require.GreaterOrEqual(t, len(data), 4)
	var id [4]byte
	copy(id[:], data[:4])
	return id
}

func TestMinAmountOut(t *testing.T) {
	out := big.NewInt(1000000)

	min, err := MinAmountOut(out, 0.5)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(995000), min)

	min, err = MinAmountOut(out, 0)
	require.NoError(t, err)
	assert.Equal(t, out, min)

	_, err = MinAmountOut(out, -1)
	assert.ErrorIs(t, err, ErrInvalidSlippage)
	_, err = MinAmountOut(out, 100)
	assert.ErrorIs(t, err, ErrInvalidSlippage)
}

func TestExecuteNativeInSkipsApproval(t *testing.T) {
	fx := newFixture(t, ethcommon.Address{})
	route := fx.route(t, nativeToken, usdtToken, 1000000000000000000, 25000000)

	result, err := fx.executor.Execute(context.Background(), Params{
		Route: route, From: nativeToken, To: usdtToken, SlippagePct: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, StateComplete, fx.executor.State())
	assert.Empty(t, result.ApprovalTxHash)
	assert.Empty(t, fx.reader.allowanceCalls, "native input needs no allowance check")

	require.Len(t, fx.broadcaster.txs, 1)
	tx := fx.broadcaster.txs[0]
	assert.Equal(t, route.NetAmountIn, tx.Value(), "native amount travels as tx value")
	assert.Equal(t, route.Router.Address, *tx.To())

	want := common.GetRouterABI().Methods["swapExactAVAXForTokens"].ID
	assert.Equal(t, methodID(t, want), methodID(t, tx.Data()))
}

func TestExecuteApprovesWhenAllowanceTooLow(t *testing.T) {
	fx := newFixture(t, ethcommon.Address{})
	fx.reader.allowance = big.NewInt(0)
	route := fx.route(t, usdtToken, usdcToken, 1000000, 990000)

	result, err := fx.executor.Execute(context.Background(), Params{
		Route: route, From: usdtToken, To: usdcToken, SlippagePct: 1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.ApprovalTxHash)

	require.Len(t, fx.broadcaster.txs, 2)
	approveTx, swapTx := fx.broadcaster.txs[0], fx.broadcaster.txs[1]

	assert.Equal(t, ethcommon.HexToAddress(usdtToken.Address), *approveTx.To())
	want := common.GetERC20ABI().Methods["approve"].ID
	assert.Equal(t, methodID(t, want), methodID(t, approveTx.Data()))

	require.Len(t, fx.reader.allowanceCalls, 1)
	assert.Equal(t, route.Router.Address.Hex(), fx.reader.allowanceCalls[0],
		"without a fee collector the router is the spender")

	assert.Equal(t, route.Router.Address, *swapTx.To())
	want = common.GetRouterABI().Methods["swapExactTokensForTokens"].ID
	assert.Equal(t, methodID(t, want), methodID(t, swapTx.Data()))
	assert.Equal(t, int64(0), swapTx.Value().Int64())
}

func TestExecuteSkipsApprovalWhenAllowanceSufficient(t *testing.T) {
	fx := newFixture(t, ethcommon.Address{})
	fx.reader.allowance = big.NewInt(2000000)
	route := fx.route(t, usdtToken, usdcToken, 1000000, 990000)

	result, err := fx.executor.Execute(context.Background(), Params{
		Route: route, From: usdtToken, To: usdcToken, SlippagePct: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, result.ApprovalTxHash)
	assert.Len(t, fx.broadcaster.txs, 1)
}

func TestExecuteTokenToNativeShape(t *testing.T) {
	fx := newFixture(t, ethcommon.Address{})
	fx.reader.allowance = big.NewInt(2000000)
	route := fx.route(t, usdtToken, nativeToken, 1000000, 40000000000000000)

	_, err := fx.executor.Execute(context.Background(), Params{
		Route: route, From: usdtToken, To: nativeToken, SlippagePct: 1,
	})
	require.NoError(t, err)

	require.Len(t, fx.broadcaster.txs, 1)
	want := common.GetRouterABI().Methods["swapExactTokensForAVAX"].ID
	assert.Equal(t, methodID(t, want), methodID(t, fx.broadcaster.txs[0].Data()))
}

func TestExecuteWithFeeCollector(t *testing.T) {
	collector := ethcommon.HexToAddress("0x2222222222222222222222222222222222222222")
	fx := newFixture(t, collector)
	fx.reader.allowance = big.NewInt(0)
	route := fx.route(t, usdtToken, usdcToken, 1000000, 980000)
	route.NetAmountIn = big.NewInt(990000)

	_, err := fx.executor.Execute(context.Background(), Params{
		Route: route, From: usdtToken, To: usdcToken, SlippagePct: 1,
	})
	require.NoError(t, err)

	require.Len(t, fx.reader.allowanceCalls, 1)
	assert.Equal(t, collector.Hex(), fx.reader.allowanceCalls[0],
		"the collector pulls the tokens, so it is the spender")

	require.Len(t, fx.broadcaster.txs, 2)
	swapTx := fx.broadcaster.txs[1]
	assert.Equal(t, collector, *swapTx.To())
	want := common.GetFeeCollectorABI().Methods["swapExactTokensForTokensWithFee"].ID
	assert.Equal(t, methodID(t, want), methodID(t, swapTx.Data()))
}

func TestExecuteFailsOnRevertedSwap(t *testing.T) {
	fx := newFixture(t, ethcommon.Address{})
	fx.reader.allowance = big.NewInt(2000000)
	fx.waiter.queue = []common.TxInfo{{Status: common.TxStatusReverted}}
	route := fx.route(t, usdtToken, usdcToken, 1000000, 990000)

	_, err := fx.executor.Execute(context.Background(), Params{
		Route: route, From: usdtToken, To: usdcToken, SlippagePct: 1,
	})
	assert.ErrorIs(t, err, ErrSwapReverted)
	assert.Equal(t, StateFailed, fx.executor.State())
}

func TestExecuteFailsOnFailedApproval(t *testing.T) {
	fx := newFixture(t, ethcommon.Address{})
	fx.reader.allowance = big.NewInt(0)
	fx.waiter.queue = []common.TxInfo{{Status: common.TxStatusReverted}}
	route := fx.route(t, usdtToken, usdcToken, 1000000, 990000)

	_, err := fx.executor.Execute(context.Background(), Params{
		Route: route, From: usdtToken, To: usdcToken, SlippagePct: 1,
	})
	assert.ErrorIs(t, err, ErrApprovalFailed)
	assert.Equal(t, StateFailed, fx.executor.State())
	assert.Len(t, fx.broadcaster.txs, 1, "the swap must not be submitted after a failed approval")
}

func TestExecuteFailsWhenNoNodeAccepts(t *testing.T) {
	fx := newFixture(t, ethcommon.Address{})
	fx.broadcaster.err = errors.New("insufficient funds for gas * price + value")
	route := fx.route(t, nativeToken, usdtToken, 1000000, 25000000)

	_, err := fx.executor.Execute(context.Background(), Params{
		Route: route, From: nativeToken, To: usdtToken, SlippagePct: 1,
	})
	assert.ErrorIs(t, err, ErrSwapSubmitFailed)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestExecuteRejectsBadInput(t *testing.T) {
	fx := newFixture(t, ethcommon.Address{})

	_, err := fx.executor.Execute(context.Background(), Params{Route: nil})
	assert.ErrorIs(t, err, ErrInvalidRoute)

	route := fx.route(t, usdtToken, usdcToken, 1000000, 990000)
	_, err = fx.executor.Execute(context.Background(), Params{
		Route: route, From: usdtToken, To: usdcToken, SlippagePct: 120,
	})
	assert.ErrorIs(t, err, ErrInvalidSlippage)
	assert.Equal(t, StateIdle, fx.executor.State(), "input validation happens before the state machine starts")
}

func TestExecutorIsReusableAfterTerminalState(t *testing.T) {
	fx := newFixture(t, ethcommon.Address{})
	fx.reader.allowance = big.NewInt(2000000)
	route := fx.route(t, usdtToken, usdcToken, 1000000, 990000)
	params := Params{Route: route, From: usdtToken, To: usdcToken, SlippagePct: 1}

	_, err := fx.executor.Execute(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, StateComplete, fx.executor.State())

	_, err = fx.executor.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, fx.executor.State())
}
