package reader

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aswapdex/aswap/common"
)

// fakeNode answers with fixed values or fails every call.
type fakeNode struct {
	name    string
	block   uint64
	balance *big.Int
	err     error
}

func (f *fakeNode) NodeName() string { return f.name }
func (f *fakeNode) NodeURL() string  { return "http://" + f.name }

func (f *fakeNode) GetBalance(address string) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeNode) GetPendingNonce(address string) (uint64, error) {
	return 0, f.err
}

func (f *fakeNode) TransactionReceipt(txHash string) (*types.Receipt, error) {
	return nil, f.err
}

func (f *fakeNode) TransactionByHash(txHash string) (*common.Transaction, bool, error) {
	return nil, false, f.err
}

func (f *fakeNode) SuggestedGasPrice() (*big.Int, error)  { return nil, f.err }
func (f *fakeNode) SuggestedGasTipCap() (*big.Int, error) { return nil, f.err }

func (f *fakeNode) ReadContractToBytes(atBlock int64, from, caddr string, abi *abi.ABI, method string, args ...interface{}) ([]byte, error) {
	return nil, f.err
}

func (f *fakeNode) HeaderByNumber(number int64) (*types.Header, error) {
	return nil, f.err
}

func (f *fakeNode) CurrentBlock() (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.block, nil
}

func newFakeReader(nodes ...*fakeNode) *EthReader {
	ns := map[string]EthereumNode{}
	for _, n := range nodes {
		ns[n.name] = n
	}
	return &EthReader{nodes: ns}
}

func TestCurrentBlockFirstSuccessWins(t *testing.T) {
	er := newFakeReader(
		&fakeNode{name: "down", err: errors.New("connection refused")},
		&fakeNode{name: "up", block: 12345678},
	)
	block, err := er.CurrentBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(12345678), block)
}

func TestCurrentBlockAllNodesFailing(t *testing.T) {
	er := newFakeReader(
		&fakeNode{name: "node-a", err: errors.New("connection refused")},
		&fakeNode{name: "node-b", err: errors.New("timeout")},
	)
	_, err := er.CurrentBlock()
	require.Error(t, err)
	// each node's failure is named in the joined error
	assert.Contains(t, err.Error(), "node-a")
	assert.Contains(t, err.Error(), "node-b")
}

func TestGetBalanceFirstSuccessWins(t *testing.T) {
	er := newFakeReader(
		&fakeNode{name: "down", err: errors.New("connection refused")},
		&fakeNode{name: "up", balance: big.NewInt(42)},
	)
	balance, err := er.GetBalance("0x19E7E376E7C213B7E7e7e46cc70A5dD086DAff2A")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), balance)
}
