package reader

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/aswapdex/aswap/common"
)

type EthereumNode interface {
	NodeName() string
	NodeURL() string
	GetBalance(address string) (balance *big.Int, err error)
	GetPendingNonce(address string) (nonce uint64, err error)
	TransactionReceipt(txHash string) (receipt *types.Receipt, err error)
	TransactionByHash(txHash string) (tx *common.Transaction, isPending bool, err error)
	SuggestedGasPrice() (*big.Int, error)
	SuggestedGasTipCap() (*big.Int, error)
	ReadContractToBytes(
		atBlock int64,
		from string,
		caddr string,
		abi *abi.ABI,
		method string,
		args ...interface{},
	) ([]byte, error)
	HeaderByNumber(number int64) (*types.Header, error)
	CurrentBlock() (uint64, error)
}
