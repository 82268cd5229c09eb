package reader

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/aswapdex/aswap/common"
)

const TIMEOUT time.Duration = 4 * time.Second

type OneNodeReader struct {
	nodeName  string
	nodeURL   string
	client    *rpc.Client
	ethClient *ethclient.Client
	mu        sync.Mutex
}

func NewOneNodeReader(name, url string) *OneNodeReader {
	return &OneNodeReader{
		nodeName: name,
		nodeURL:  url,
	}
}

func (onr *OneNodeReader) NodeName() string {
	return onr.nodeName
}

func (onr *OneNodeReader) NodeURL() string {
	return onr.nodeURL
}

func (onr *OneNodeReader) initConnection() error {
	onr.mu.Lock()
	defer onr.mu.Unlock()
	client, err := rpc.Dial(onr.NodeURL())
	if err != nil {
		return fmt.Errorf("couldn't connect to %s: %w", onr.nodeName, err)
	}
	onr.client = client
	onr.ethClient = ethclient.NewClient(onr.client)
	return nil
}

func (onr *OneNodeReader) Client() (*rpc.Client, error) {
	if onr.client != nil {
		return onr.client, nil
	}
	err := onr.initConnection()
	return onr.client, err
}

func (onr *OneNodeReader) EthClient() (*ethclient.Client, error) {
	if onr.ethClient != nil {
		return onr.ethClient, nil
	}
	err := onr.initConnection()
	return onr.ethClient, err
}

func (onr *OneNodeReader) GetBalance(address string) (balance *big.Int, err error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}
	acc := ethcommon.HexToAddress(address)
	timeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()
	return ethcli.BalanceAt(timeout, acc, nil)
}

func (onr *OneNodeReader) GetPendingNonce(address string) (nonce uint64, err error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return 0, err
	}
	acc := ethcommon.HexToAddress(address)
	timeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()
	return ethcli.PendingNonceAt(timeout, acc)
}

func (onr *OneNodeReader) TransactionReceipt(txHash string) (receipt *types.Receipt, err error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}
	hash := ethcommon.HexToHash(txHash)
	timeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()
	return ethcli.TransactionReceipt(timeout, hash)
}

func (onr *OneNodeReader) transactionByHashOnNode(ctx context.Context, hash ethcommon.Hash) (tx *common.Transaction, isPending bool, err error) {
	var json *common.Transaction
	cli, err := onr.Client()
	if err != nil {
		return nil, false, err
	}
	err = cli.CallContext(ctx, &json, "eth_getTransactionByHash", hash)
	if err != nil {
		return nil, false, err
	} else if json == nil {
		return nil, false, ethereum.NotFound
	} else if _, r, _ := json.RawSignatureValues(); r == nil {
		return nil, false, fmt.Errorf("server returned transaction without signature")
	}
	return json, json.Extra.BlockNumber == nil, nil
}

func (onr *OneNodeReader) TransactionByHash(txHash string) (tx *common.Transaction, isPending bool, err error) {
	hash := ethcommon.HexToHash(txHash)
	timeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()
	return onr.transactionByHashOnNode(timeout, hash)
}

func (onr *OneNodeReader) HeaderByNumber(number int64) (*types.Header, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}
	var numberBig *big.Int
	if number > -1 {
		numberBig = big.NewInt(number)
	}
	timeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()
	return ethcli.HeaderByNumber(timeout, numberBig)
}

func (onr *OneNodeReader) SuggestedGasPrice() (*big.Int, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}

	timeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()

	return ethcli.SuggestGasPrice(timeout)
}

func (onr *OneNodeReader) SuggestedGasTipCap() (*big.Int, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}

	timeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()

	return ethcli.SuggestGasTipCap(timeout)
}

func (onr *OneNodeReader) ReadContractToBytes(atBlock int64, from string, caddr string, abi *abi.ABI, method string, args ...interface{}) ([]byte, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}

	contract := ethcommon.HexToAddress(caddr)
	data, err := abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	var blockBig *big.Int
	if atBlock > 0 {
		blockBig = big.NewInt(atBlock)
	}
	timeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()

	return ethcli.CallContract(timeout, ethereum.CallMsg{
		From:     ethcommon.HexToAddress(from),
		To:       &contract,
		Gas:      0,
		GasPrice: nil,
		Value:    nil,
		Data:     data,
	}, blockBig)
}

func (onr *OneNodeReader) CurrentBlock() (uint64, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return 0, err
	}
	timeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()
	header, err := ethcli.HeaderByNumber(timeout, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}
