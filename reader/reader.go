package reader

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/aswapdex/aswap/common"
	"github.com/aswapdex/aswap/networks"
)

var DEFAULT_ADDRESS string = "0x0000000000000000000000000000000000000000"

// EthReader runs every read against all of its nodes at once and
// returns the first successful response. It only fails when every
// node failed.
type EthReader struct {
	nodes map[string]EthereumNode
}

func NewEthReaderGeneric(nodes map[string]string) *EthReader {
	ns := map[string]EthereumNode{}
	for name, c := range nodes {
		ns[name] = NewOneNodeReader(name, c)
	}
	return &EthReader{
		nodes: ns,
	}
}

// NewEthReaderForNetwork picks the node set from the network config,
// overridable with the network's node env variable.
func NewEthReaderForNetwork(network networks.Network) *EthReader {
	nodes := network.GetDefaultNodes()
	if custom := strings.TrimSpace(os.Getenv(network.GetNodeVariableName())); custom != "" {
		nodes = map[string]string{"custom-node": custom}
	}
	return NewEthReaderGeneric(nodes)
}

func wrapError(e error, name string) error {
	if e == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, e)
}

type getBalanceResponse struct {
	Balance *big.Int
	Error   error
}

func (er *EthReader) GetBalance(address string) (balance *big.Int, err error) {
	resCh := make(chan getBalanceResponse, len(er.nodes))
	for i := range er.nodes {
		n := er.nodes[i]
		go func() {
			balance, err := n.GetBalance(address)
			resCh <- getBalanceResponse{
				Balance: balance,
				Error:   wrapError(err, n.NodeName()),
			}
		}()
	}
	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return result.Balance, result.Error
		}
		errs = append(errs, result.Error)
	}
	return nil, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

type getNonceResponse struct {
	Nonce uint64
	Error error
}

func (er *EthReader) GetPendingNonce(address string) (nonce uint64, err error) {
	resCh := make(chan getNonceResponse, len(er.nodes))
	for i := range er.nodes {
		n := er.nodes[i]
		go func() {
			nonce, err := n.GetPendingNonce(address)
			resCh <- getNonceResponse{
				Nonce: nonce,
				Error: wrapError(err, n.NodeName()),
			}
		}()
	}
	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return result.Nonce, result.Error
		}
		errs = append(errs, result.Error)
	}
	return 0, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

type transactionReceiptResponse struct {
	Receipt *types.Receipt
	Error   error
}

func (er *EthReader) TransactionReceipt(txHash string) (receipt *types.Receipt, err error) {
	resCh := make(chan transactionReceiptResponse, len(er.nodes))
	for i := range er.nodes {
		n := er.nodes[i]
		go func() {
			receipt, err := n.TransactionReceipt(txHash)
			resCh <- transactionReceiptResponse{
				Receipt: receipt,
				Error:   wrapError(err, n.NodeName()),
			}
		}()
	}
	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return result.Receipt, result.Error
		}
		errs = append(errs, result.Error)
	}
	return nil, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

type transactionByHashResponse struct {
	Tx        *common.Transaction
	IsPending bool
	Error     error
}

func (er *EthReader) TransactionByHash(
	txHash string,
) (tx *common.Transaction, isPending bool, err error) {
	resCh := make(chan transactionByHashResponse, len(er.nodes))
	for i := range er.nodes {
		n := er.nodes[i]
		go func() {
			tx, ispending, err := n.TransactionByHash(txHash)
			resCh <- transactionByHashResponse{
				Tx:        tx,
				IsPending: ispending,
				Error:     wrapError(err, n.NodeName()),
			}
		}()
	}

	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return result.Tx, result.IsPending, result.Error
		}
		errs = append(errs, result.Error)
	}
	return nil, false, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

func (er *EthReader) TxInfoFromHash(tx string) (common.TxInfo, error) {
	txObj, isPending, err := er.TransactionByHash(tx)

	if err != nil {
		return common.TxInfo{Status: common.TxStatusError}, err
	}
	if txObj == nil {
		return common.TxInfo{Status: common.TxStatusNotFound}, nil
	}
	if isPending {
		return common.TxInfo{Status: common.TxStatusPending, Tx: txObj}, nil
	}

	receipt, err := er.TransactionReceipt(tx)
	if receipt == nil {
		return common.TxInfo{Status: common.TxStatusPending, Tx: txObj}, err
	}

	// if PostState is a hash the chain is pre-byzantium and any mined tx
	// is considered done; otherwise the receipt status field decides
	if len(receipt.PostState) == len(ethcommon.Hash{}) {
		return common.TxInfo{Status: common.TxStatusDone, Tx: txObj, Receipt: receipt}, nil
	}
	if receipt.Status == 1 {
		return common.TxInfo{Status: common.TxStatusDone, Tx: txObj, Receipt: receipt}, nil
	}
	return common.TxInfo{Status: common.TxStatusReverted, Tx: txObj, Receipt: receipt}, nil
}

type readContractToBytesResponse struct {
	Data  []byte
	Error error
}

func (er *EthReader) ReadContractToBytes(
	atBlock int64,
	from string,
	caddr string,
	abi *abi.ABI,
	method string,
	args ...interface{},
) ([]byte, error) {
	resCh := make(chan readContractToBytesResponse, len(er.nodes))
	for i := range er.nodes {
		n := er.nodes[i]
		go func() {
			data, err := n.ReadContractToBytes(atBlock, from, caddr, abi, method, args...)
			resCh <- readContractToBytesResponse{
				Data:  data,
				Error: wrapError(err, n.NodeName()),
			}
		}()
	}
	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return result.Data, result.Error
		}
		errs = append(errs, result.Error)
	}
	return nil, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

func (er *EthReader) ReadContractWithABI(
	result interface{},
	caddr string,
	abi *abi.ABI,
	method string,
	args ...interface{},
) error {
	responseBytes, err := er.ReadContractToBytes(-1, DEFAULT_ADDRESS, caddr, abi, method, args...)
	if err != nil {
		return err
	}
	return abi.UnpackIntoInterface(result, method, responseBytes)
}

func (er *EthReader) ERC20Name(caddr string) (string, error) {
	abi := common.GetERC20ABI()
	var result string
	err := er.ReadContractWithABI(&result, caddr, abi, "name")
	return result, err
}

func (er *EthReader) ERC20Symbol(caddr string) (string, error) {
	abi := common.GetERC20ABI()
	var result string
	err := er.ReadContractWithABI(&result, caddr, abi, "symbol")
	return result, err
}

func (er *EthReader) ERC20Decimal(caddr string) (uint64, error) {
	abi := common.GetERC20ABI()
	var result uint8
	err := er.ReadContractWithABI(&result, caddr, abi, "decimals")
	return uint64(result), err
}

func (er *EthReader) ERC20Balance(caddr string, user string) (*big.Int, error) {
	abi := common.GetERC20ABI()
	result := big.NewInt(0)
	err := er.ReadContractWithABI(&result, caddr, abi, "balanceOf", common.HexToAddress(user))
	return result, err
}

func (er *EthReader) ERC20Allowance(
	caddr string,
	owner string,
	spender string,
) (*big.Int, error) {
	abi := common.GetERC20ABI()
	result := big.NewInt(0)
	err := er.ReadContractWithABI(
		&result, caddr, abi,
		"allowance",
		common.HexToAddress(owner),
		common.HexToAddress(spender),
	)
	return result, err
}

// GetAmountsOut quotes amountIn through path on a router and returns
// the expected output amount, ie. the last element of the returned
// amounts array.
func (er *EthReader) GetAmountsOut(
	router ethcommon.Address,
	amountIn *big.Int,
	path []ethcommon.Address,
) (*big.Int, error) {
	abi := common.GetRouterABI()
	var amounts []*big.Int
	err := er.ReadContractWithABI(&amounts, router.Hex(), abi, "getAmountsOut", amountIn, path)
	if err != nil {
		return nil, err
	}
	if len(amounts) == 0 {
		return nil, fmt.Errorf("router %s returned an empty amounts array", router.Hex())
	}
	return amounts[len(amounts)-1], nil
}

type headerByNumberResponse struct {
	Header *types.Header
	Error  error
}

func (er *EthReader) HeaderByNumber(number int64) (*types.Header, error) {
	resCh := make(chan headerByNumberResponse, len(er.nodes))
	for i := range er.nodes {
		n := er.nodes[i]
		go func() {
			header, err := n.HeaderByNumber(number)
			resCh <- headerByNumberResponse{
				Header: header,
				Error:  wrapError(err, n.NodeName()),
			}
		}()
	}
	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return result.Header, result.Error
		}
		errs = append(errs, result.Error)
	}
	return nil, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

func (er *EthReader) SuggestedGasSettings() (maxGasPriceGwei, maxTipGwei float64, err error) {
	isDynamicFeeAvailable, err := er.CheckDynamicFeeTxAvailable()
	if err != nil {
		return 0, 0, err
	}

	maxGasPriceGwei, err = er.RecommendedGasPrice()
	if err != nil {
		return 0, 0, err
	}

	if isDynamicFeeAvailable {
		maxTipGwei, err = er.GetSuggestedGasTipCap()
		if err != nil {
			return 0, 0, err
		}
	}

	return maxGasPriceGwei, maxTipGwei, nil
}

// CheckDynamicFeeTxAvailable detects eip-1559 support by looking for a
// positive baseFee on the latest block header.
func (er *EthReader) CheckDynamicFeeTxAvailable() (bool, error) {
	header, err := er.HeaderByNumber(-1)
	if err != nil {
		return false, err
	}

	return header.BaseFee != nil && header.BaseFee.Cmp(ethcommon.Big0) > 0, nil
}

type getSuggestedGasResponse struct {
	Gas   *big.Int
	Error error
}

// add 20% tip to miners compared to what returned from the node to
// improve inclusion time a bit
func (er *EthReader) GetSuggestedGasTipCap() (float64, error) {
	resCh := make(chan getSuggestedGasResponse, len(er.nodes))
	for i := range er.nodes {
		n := er.nodes[i]
		go func() {
			gasTip, err := n.SuggestedGasTipCap()
			resCh <- getSuggestedGasResponse{
				Gas:   gasTip,
				Error: wrapError(err, n.NodeName()),
			}
		}()
	}

	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return common.BigToFloat(result.Gas, 9) * 1.2, result.Error
		}
		errs = append(errs, result.Error)
	}
	return 0, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

// add 50% to max gas price because the next blocks based price can be
// increased according to the protocol
func (er *EthReader) RecommendedGasPrice() (float64, error) {
	resCh := make(chan getSuggestedGasResponse, len(er.nodes))
	for i := range er.nodes {
		n := er.nodes[i]
		go func() {
			gasPrice, err := n.SuggestedGasPrice()
			resCh <- getSuggestedGasResponse{
				Gas:   gasPrice,
				Error: wrapError(err, n.NodeName()),
			}
		}()
	}

	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return common.BigToFloat(result.Gas, 9) * 1.5, result.Error
		}
		errs = append(errs, result.Error)
	}
	return 0, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

type getBlockResponse struct {
	Block uint64
	Error error
}

func (er *EthReader) CurrentBlock() (uint64, error) {
	resCh := make(chan getBlockResponse, len(er.nodes))
	for i := range er.nodes {
		n := er.nodes[i]
		go func() {
			block, err := n.CurrentBlock()
			resCh <- getBlockResponse{
				Block: block,
				Error: wrapError(err, n.NodeName()),
			}
		}()
	}
	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return result.Block, result.Error
		}
		errs = append(errs, result.Error)
	}
	return 0, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}
