package common

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	TxTypeLegacy     = "legacy"
	TxTypeDynamicFee = "dynamicfee"
)

// BuildExactTx builds an unsigned tx from raw wei values. txType decides
// between a legacy tx and an EIP-1559 dynamic fee tx.
func BuildExactTx(
	nonce uint64,
	to string,
	amountWei *big.Int,
	gasLimit uint64,
	priceGwei float64,
	tipGwei float64,
	data []byte,
	txType string,
	chainID uint64,
) *types.Transaction {
	toAddress := common.HexToAddress(to)
	gasPrice := GweiToWei(priceGwei)
	tipInt := GweiToWei(tipGwei)
	chainIDInt := new(big.Int).SetUint64(chainID)
	if txType == TxTypeDynamicFee {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainIDInt,
			Nonce:     nonce,
			GasTipCap: tipInt,
			GasFeeCap: gasPrice,
			Gas:       gasLimit,
			To:        &toAddress,
			Value:     amountWei,
			Data:      data,
		})
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &toAddress,
		Value:    amountWei,
		Data:     data,
	})
}
