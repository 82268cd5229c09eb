package accounts

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"syscall"

	gethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/term"
)

func KeystoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".aswap", "keystores")
}

func PromptPassphrase(prompt string) string {
	fmt.Print(prompt)
	bytePassword, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(bytePassword)
}

// StorePrivateKeyWithKeystore encrypts a raw hex private key into a
// json keystore file under ~/.aswap/keystores and returns its path.
func StorePrivateKeyWithKeystore(privateKey string, passphrase string) (string, error) {
	priv, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return "", err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	key := &gethkeystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}

	keystoreJson, err := gethkeystore.EncryptKey(
		key,
		passphrase,
		gethkeystore.StandardScryptN,
		gethkeystore.StandardScryptP,
	)
	if err != nil {
		return "", err
	}

	dir := KeystoreDir()
	// keys are private material, keep the whole dir owner-only
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.json", key.Address))
	return path, os.WriteFile(path, keystoreJson, 0600)
}

// Account wraps a keystore key and signs txs for its address.
type Account struct {
	key     *gethkeystore.Key
	address common.Address
}

func NewKeystoreAccount(file string, passphrase string) (*Account, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't read keystore file: %w", err)
	}
	key, err := gethkeystore.DecryptKey(content, passphrase)
	if err != nil {
		return nil, fmt.Errorf("couldn't decrypt keystore: %w", err)
	}
	return &Account{
		key:     key,
		address: key.Address,
	}, nil
}

func (a *Account) Address() common.Address {
	return a.address
}

func (a *Account) AddressHex() string {
	return a.address.Hex()
}

func (a *Account) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), a.key.PrivateKey)
	if err != nil {
		return tx, fmt.Errorf("couldn't sign the tx: %w", err)
	}
	return signedTx, nil
}
