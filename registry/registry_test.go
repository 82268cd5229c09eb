package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aswapdex/aswap/networks"
)

type fakeChainReader struct {
	names    map[string]string
	symbols  map[string]string
	decimals map[string]uint64
	balances map[string]*big.Int
}

func (f *fakeChainReader) GetBalance(address string) (*big.Int, error) {
	if b, ok := f.balances["native|"+strings.ToLower(address)]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeChainReader) ERC20Name(caddr string) (string, error) {
	if n, ok := f.names[strings.ToLower(caddr)]; ok {
		return n, nil
	}
	return "", errors.New("execution reverted")
}

func (f *fakeChainReader) ERC20Symbol(caddr string) (string, error) {
	if s, ok := f.symbols[strings.ToLower(caddr)]; ok {
		return s, nil
	}
	return "", errors.New("execution reverted")
}

func (f *fakeChainReader) ERC20Decimal(caddr string) (uint64, error) {
	if d, ok := f.decimals[strings.ToLower(caddr)]; ok {
		return d, nil
	}
	return 0, errors.New("execution reverted")
}

func (f *fakeChainReader) ERC20Balance(caddr string, user string) (*big.Int, error) {
	if b, ok := f.balances[strings.ToLower(caddr)+"|"+strings.ToLower(user)]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

// testNetwork overrides just enough of the avalanche network to keep
// the tests off real endpoints.
type testNetwork struct {
	networks.Network
	logoTemplates []string
}

func (tn *testNetwork) GetTokenLogoURLTemplates() []string {
	return tn.logoTemplates
}

func (tn *testNetwork) GetTokenInfoFromExplorer(address string) (string, string, uint64, error) {
	return "", "", 0, errors.New("explorer unavailable in tests")
}

func newTestRegistry(t *testing.T, reader ChainReader, listURLs []string) *Registry {
	t.Helper()
	base, err := networks.GetNetwork("avalanche")
	require.NoError(t, err)
	r := NewRegistry(&testNetwork{Network: base}, reader, zap.NewNop())
	r.SetTokenListURLs(listURLs)
	return r
}

const (
	pngAddr   = "0x60781C2586D68229fde47564546784ab3fACA982"
	joeAddr   = "0x6e84a6216eA6dACC71eE8E6b0a5B7322EEbC0fDd"
	spellAddr = "0xCE1bFFBD5374Dac86a2893119683F4911a2F7814"
)

func tokenListServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
}

func TestInitializeMergesListsOverSeeds(t *testing.T) {
	// first source uses the standard wrapped format, second serves a
	// bare array and overrides the first one's PNG name
	first := tokenListServer(t, fmt.Sprintf(`{"tokens":[
		{"chainId":43114,"address":"%s","name":"Pangolin Old","symbol":"PNG","decimals":18},
		{"chainId":1,"address":"%s","name":"Mainnet Joe","symbol":"JOE","decimals":18}
	]}`, pngAddr, joeAddr))
	defer first.Close()
	second := tokenListServer(t, fmt.Sprintf(`[
		{"chainId":43114,"address":"%s","name":"Pangolin","symbol":"PNG","decimals":18},
		{"chainId":43114,"address":"%s","name":"JoeToken","symbol":"JOE","decimals":18}
	]`, strings.ToLower(pngAddr), joeAddr))
	defer second.Close()

	r := newTestRegistry(t, &fakeChainReader{}, []string{first.URL, second.URL})
	require.NoError(t, r.Initialize(context.Background()))

	png, err := r.Resolve(context.Background(), pngAddr, "")
	require.NoError(t, err)
	assert.Equal(t, "Pangolin", png.Name, "last list writer should win")

	joe, err := r.Resolve(context.Background(), joeAddr, "")
	require.NoError(t, err)
	assert.Equal(t, "JoeToken", joe.Name, "wrong-chain entries must be dropped")

	wavax, err := r.Resolve(context.Background(), "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7", "")
	require.NoError(t, err)
	assert.Equal(t, "WAVAX", wavax.Symbol, "seed tokens should survive the merge")
}

func TestInitializeToleratesSourceFailure(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer broken.Close()
	good := tokenListServer(t, fmt.Sprintf(
		`{"tokens":[{"chainId":43114,"address":"%s","name":"Pangolin","symbol":"PNG","decimals":18}]}`,
		pngAddr))
	defer good.Close()

	r := newTestRegistry(t, &fakeChainReader{}, []string{broken.URL, good.URL})
	require.NoError(t, r.Initialize(context.Background()))

	token, err := r.Resolve(context.Background(), pngAddr, "")
	require.NoError(t, err)
	assert.Equal(t, "PNG", token.Symbol)
}

func TestInitializeIsIdempotent(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"tokens":[]}`)
	}))
	defer server.Close()

	r := newTestRegistry(t, &fakeChainReader{}, []string{server.URL})
	require.NoError(t, r.Initialize(context.Background()))
	require.NoError(t, r.Initialize(context.Background()))
	assert.Equal(t, 1, calls)

	r.Reset()
	require.NoError(t, r.Initialize(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestResolveNativeSentinel(t *testing.T) {
	reader := &fakeChainReader{
		balances: map[string]*big.Int{
			"native|0x1111111111111111111111111111111111111111": big.NewInt(42),
		},
	}
	r := newTestRegistry(t, reader, nil)

	token, err := r.Resolve(context.Background(), strings.ToUpper(NativeTokenAddress), "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.True(t, token.IsNative())
	assert.Equal(t, "AVAX", token.Symbol)
	assert.Equal(t, "42", token.Balance)
}

func TestResolveRejectsInvalidAddress(t *testing.T) {
	r := newTestRegistry(t, &fakeChainReader{}, nil)
	_, err := r.Resolve(context.Background(), "not-an-address", "")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestResolveUnlistedTokenFromChain(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, spellAddr) {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer probe.Close()

	reader := &fakeChainReader{
		names:    map[string]string{strings.ToLower(spellAddr): "Spell Token"},
		symbols:  map[string]string{strings.ToLower(spellAddr): "SPELL"},
		decimals: map[string]uint64{strings.ToLower(spellAddr): 18},
	}
	base, err := networks.GetNetwork("avalanche")
	require.NoError(t, err)
	r := NewRegistry(&testNetwork{
		Network:       base,
		logoTemplates: []string{probe.URL + "/assets/%s/logo.png"},
	}, reader, zap.NewNop())
	r.SetTokenListURLs([]string{})

	token, err := r.Resolve(context.Background(), spellAddr, "")
	require.NoError(t, err)
	assert.Equal(t, "SPELL", token.Symbol)
	assert.Equal(t, uint64(18), token.Decimals)
	assert.Contains(t, token.LogoURI, spellAddr)

	// second resolve must come from the cache, so wiping the reader
	// data shouldn't matter
	reader.names = nil
	reader.symbols = nil
	reader.decimals = nil
	again, err := r.Resolve(context.Background(), strings.ToLower(spellAddr), "")
	require.NoError(t, err)
	assert.Equal(t, "SPELL", again.Symbol)
}

func TestResolveFallsBackToDexscreener(t *testing.T) {
	ds := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"pairs":[{"chainId":"avalanche",
			"baseToken":{"address":"%s","name":"Spell Token","symbol":"SPELL"},
			"quoteToken":{"address":"0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7","name":"Wrapped AVAX","symbol":"WAVAX"}}]}`,
			spellAddr)
	}))
	defer ds.Close()

	r := newTestRegistry(t, &fakeChainReader{}, nil)
	r.dexscreener.baseURL = ds.URL

	token, err := r.Resolve(context.Background(), spellAddr, "")
	require.NoError(t, err)
	assert.Equal(t, "SPELL", token.Symbol)
	assert.Equal(t, uint64(18), token.Decimals, "unknown decimals default to 18")
}

func TestResolveTotalFailure(t *testing.T) {
	ds := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":[]}`)
	}))
	defer ds.Close()

	r := newTestRegistry(t, &fakeChainReader{}, nil)
	r.dexscreener.baseURL = ds.URL

	token, err := r.Resolve(context.Background(), spellAddr, "")
	assert.Error(t, err)
	assert.Nil(t, token)
}

func TestListOrdering(t *testing.T) {
	account := "0x1111111111111111111111111111111111111111"
	reader := &fakeChainReader{
		balances: map[string]*big.Int{
			"native|" + account: big.NewInt(1),
			// 5 USDT.e (6 decimals) outranks 2 WAVAX (18 decimals)
			strings.ToLower("0xc7198437980c041c805A1EDcbA50c1Ce5db95118") + "|" + account: big.NewInt(5000000),
			strings.ToLower("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7") + "|" + account: big.NewInt(2000000000000000000),
		},
	}
	r := newTestRegistry(t, reader, []string{})
	require.NoError(t, r.Initialize(context.Background()))

	tokens := r.List(context.Background(), account)
	require.True(t, len(tokens) >= 4)
	assert.True(t, tokens[0].IsNative())
	assert.Equal(t, "USDT.e", tokens[1].Symbol)
	assert.Equal(t, "WAVAX", tokens[2].Symbol)

	// everything after the funded tokens is alphabetical by symbol
	rest := tokens[3:]
	for i := 1; i < len(rest); i++ {
		assert.LessOrEqual(t,
			strings.ToLower(rest[i-1].Symbol),
			strings.ToLower(rest[i].Symbol))
	}
}

func TestSearchBySubstring(t *testing.T) {
	r := newTestRegistry(t, &fakeChainReader{}, []string{})
	require.NoError(t, r.Initialize(context.Background()))

	results := r.Search(context.Background(), "usd", "")
	require.NotEmpty(t, results)
	for _, token := range results {
		hit := strings.Contains(strings.ToLower(token.Symbol), "usd") ||
			strings.Contains(strings.ToLower(token.Name), "usd") ||
			strings.Contains(strings.ToLower(token.Address), "usd")
		assert.True(t, hit, "unexpected result %s", token.Symbol)
	}
}

func TestSearchResolvesUnknownAddress(t *testing.T) {
	reader := &fakeChainReader{
		names:    map[string]string{strings.ToLower(spellAddr): "Spell Token"},
		symbols:  map[string]string{strings.ToLower(spellAddr): "SPELL"},
		decimals: map[string]uint64{strings.ToLower(spellAddr): 18},
	}
	r := newTestRegistry(t, reader, []string{})
	require.NoError(t, r.Initialize(context.Background()))

	results := r.Search(context.Background(), spellAddr, "")
	require.NotEmpty(t, results)
	assert.Equal(t, "SPELL", results[0].Symbol)
	assert.True(t, ethcommon.IsHexAddress(results[0].Address))
}

func TestEffectiveAddressSubstitutesNative(t *testing.T) {
	base, err := networks.GetNetwork("avalanche")
	require.NoError(t, err)
	assert.Equal(t,
		base.GetWrappedNativeTokenAddress(),
		EffectiveAddress(base, NativeTokenAddress))
	assert.Equal(t,
		ethcommon.HexToAddress(pngAddr),
		EffectiveAddress(base, pngAddr))
}
