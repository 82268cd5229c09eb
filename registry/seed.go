package registry

// Seed tokens per chain id. They make the balance view useful before
// any token list finished loading and survive total token list outage.
var seedTokens = map[uint64][]Token{
	43114: {
		{
			Address:  "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7",
			Name:     "Wrapped AVAX",
			Symbol:   "WAVAX",
			Decimals: 18,
		},
		{
			Address:  "0x49D5c2BdFfac6CE2BFdB6640F4F80f226bc10bAB",
			Name:     "Wrapped Ether",
			Symbol:   "WETH.e",
			Decimals: 18,
		},
		{
			Address:  "0x50b7545627a5162F82A992c33b87aDc75187B218",
			Name:     "Wrapped BTC",
			Symbol:   "WBTC.e",
			Decimals: 8,
		},
		{
			Address:  "0xc7198437980c041c805A1EDcbA50c1Ce5db95118",
			Name:     "Tether USD",
			Symbol:   "USDT.e",
			Decimals: 6,
		},
		{
			Address:  "0xA7D7079b0FEaD91F3e65f86E8915Cb59c1a4C664",
			Name:     "USD Coin",
			Symbol:   "USDC.e",
			Decimals: 6,
		},
		{
			Address:  "0xd586E7F844cEa2F87f50152665BCbc2C279D8d70",
			Name:     "Dai Stablecoin",
			Symbol:   "DAI.e",
			Decimals: 18,
		},
	},
}
