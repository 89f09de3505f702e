package chain

// Well-known chain IDs.
const (
	Ethereum uint64 = 1
	Optimism uint64 = 10
	BSC      uint64 = 56
	Polygon  uint64 = 137
	Base     uint64 = 8453
	Arbitrum uint64 = 42161
	Sepolia  uint64 = 11155111
)

// DefaultChains is the catalog used when no chain catalog is configured.
func DefaultChains() []Descriptor {
	eth := Currency{Name: "Ether", Symbol: "ETH", Decimals: 18}
	return []Descriptor{
		{
			ID:             Ethereum,
			Name:           "Ethereum",
			Family:         FamilyEVM,
			RPCURL:         "https://eth.llamarpc.com",
			ExplorerURL:    "https://etherscan.io",
			NativeCurrency: eth,
			BaseLayer:      true,
		},
		{
			ID:             Optimism,
			Name:           "Optimism",
			Family:         FamilyEVM,
			RPCURL:         "https://optimism.llamarpc.com",
			ExplorerURL:    "https://optimistic.etherscan.io",
			NativeCurrency: eth,
		},
		{
			ID:             BSC,
			Name:           "BNB Smart Chain",
			Family:         FamilyEVM,
			RPCURL:         "https://bsc.drpc.org",
			ExplorerURL:    "https://bscscan.com",
			NativeCurrency: Currency{Name: "BNB", Symbol: "BNB", Decimals: 18},
		},
		{
			ID:             Polygon,
			Name:           "Polygon",
			Family:         FamilyEVM,
			RPCURL:         "https://polygon-rpc.com",
			ExplorerURL:    "https://polygonscan.com",
			NativeCurrency: Currency{Name: "POL", Symbol: "POL", Decimals: 18},
		},
		{
			ID:             Base,
			Name:           "Base",
			Family:         FamilyEVM,
			RPCURL:         "https://mainnet.base.org",
			ExplorerURL:    "https://basescan.org",
			NativeCurrency: eth,
		},
		{
			ID:             Arbitrum,
			Name:           "Arbitrum One",
			Family:         FamilyEVM,
			RPCURL:         "https://arbitrum.llamarpc.com",
			ExplorerURL:    "https://arbiscan.io",
			NativeCurrency: eth,
		},
		{
			ID:             Sepolia,
			Name:           "Sepolia",
			Family:         FamilyEVM,
			RPCURL:         "https://rpc.sepolia.org",
			ExplorerURL:    "https://sepolia.etherscan.io",
			NativeCurrency: Currency{Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18},
			Testnet:        true,
		},
	}
}
