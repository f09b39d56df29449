package domain

// ChainID is the canonical identifier of a network. For deployment trees it is
// either the network directory name or the contents of its .chainId marker.
type ChainID string

type ChainName string

const (
	// Chain IDs
	ChainIDEthereum ChainID = "1"
	ChainIDOptimism ChainID = "10"
	ChainIDPolygon  ChainID = "137"
	ChainIDBase     ChainID = "8453"
	ChainIDArbitrum ChainID = "42161"
	ChainIDHardhat  ChainID = "31337"
	ChainIDSepolia  ChainID = "11155111"

	// Chain Names (Internal Codes)
	ChainNameEthereum ChainName = "ETHEREUM_MAINNET"
	ChainNameOptimism ChainName = "OPTIMISM_MAINNET"
	ChainNamePolygon  ChainName = "POLYGON_MAINNET"
	ChainNameBase     ChainName = "BASE_MAINNET"
	ChainNameArbitrum ChainName = "ARBITRUM_ONE"
	ChainNameHardhat  ChainName = "HARDHAT_LOCAL"
	ChainNameSepolia  ChainName = "ETHEREUM_SEPOLIA"
)

// ChainIDToName maps ChainID to its human-readable InternalCode/Name.
var ChainIDToName = map[ChainID]ChainName{
	ChainIDEthereum: ChainNameEthereum,
	ChainIDOptimism: ChainNameOptimism,
	ChainIDPolygon:  ChainNamePolygon,
	ChainIDBase:     ChainNameBase,
	ChainIDArbitrum: ChainNameArbitrum,
	ChainIDHardhat:  ChainNameHardhat,
	ChainIDSepolia:  ChainNameSepolia,
}

// Label returns the chain id decorated with its well-known name, if any.
func (c ChainID) Label() string {
	if name, ok := ChainIDToName[c]; ok {
		return string(c) + " (" + string(name) + ")"
	}
	return string(c)
}
