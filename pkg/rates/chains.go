package rates

import "strings"

// Chain is an EVM network the wallet knows how to link to
type Chain struct {
	ID            int64
	Key           string
	Name          string
	BlockExplorer string
	NativeToken   string
}

// SupportedChains are the networks with known explorers
var SupportedChains = []Chain{
	{ID: 1, Key: "ethereum", Name: "Ethereum", BlockExplorer: "https://etherscan.io", NativeToken: "eth"},
	{ID: 137, Key: "polygon", Name: "Polygon", BlockExplorer: "https://polygonscan.com", NativeToken: "matic"},
	{ID: 56, Key: "bsc", Name: "BSC", BlockExplorer: "https://bscscan.com", NativeToken: "bnb"},
}

// ChainByName matches a network name against chain keys and display names.
// go-ethereum reports mainnet as "mainnet", which maps to Ethereum.
func ChainByName(network string) (Chain, bool) {
	network = strings.ToLower(strings.TrimSpace(network))
	if network == "mainnet" || network == "homestead" {
		network = "ethereum"
	}
	for _, c := range SupportedChains {
		if c.Key == network || strings.ToLower(c.Name) == network {
			return c, true
		}
	}
	return Chain{}, false
}

// ChainByID looks a chain up by its EIP-155 id
func ChainByID(id int64) (Chain, bool) {
	for _, c := range SupportedChains {
		if c.ID == id {
			return c, true
		}
	}
	return Chain{}, false
}

// ExplorerURL links a transaction hash on a known network, or returns ""
func ExplorerURL(hash, network string) string {
	c, ok := ChainByName(network)
	if !ok || hash == "" {
		return ""
	}
	return c.BlockExplorer + "/tx/" + hash
}
