package pricing

import "github.com/shopspring/decimal"

// Asset is one tradable instrument and the base price its simulated quote reverts to.
type Asset struct {
	AssetType string
	Symbol    string
	Name      string
	Base      decimal.Decimal
	Places    int32
}

func stock(symbol, name, base string) Asset {
	return Asset{AssetType: AssetStock, Symbol: symbol, Name: name, Base: decimal.RequireFromString(base), Places: 2}
}

func crypto(symbol, name, base string) Asset {
	return Asset{AssetType: AssetCrypto, Symbol: symbol, Name: name, Base: decimal.RequireFromString(base), Places: 8}
}

// DefaultAssets is the catalog served by the simulator.
var DefaultAssets = []Asset{
	stock("AAPL", "Apple Inc.", "190.00"),
	stock("MSFT", "Microsoft Corporation", "410.00"),
	stock("GOOGL", "Alphabet Inc.", "165.00"),
	stock("AMZN", "Amazon.com Inc.", "180.00"),
	stock("TSLA", "Tesla Inc.", "250.00"),
	stock("NVDA", "NVIDIA Corporation", "120.00"),
	crypto("BTC", "Bitcoin", "65000"),
	crypto("ETH", "Ethereum", "3200"),
	crypto("SOL", "Solana", "150"),
	crypto("USDT", "Tether", "1"),
}
