package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Protocol constants fixed at deployment. All prices are integers scaled by
// PricePrecision; all percentages are basis points.
const (
	// MinOrderSize is the smallest accepted order quantity in base units.
	MinOrderSize uint64 = 1_000_000

	// MaxSlippageBps bounds accepted slippage / ladder spreads (500 = 5%).
	MaxSlippageBps uint64 = 500

	// TradingFeeBps is the flat taker fee (25 = 0.25%). Fees are computed
	// and reported on trade events; settlement is external.
	TradingFeeBps uint64 = 25

	// PricePrecision is the fixed-point scale for prices (6 decimals).
	PricePrecision uint64 = 1_000_000

	// LargeOrderThreshold is the quantity above which the weighted price
	// applies a market-impact premium.
	LargeOrderThreshold uint64 = 10_000_000

	// LargeOrderPremiumBps is the flat premium for large orders (50 = 0.5%).
	LargeOrderPremiumBps uint64 = 50

	// MaxPairLen bounds trading-pair symbols ("STX-USDC" style).
	MaxPairLen = 20
)

type Protocol struct {
	// DepthReleaseOnClose controls whether market-depth aggregates are
	// decremented when an order leaves the book (fill or cancel).
	//
	// The original ledger contract never decrements depth, so levels go
	// stale as orders close. Default false preserves that observable
	// behavior; set true to keep depth reconciled with active orders only.
	DepthReleaseOnClose bool
}

type Node struct {
	ListenAddr string // REST/WS listen address
	DataDir    string // pebble database directory
	LogFile    string // rotated log file path ("" = console only)
}

type Config struct {
	Protocol Protocol
	Node     Node
}

func Default() Config {
	return Config{
		Protocol: Protocol{
			DepthReleaseOnClose: false,
		},
		Node: Node{
			ListenAddr: ":8080",
			DataDir:    "data/ledger",
			LogFile:    "data/node.log",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment
// variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Optional .env file - won't fail if not exists
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Node.ListenAddr = getEnv("LISTEN_ADDR", cfg.Node.ListenAddr)
	cfg.Node.DataDir = getEnv("DATA_DIR", cfg.Node.DataDir)
	cfg.Node.LogFile = getEnv("LOG_FILE", cfg.Node.LogFile)

	if v := os.Getenv("DEPTH_RELEASE_ON_CLOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Protocol.DepthReleaseOnClose = b
		}
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
