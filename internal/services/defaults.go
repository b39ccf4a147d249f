package services

// emergencyDefaults is the last-resort price table for a handful of
// high-liquidity tokens, used only when both cache tiers come up empty.
// Responses built from it are tagged source "default" so clients can
// distinguish it from real data.
var emergencyDefaults = map[string]struct {
	USD float64
	NGN float64
}{
	"bitcoin":     {USD: 60000, NGN: 90000000},
	"ethereum":    {USD: 3000, NGN: 4500000},
	"tether":      {USD: 1, NGN: 1500},
	"binancecoin": {USD: 500, NGN: 750000},
	"solana":      {USD: 150, NGN: 225000},
}
