// Package catalog holds the static machine tiers and exchange rates.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Machine is one rentable mining machine tier
type Machine struct {
	ID          string          `json:"id"`          // Catalog id, e.g. "m5"
	Name        string          `json:"name"`        // Display name
	Level       int             `json:"level"`       // Tier level
	Price       decimal.Decimal `json:"price"`       // Rental price in USD
	DailyProfit decimal.Decimal `json:"dailyProfit"` // Profit per 24h cycle in USD
	Duration    int             `json:"duration"`    // Contract length in days
	TotalProfit decimal.Decimal `json:"totalProfit"` // Advertised profit over the contract
	Rebate      decimal.Decimal `json:"rebate"`      // One-time payout to the direct referrer
	MaxRentals  int             `json:"maxRentals"`  // Per-user cap on this tier
}

// Contract returns how long the machine earns after purchase
func (m Machine) Contract() time.Duration {
	return time.Duration(m.Duration) * 24 * time.Hour
}

func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var machines = []Machine{
	{ID: "m1", Name: "Nebula Core HZ-1", Level: 1, Price: usd("5"), DailyProfit: usd("0.50"), Duration: 20, TotalProfit: usd("10.00"), Rebate: usd("0.50"), MaxRentals: 1},
	{ID: "m2", Name: "Quantum Node HZ-2", Level: 2, Price: usd("20"), DailyProfit: usd("0.67"), Duration: 60, TotalProfit: usd("40.20"), Rebate: usd("1.00"), MaxRentals: 1},
	{ID: "m3", Name: "Titan Miner HZ-3", Level: 3, Price: usd("50"), DailyProfit: usd("1.67"), Duration: 60, TotalProfit: usd("100.20"), Rebate: usd("1.70"), MaxRentals: 1},
	{ID: "m4", Name: "Apex Grid HZ-4", Level: 4, Price: usd("100"), DailyProfit: usd("3.33"), Duration: 60, TotalProfit: usd("199.80"), Rebate: usd("2.30"), MaxRentals: 1},
	{ID: "m5", Name: "Vortex Prime HZ-5", Level: 5, Price: usd("110"), DailyProfit: usd("5.00"), Duration: 60, TotalProfit: usd("300.00"), Rebate: usd("4.00"), MaxRentals: 2},
	{ID: "m6", Name: "Zenith Pulse HZ-6", Level: 6, Price: usd("200"), DailyProfit: usd("6.66"), Duration: 60, TotalProfit: usd("399.60"), Rebate: usd("5.50"), MaxRentals: 2},
	{ID: "m7", Name: "Stellar Forge HZ-7", Level: 7, Price: usd("500"), DailyProfit: usd("16.66"), Duration: 60, TotalProfit: usd("999.60"), Rebate: usd("11.00"), MaxRentals: 2},
	{ID: "m8", Name: "Infinity Ray HZ-8", Level: 8, Price: usd("700"), DailyProfit: usd("23.33"), Duration: 60, TotalProfit: usd("1399.80"), Rebate: usd("15.00"), MaxRentals: 2},
	{ID: "m9", Name: "Omega Stream HZ-9", Level: 9, Price: usd("1000"), DailyProfit: usd("33.33"), Duration: 60, TotalProfit: usd("1999.80"), Rebate: usd("40.00"), MaxRentals: 2},
	{ID: "m10", Name: "Galactic Vault HZ-10", Level: 10, Price: usd("1200"), DailyProfit: usd("48.00"), Duration: 50, TotalProfit: usd("2400.00"), Rebate: usd("60.00"), MaxRentals: 2},
}

var byID = func() map[string]Machine {
	m := make(map[string]Machine, len(machines))
	for _, machine := range machines {
		m[machine.ID] = machine
	}
	return m
}()

// All returns a copy of the catalog ordered by level
func All() []Machine {
	out := make([]Machine, len(machines))
	copy(out, machines)
	return out
}

// Lookup finds a machine tier by id
func Lookup(id string) (Machine, bool) {
	m, ok := byID[id]
	return m, ok
}
