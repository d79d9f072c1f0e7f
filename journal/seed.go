package journal

import "time"

// SeedBrokers returns the default brokers used when none are stored.
func SeedBrokers() []Broker {
	return []Broker{
		{ID: "qx", Name: "Qx"},
		{ID: "po", Name: "Po"},
	}
}

// SeedTrades returns the demonstration trades shown on first run, placed in
// the month of now.
func SeedTrades(now time.Time) []Trade {
	y, m, _ := now.Date()
	day := func(d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	}
	return []Trade{
		{ID: "1", Date: day(2), Amount: 150.75, IsProfit: true, BrokerID: "qx", Notes: "Good entry on AAPL", ChartTime: "09:35", TradeTime: "09:36"},
		{ID: "2", Date: day(2), Amount: 50.25, IsProfit: false, BrokerID: "po", Notes: "Mistake trade on TSLA", ChartTime: "10:10", TradeTime: "10:10"},
		{ID: "3", Date: day(10), Amount: 250.00, IsProfit: true, BrokerID: "qx", ChartTime: "11:00", TradeTime: "11:01"},
		{ID: "4", Date: day(15), Amount: 120.50, IsProfit: false, BrokerID: "po"},
		{ID: "5", Date: day(15), Amount: 300.00, IsProfit: true, BrokerID: "qx", Notes: "Caught the morning dip", ChartTime: "14:20", TradeTime: "14:22"},
	}
}
