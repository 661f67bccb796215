package catalog

import "MarketWatch/internal/model"

func stock(symbol, name string, price float64, exchange string) model.Instrument {
	return model.Instrument{Symbol: symbol, Name: name, Class: model.ClassStock, BasePrice: price, Exchange: exchange}
}

func forex(symbol, name string, price float64) model.Instrument {
	return model.Instrument{Symbol: symbol, Name: name, Class: model.ClassForex, BasePrice: price, Exchange: "Forex Market"}
}

func crypto(symbol, name string, price float64, coinGeckoID string) model.Instrument {
	return model.Instrument{Symbol: symbol, Name: name, Class: model.ClassCrypto, BasePrice: price,
		Exchange: "Global Crypto", CoinGeckoID: coinGeckoID}
}

func commodity(symbol, name string, price float64, exchange string) model.Instrument {
	return model.Instrument{Symbol: symbol, Name: name, Class: model.ClassCommodity, BasePrice: price, Exchange: exchange}
}

func index(symbol, name string, price float64, exchange string) model.Instrument {
	return model.Instrument{Symbol: symbol, Name: name, Class: model.ClassIndex, BasePrice: price, Exchange: exchange}
}

func bond(symbol, name string, price float64, exchange string) model.Instrument {
	return model.Instrument{Symbol: symbol, Name: name, Class: model.ClassBond, BasePrice: price, Exchange: exchange}
}

var builtin = []model.Instrument{
	stock("AAPL", "Apple Inc.", 175.5, "NASDAQ"),
	stock("MSFT", "Microsoft Corp.", 378.85, "NASDAQ"),
	stock("GOOGL", "Alphabet Inc.", 138.75, "NASDAQ"),
	stock("AMZN", "Amazon.com Inc.", 153.4, "NASDAQ"),
	stock("TSLA", "Tesla Inc.", 248.5, "NASDAQ"),
	stock("NVDA", "NVIDIA Corp.", 478.5, "NASDAQ"),
	stock("META", "Meta Platforms Inc.", 325.75, "NASDAQ"),
	stock("NFLX", "Netflix Inc.", 445.25, "NASDAQ"),
	stock("JPM", "JPMorgan Chase & Co.", 148.75, "NYSE"),
	stock("V", "Visa Inc.", 245.8, "NYSE"),
	stock("JNJ", "Johnson & Johnson", 162.5, "NYSE"),
	stock("WMT", "Walmart Inc.", 158.3, "NYSE"),
	stock("PG", "Procter & Gamble Co.", 155.2, "NYSE"),
	stock("UNH", "UnitedHealth Group Inc.", 542.8, "NYSE"),
	stock("HD", "Home Depot Inc.", 345.6, "NYSE"),
	stock("MA", "Mastercard Inc.", 412.3, "NYSE"),
	stock("DIS", "Walt Disney Co.", 95.8, "NYSE"),
	stock("PYPL", "PayPal Holdings Inc.", 58.4, "NASDAQ"),
	stock("ADBE", "Adobe Inc.", 565.2, "NASDAQ"),
	stock("CRM", "Salesforce Inc.", 248.9, "NYSE"),
	stock("INTC", "Intel Corp.", 43.2, "NASDAQ"),
	stock("KO", "Coca-Cola Co.", 58.9, "NYSE"),
	stock("PEP", "PepsiCo Inc.", 168.7, "NASDAQ"),
	stock("TSM", "Taiwan Semiconductor", 98.5, "NYSE"),
	stock("ASML", "ASML Holding NV", 685.4, "NASDAQ"),
	stock("SAP", "SAP SE", 145.8, "NYSE"),

	forex("EURUSD=X", "Euro / US Dollar", 1.085),
	forex("GBPUSD=X", "British Pound / US Dollar", 1.265),
	forex("USDJPY=X", "US Dollar / Japanese Yen", 149.5),
	forex("USDCHF=X", "US Dollar / Swiss Franc", 0.895),
	forex("AUDUSD=X", "Australian Dollar / US Dollar", 0.675),
	forex("USDCAD=X", "US Dollar / Canadian Dollar", 1.365),
	forex("NZDUSD=X", "New Zealand Dollar / US Dollar", 0.615),
	forex("EURGBP=X", "Euro / British Pound", 0.858),
	forex("EURJPY=X", "Euro / Japanese Yen", 162.3),
	forex("GBPJPY=X", "British Pound / Japanese Yen", 188.9),

	crypto("BTC-USD", "Bitcoin", 43500, "bitcoin"),
	crypto("ETH-USD", "Ethereum", 2650, "ethereum"),
	crypto("BNB-USD", "Binance Coin", 315, "binancecoin"),
	crypto("XRP-USD", "Ripple", 0.63, "ripple"),
	crypto("ADA-USD", "Cardano", 0.52, "cardano"),
	crypto("SOL-USD", "Solana", 98, "solana"),
	crypto("DOGE-USD", "Dogecoin", 0.095, "dogecoin"),
	crypto("DOT-USD", "Polkadot", 7.2, "polkadot"),
	crypto("AVAX-USD", "Avalanche", 38, "avalanche-2"),
	crypto("MATIC-USD", "Polygon", 0.89, "matic-network"),
	crypto("LINK-USD", "Chainlink", 15.2, "chainlink"),
	crypto("UNI-USD", "Uniswap", 6.8, "uniswap"),

	commodity("GC=F", "Gold Futures", 2050, "COMEX"),
	commodity("SI=F", "Silver Futures", 24.5, "COMEX"),
	commodity("PL=F", "Platinum Futures", 950, "NYMEX"),
	commodity("CL=F", "Crude Oil Futures", 78.5, "NYMEX"),
	commodity("BZ=F", "Brent Crude Oil Futures", 82.3, "ICE"),
	commodity("NG=F", "Natural Gas Futures", 2.85, "NYMEX"),
	commodity("ZW=F", "Wheat Futures", 6.2, "CBOT"),
	commodity("ZC=F", "Corn Futures", 4.8, "CBOT"),

	index("^GSPC", "S&P 500", 4750, "CBOE"),
	index("^DJI", "Dow Jones Industrial Average", 37500, "CBOE"),
	index("^IXIC", "NASDAQ Composite", 14800, "NASDAQ"),
	index("^RUT", "Russell 2000", 2050, "CBOE"),
	index("^VIX", "CBOE Volatility Index", 18.5, "CBOE"),
	index("^FTSE", "FTSE 100", 7650, "LSE"),
	index("^GDAXI", "DAX Performance Index", 16200, "XETRA"),
	index("^FCHI", "CAC 40", 7350, "EURONEXT"),
	index("^N225", "Nikkei 225", 33500, "TSE"),
	index("^HSI", "Hang Seng Index", 17200, "HKEX"),

	bond("US10Y", "US 10-Year Treasury Yield", 4.25, "US Treasury"),
	bond("US2Y", "US 2-Year Treasury Yield", 4.6, "US Treasury"),
	bond("US30Y", "US 30-Year Treasury Yield", 4.4, "US Treasury"),
	bond("DE10Y", "German 10-Year Bund Yield", 2.3, "Bund"),
	bond("GB10Y", "UK 10-Year Gilt Yield", 3.9, "UK Gilts"),
	bond("JP10Y", "Japan 10-Year JGB Yield", 0.7, "JGB"),
}
