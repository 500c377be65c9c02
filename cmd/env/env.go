package env

const (
	// Prefix is the prefix of all fxarb environment variables
	Prefix = "FXARB_"

	// DBURLSuffix is the PostgreSQL connection string variable
	DBURLSuffix = "DB_URL"

	// ExchangeRateKeySuffix is the ExchangeRate-API key variable.
	// When unset, fiat rates are scraped from x-rates.com
	ExchangeRateKeySuffix = "EXCHANGERATE_API_KEY"
)
