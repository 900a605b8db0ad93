package entities

// Family представляет семейство криптовалютных адресов
type Family string

const (
	FamilyBTC   Family = "BTC"
	FamilyETH   Family = "ETH"
	FamilyTRX   Family = "TRX"
	FamilyLTC   Family = "LTC"
	FamilyDOGE  Family = "DOGE"
	FamilyBCH   Family = "BCH"
	FamilyXRP   Family = "XRP"
	FamilyADA   Family = "ADA"
	FamilyDOT   Family = "DOT"
	FamilySOL   Family = "SOL"
	FamilyBNB   Family = "BNB"
	FamilyMATIC Family = "MATIC"
	FamilyAVAX  Family = "AVAX"
	FamilyATOM  Family = "ATOM"
	FamilyXMR   Family = "XMR"
	FamilyZEC   Family = "ZEC"
	FamilyDASH  Family = "DASH"
	FamilyETC   Family = "ETC"
	FamilyXLM   Family = "XLM"
	FamilyNEO   Family = "NEO"
	FamilyIOTA  Family = "IOTA"
	FamilyALGO  Family = "ALGO"
	FamilyFIL   Family = "FIL"

	// Адрес найден только обобщенными эвристиками, семейство неизвестно
	FamilyUnknown Family = "UNKNOWN_CRYPTO"
)

// Confidence представляет уверенность классификатора в том, что строка является адресом
type Confidence string

const (
	// ConfidenceHigh - адрес совпал с известным структурным форматом
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium - адрес найден только обобщенной эвристикой
	ConfidenceMedium Confidence = "medium"
)

// RiskLevel представляет эвристическую оценку риска по окружающему тексту
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AddressCandidate содержит один найденный в тексте адрес.
// Значение неизменяемое, создается заново на каждое сканирование.
type AddressCandidate struct {
	Address         string     `json:"address"`
	Family          Family     `json:"family"`
	Confidence      Confidence `json:"confidence"`
	RiskLevel       RiskLevel  `json:"risk_level"`
	DetectionMethod string     `json:"detection_method"`
}
