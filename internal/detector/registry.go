package detector

import (
	"regexp"

	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
)

// Registry содержит скомпилированные таблицы паттернов для классификатора.
// Создается один раз при старте и передается в Detector через конструктор,
// после создания не изменяется.
type Registry struct {
	// Порядок семейств фиксирован: при совпадении одного адреса с несколькими
	// структурными паттернами побеждает первое семейство из списка
	families   []entities.Family
	structural map[entities.Family][]*regexp.Regexp

	// Обобщенные паттерны второго прохода: совпадение целиком
	generic []*regexp.Regexp
	// Паттерны "токен после ключевого слова": адрес в первой группе захвата
	keyworded []*regexp.Regexp

	// Структурная валидация
	lengthLimits map[entities.Family][2]int
	tokenCharset *regexp.Regexp
	hashLike     *regexp.Regexp

	// Оценка риска
	highRiskKeywords []string
	privacyPrefixes  []string
	amountPatterns   []*regexp.Regexp
}

// NewRegistry создает реестр паттернов по умолчанию
func NewRegistry() *Registry {
	return &Registry{
		families: []entities.Family{
			entities.FamilyBTC, entities.FamilyETH, entities.FamilyTRX,
			entities.FamilyLTC, entities.FamilyDOGE, entities.FamilyBCH,
			entities.FamilyXRP, entities.FamilyADA, entities.FamilyDOT,
			entities.FamilySOL, entities.FamilyBNB, entities.FamilyMATIC,
			entities.FamilyAVAX, entities.FamilyATOM, entities.FamilyXMR,
			entities.FamilyZEC, entities.FamilyDASH, entities.FamilyETC,
			entities.FamilyXLM, entities.FamilyNEO, entities.FamilyIOTA,
			entities.FamilyALGO, entities.FamilyFIL,
		},
		structural: map[entities.Family][]*regexp.Regexp{
			entities.FamilyBTC: {
				// Legacy P2PKH / P2SH (1..., 3...)
				regexp.MustCompile(`\b[13][a-km-zA-HJ-NP-Z1-9]{25,34}\b`),
				// Bech32 (bc1...)
				regexp.MustCompile(`\bbc1[a-z0-9]{39,59}\b`),
				// Taproot (bc1p...)
				regexp.MustCompile(`\bbc1p[a-z0-9]{58}\b`),
			},
			entities.FamilyETH: {
				regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`),
				// ENS домены (.eth)
				regexp.MustCompile(`(?i)\b[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]\.eth\b`),
			},
			entities.FamilyTRX: {
				regexp.MustCompile(`\bT[A-Za-z1-9]{33}\b`),
			},
			entities.FamilyLTC: {
				regexp.MustCompile(`\b[LM][a-km-zA-HJ-NP-Z1-9]{26,33}\b`),
				regexp.MustCompile(`\bltc1[a-z0-9]{39,59}\b`),
			},
			entities.FamilyDOGE: {
				regexp.MustCompile(`\bD[5-9A-HJ-NP-U][1-9A-HJ-NP-Za-km-z]{32}\b`),
				regexp.MustCompile(`\b[9A][a-km-zA-HJ-NP-Z1-9]{33}\b`),
			},
			entities.FamilyBCH: {
				regexp.MustCompile(`\bbitcoincash:[qp][a-z0-9]{41}\b`),
				regexp.MustCompile(`\b[qp][a-z0-9]{41}\b`),
			},
			entities.FamilyXRP: {
				regexp.MustCompile(`\br[a-zA-Z0-9]{24,34}\b`),
				regexp.MustCompile(`\bX[a-zA-Z0-9]{46,47}\b`),
			},
			entities.FamilyADA: {
				regexp.MustCompile(`\baddr1[a-z0-9]{98}\b`),
				regexp.MustCompile(`\bAe2[a-zA-Z0-9]{51}\b`),
				regexp.MustCompile(`\bstake1[a-z0-9]{53}\b`),
			},
			entities.FamilyDOT: {
				regexp.MustCompile(`\b1[a-zA-Z0-9]{47}\b`),
				regexp.MustCompile(`\b[A-HJ-NP-Z][a-zA-Z0-9]{47}\b`),
			},
			entities.FamilySOL: {
				regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{32,44}\b`),
			},
			entities.FamilyBNB: {
				regexp.MustCompile(`\bbnb[a-z0-9]{39}\b`),
			},
			entities.FamilyMATIC: {
				regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`),
			},
			entities.FamilyAVAX: {
				regexp.MustCompile(`\bX-avax[a-z0-9]{39}\b`),
				regexp.MustCompile(`\bP-avax[a-z0-9]{39}\b`),
			},
			entities.FamilyATOM: {
				regexp.MustCompile(`\bcosmos[a-z0-9]{39}\b`),
			},
			entities.FamilyXMR: {
				regexp.MustCompile(`\b4[a-zA-Z0-9]{94}\b`),
				regexp.MustCompile(`\b4[a-zA-Z0-9]{106}\b`),
			},
			entities.FamilyZEC: {
				regexp.MustCompile(`\bt1[a-zA-Z0-9]{33}\b`),
				regexp.MustCompile(`\bzs1[a-z0-9]{75}\b`),
			},
			entities.FamilyDASH: {
				regexp.MustCompile(`\bX[a-km-zA-HJ-NP-Z1-9]{33}\b`),
			},
			entities.FamilyETC: {
				regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`),
			},
			entities.FamilyXLM: {
				regexp.MustCompile(`\bG[A-Z2-7]{55}\b`),
			},
			entities.FamilyNEO: {
				regexp.MustCompile(`\bA[a-km-zA-HJ-NP-Z1-9]{33}\b`),
			},
			entities.FamilyIOTA: {
				regexp.MustCompile(`\b[A-Z9]{90}\b`),
			},
			entities.FamilyALGO: {
				regexp.MustCompile(`\b[A-Z2-7]{58}\b`),
			},
			entities.FamilyFIL: {
				regexp.MustCompile(`\bf1[a-z0-9]{38}\b`),
				regexp.MustCompile(`\bf3[a-z0-9]{84}\b`),
			},
		},
		generic: []*regexp.Regexp{
			// Base58 токены (типичны для криптовалют)
			regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{25,}\b`),
			// Длинные шестнадцатеричные строки
			regexp.MustCompile(`\b[a-fA-F0-9]{32,}\b`),
			// Длинные буквенно-цифровые токены
			regexp.MustCompile(`\b[a-zA-Z0-9]{25,100}\b`),
		},
		keyworded: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:wallet|address|addr|钱包|地址|收款|转账|充值|提现)[:：\s]*([a-zA-Z0-9]{20,})`),
			regexp.MustCompile(`(?i)(?:收款码|付款码|转账码|充币|提币)[:：\s]*([a-zA-Z0-9]{20,})`),
			regexp.MustCompile(`(?i)(?:deposit|recharge|withdraw)[:：\s]*([a-zA-Z0-9]{20,})`),
		},
		lengthLimits: map[entities.Family][2]int{
			entities.FamilyBTC:  {25, 62},
			entities.FamilyETH:  {42, 42},
			entities.FamilyTRX:  {34, 34},
			entities.FamilyLTC:  {26, 34},
			entities.FamilyDOGE: {34, 34},
			entities.FamilyBCH:  {25, 54},
			entities.FamilyXRP:  {25, 34},
			entities.FamilyADA:  {103, 103},
			entities.FamilyDOT:  {47, 48},
			entities.FamilySOL:  {32, 44},
		},
		tokenCharset: regexp.MustCompile(`^[a-zA-Z0-9]+$`),
		// Скорее всего хеш, а не адрес
		hashLike: regexp.MustCompile(`^[0-9a-f]{32}$`),
		highRiskKeywords: []string{
			"洗钱", "黑钱", "跑分", "代收", "代付", "刷流水", "money laundering",
			"暗网", "dark web", "匿名交易", "anonymous", "混币", "mixer",
			"赌博", "gambling", "博彩", "投注", "betting", "下注",
			"诈骗", "scam", "欺诈", "fraud", "钓鱼", "phishing",
			"勒索", "ransom", "敲诈", "extortion", "黑客", "hacker",
		},
		privacyPrefixes: []string{"bc1p", "zs1", "4", "X-avax", "P-avax"},
		amountPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\d+\.?\d*\s*(?:BTC|ETH|USDT|USD|CNY|RMB|万|千)`),
			regexp.MustCompile(`[¥$€£]\s*\d+`),
			regexp.MustCompile(`\d+\s*万`),
			regexp.MustCompile(`\d+\s*千`),
		},
	}
}
