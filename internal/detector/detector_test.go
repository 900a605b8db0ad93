package detector

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
)

// Тестовые адреса реальных форматов
const (
	btcLegacyAddress  = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	btcBech32Address  = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	ethAddress        = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	trxAddress        = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
	solAddress        = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	xmrAddress        = "4AdUndXHHZ6cfufTMvppY6JwXNouMBzSkbLYfpAV5Usx3skxNgYeYTRj5UzqtReoS44qo9mtmXCqY45DJ852K5Jv2684Rge"
	invalidBase58Addr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfN0" // содержит '0', не base58
)

func newTestDetector() *Detector {
	return NewDetector(NewRegistry(), slog.Default())
}

func TestDetectStructuralAddresses(t *testing.T) {
	d := newTestDetector()

	tests := []struct {
		name    string
		text    string
		address string
		family  entities.Family
	}{
		{"bitcoin legacy", "please pay to " + btcLegacyAddress + " before friday", btcLegacyAddress, entities.FamilyBTC},
		{"bitcoin bech32", "send: " + btcBech32Address, btcBech32Address, entities.FamilyBTC},
		{"ethereum hex", "my eth wallet " + ethAddress, ethAddress, entities.FamilyETH},
		{"tron", "usdt-trc20 " + trxAddress, trxAddress, entities.FamilyTRX},
		{"solana", "sol: " + solAddress, solAddress, entities.FamilySOL},
		{"monero", "xmr " + xmrAddress, xmrAddress, entities.FamilyXMR},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := d.Detect(test.text)
			require.Len(t, got, 1, "ожидаем ровно один адрес в тексте")
			require.Equal(t, test.address, got[0].Address)
			require.Equal(t, test.family, got[0].Family)
			require.Equal(t, entities.ConfidenceHigh, got[0].Confidence)
			require.Equal(t, methodExactPattern, got[0].DetectionMethod)
		})
	}
}

// Один и тот же адрес упоминается дважды и подходит под несколько
// структурных паттернов: в результате он должен появиться ровно один раз,
// с первым совпавшим семейством.
func TestDetectDeduplicatesRepeatedAddress(t *testing.T) {
	d := newTestDetector()

	text := "please pay to " + btcLegacyAddress + " before friday, I repeat: " + btcLegacyAddress
	got := d.Detect(text)

	require.Len(t, got, 1)
	require.Equal(t, btcLegacyAddress, got[0].Address)
	require.Equal(t, entities.FamilyBTC, got[0].Family)
	require.Equal(t, entities.ConfidenceHigh, got[0].Confidence)
	require.Equal(t, entities.RiskLow, got[0].RiskLevel)
}

// Структурное совпадение всегда побеждает обобщенное для той же строки
func TestDetectStructuralWinsOverGeneric(t *testing.T) {
	d := newTestDetector()

	got := d.Detect("wallet: " + btcLegacyAddress)
	require.Len(t, got, 1)
	require.Equal(t, entities.ConfidenceHigh, got[0].Confidence)
	require.Equal(t, methodExactPattern, got[0].DetectionMethod)
}

func TestDetectSuspiciousToken(t *testing.T) {
	d := newTestDetector()

	// Не подходит ни под один структурный паттерн (содержит 0 и l вперемешку,
	// не base58, не hex), но стоит после ключевого слова
	token := "z0k9QmP7w2XrT5vB8nH3cL0dY6fG1sA4u"
	got := d.Detect("钱包: " + token)

	require.NotEmpty(t, got)
	found := false
	for _, c := range got {
		if c.Address == token {
			found = true
			require.Equal(t, entities.FamilyUnknown, c.Family)
			require.Equal(t, entities.ConfidenceMedium, c.Confidence)
		}
	}
	require.True(t, found, "токен после ключевого слова должен быть найден")
}

func TestDetectRejectsNonAddresses(t *testing.T) {
	d := newTestDetector()

	tests := []struct {
		name string
		text string
	}{
		{"empty text", ""},
		{"plain prose", "the quick brown fox jumps over the lazy dog"},
		{"all digits", "счет на оплату 1234567890123456789012345678"},
		{"md5 hash", "checksum d41d8cd98f00b204e9800998ecf8427e ok"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := d.Detect(test.text)
			require.Empty(t, got)
		})
	}
}

// Строка с недопустимым base58-символом не проходит структурную валидацию
// BTC, но остается подозрительным токеном с пониженной уверенностью
func TestDetectInvalidBase58DowngradedToSuspicious(t *testing.T) {
	d := newTestDetector()

	got := d.Detect("pay " + invalidBase58Addr)
	require.Len(t, got, 1)
	require.Equal(t, invalidBase58Addr, got[0].Address)
	require.Equal(t, entities.FamilyUnknown, got[0].Family)
	require.Equal(t, entities.ConfidenceMedium, got[0].Confidence)
}

func TestDetectIdempotent(t *testing.T) {
	d := newTestDetector()

	text := "pay " + btcLegacyAddress + " and " + ethAddress
	first := d.Detect(text)
	second := d.Detect(text)

	require.Equal(t, first, second, "повторный вызов на том же тексте дает тот же результат")
	require.Len(t, first, 2)
}

func TestValidateLengthLimits(t *testing.T) {
	d := newTestDetector()

	// Слишком короткий для ETH (обрезанный hex)
	require.False(t, d.validate("0x742d35Cc6634C0532925a3b844Bc454e", entities.FamilyETH))
	// Корректная длина
	require.True(t, d.validate(ethAddress, entities.FamilyETH))
	// Любой адрес короче 10 символов отбрасывается
	require.False(t, d.validate("1Ab2Cd3", entities.FamilyBTC))
}

func TestIsLikelyCryptoAddress(t *testing.T) {
	d := newTestDetector()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"mixed alnum", "Ab3dEf6hJk9mNp2qRs5tUv8wXy1zAb4c", true},
		{"too short", "Ab3dEf6hJk9mNp2q", false},
		{"all letters", "AbcdEfghJklmNpqrStuvWxyzAbcdEfgh", false},
		{"all digits", "12345678901234567890123456789012", false},
		{"lowercase hex hash", "d41d8cd98f00b204e9800998ecf8427e", false},
		{"non alnum", "Ab3dEf6hJk9-Np2qRs5tUv8wXy1zAb4c", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, d.isLikelyCryptoAddress(test.token))
		})
	}
}
