package ports

import (
	"context"

	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
)

// AllowList определяет интерфейс проверки адреса по белому списку.
// Реализация обязана отвечать false при недоступном или устаревшем списке
// (fail-closed), кроме случая когда функция белого списка отключена.
type AllowList interface {
	IsWhitelisted(address string) bool
}

// WhitelistSyncer определяет принудительную синхронизацию белого списка,
// используется обработчиком серверных команд
type WhitelistSyncer interface {
	ForceSync(ctx context.Context) bool
}

// ViolationSink принимает события нарушений на доставку.
// Submit не блокирует: при заполненной очереди возвращает false,
// путь обнаружения никогда не ждет доставку.
type ViolationSink interface {
	Submit(event entities.ViolationEvent) bool
}

// ScreenshotProvider отдает JPEG снимок экрана по запросу.
// Захват может быть медленным - вызывающий код не должен держать блокировки.
// Ошибка или nil означают "отправить событие без снимка", это штатный путь.
type ScreenshotProvider interface {
	Capture(ctx context.Context) ([]byte, error)
}

// ClipboardSource отдает текущее текстовое содержимое буфера обмена
type ClipboardSource interface {
	ReadText(ctx context.Context) (string, error)
}
