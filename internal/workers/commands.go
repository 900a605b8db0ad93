package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clipsentry/screen-monitor-system/agent/config"
	"github.com/clipsentry/screen-monitor-system/agent/internal/core/ports"
)

const (
	commandWhitelistUpdated = "whitelist_updated"
	commandPing             = "ping"

	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// serverCommand - команда, присланная сервером по WebSocket
type serverCommand struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// CommandListener держит WebSocket-соединение с сервером и реагирует на
// его команды. Основной сценарий: сервер изменил белый список и просит
// агента синхронизироваться немедленно, не дожидаясь планового тика.
type CommandListener struct {
	logger   *slog.Logger
	url      string
	clientID string
	syncer   ports.WhitelistSyncer
}

func NewCommandListener(logger *slog.Logger, cfg *config.Config, clientID string, syncer ports.WhitelistSyncer) *CommandListener {
	return &CommandListener{
		logger:   logger,
		url:      cfg.Server.WebSocketURL,
		clientID: clientID,
		syncer:   syncer,
	}
}

// Start поддерживает соединение с сервером, переподключаясь с растущей
// задержкой при обрывах
func (l *CommandListener) Start(ctx context.Context) {
	if l.url == "" {
		l.logger.Info("websocket url not configured, command listener not started")
		return
	}

	l.logger.Info("starting command listener", "url", l.url)

	delay := reconnectBaseDelay
	for {
		if ctx.Err() != nil {
			l.logger.Info("command listener stopped")
			return
		}

		connected, err := l.listen(ctx)
		if connected {
			// Соединение состоялось: следующий обрыв начинает отсчет
			// задержки заново
			delay = reconnectBaseDelay
		}
		if err != nil && ctx.Err() == nil {
			l.logger.Warn("websocket connection lost", "error", err, "retry_in", delay.String())
		}

		select {
		case <-ctx.Done():
			l.logger.Info("command listener stopped")
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

// listen устанавливает соединение и обрабатывает команды до обрыва.
// Возвращает признак того, что соединение было успешно установлено
// и зарегистрировано.
func (l *CommandListener) listen(ctx context.Context) (bool, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	// Отмена контекста должна прервать блокирующее чтение
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	register := map[string]string{"type": "register", "clientId": l.clientID}
	if err := conn.WriteJSON(register); err != nil {
		return false, err
	}

	l.logger.Info("connected to command channel")

	for {
		var cmd serverCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return true, err
		}
		l.handle(ctx, conn, cmd)
	}
}

func (l *CommandListener) handle(ctx context.Context, conn *websocket.Conn, cmd serverCommand) {
	switch cmd.Type {
	case commandWhitelistUpdated:
		l.logger.Info("whitelist update command received")
		if ok := l.syncer.ForceSync(ctx); !ok {
			l.logger.Error("forced whitelist sync after server command failed")
		}
	case commandPing:
		if err := conn.WriteJSON(map[string]string{"type": "pong", "clientId": l.clientID}); err != nil {
			l.logger.Debug("failed to answer ping", "error", err)
		}
	default:
		l.logger.Debug("ignoring unknown server command", "type", cmd.Type)
	}
}
