package workers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/clipsentry/screen-monitor-system/agent/config"
)

type fakeSyncer struct {
	calls chan struct{}
}

func (f *fakeSyncer) ForceSync(context.Context) bool {
	f.calls <- struct{}{}
	return true
}

func TestCommandListenerForcesSyncOnServerCommand(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan map[string]string, 8)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// Первым сообщением агент представляется
		var register map[string]string
		require.NoError(t, conn.ReadJSON(&register))
		received <- register

		// Сервер просит немедленную синхронизацию белого списка
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "whitelist_updated"}))

		// Держим соединение, пока тест не закроет его
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := &config.Config{}
	cfg.Server.WebSocketURL = "ws" + strings.TrimPrefix(server.URL, "http")

	syncer := &fakeSyncer{calls: make(chan struct{}, 1)}
	listener := NewCommandListener(slog.Default(), cfg, "client-123", syncer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		listener.Start(ctx)
	}()

	select {
	case register := <-received:
		require.Equal(t, "register", register["type"])
		require.Equal(t, "client-123", register["clientId"])
	case <-time.After(5 * time.Second):
		t.Fatal("агент не представился серверу")
	}

	select {
	case <-syncer.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("команда whitelist_updated не привела к синхронизации")
	}

	cancel()
	<-done
}

// После состоявшегося соединения задержка переподключения начинается
// с базовой, а не продолжает расти от предыдущих обрывов
func TestCommandListenerResetsReconnectDelay(t *testing.T) {
	upgrader := websocket.Upgrader{}
	connects := make(chan struct{}, 16)

	// Сервер принимает регистрацию и тут же обрывает соединение
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		var register map[string]string
		require.NoError(t, conn.ReadJSON(&register))
		connects <- struct{}{}

		conn.Close()
	}))
	defer server.Close()

	cfg := &config.Config{}
	cfg.Server.WebSocketURL = "ws" + strings.TrimPrefix(server.URL, "http")

	listener := NewCommandListener(slog.Default(), cfg, "client-123", &fakeSyncer{calls: make(chan struct{}, 1)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		listener.Start(ctx)
	}()

	// Со сбросом задержки четыре подключения укладываются примерно
	// в три секунды; с накапливающейся задержкой четвертое пришло бы
	// только через семь
	deadline := time.After(5 * time.Second)
	for i := 0; i < 4; i++ {
		select {
		case <-connects:
		case <-deadline:
			t.Fatalf("только %d переподключений, задержка не сбрасывается", i)
		}
	}

	cancel()
	<-done
}

func TestCommandListenerAnswersPing(t *testing.T) {
	upgrader := websocket.Upgrader{}
	pong := make(chan map[string]string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var register map[string]string
		require.NoError(t, conn.ReadJSON(&register))

		require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

		var answer map[string]string
		if err := conn.ReadJSON(&answer); err == nil {
			pong <- answer
		}
	}))
	defer server.Close()

	cfg := &config.Config{}
	cfg.Server.WebSocketURL = "ws" + strings.TrimPrefix(server.URL, "http")

	listener := NewCommandListener(slog.Default(), cfg, "client-123", &fakeSyncer{calls: make(chan struct{}, 1)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		listener.Start(ctx)
	}()

	select {
	case answer := <-pong:
		require.Equal(t, "pong", answer["type"])
		require.Equal(t, "client-123", answer["clientId"])
	case <-time.After(5 * time.Second):
		t.Fatal("агент не ответил на ping")
	}

	cancel()
	<-done
}
