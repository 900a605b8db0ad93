package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"runtime"
	"strconv"
	"time"

	"github.com/clipsentry/screen-monitor-system/agent/config"
	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
	"github.com/clipsentry/screen-monitor-system/agent/pkg/sysinfo"
)

// ServerClient представляет HTTP-клиент для взаимодействия с сервером мониторинга
type ServerClient struct {
	logger        *slog.Logger
	baseURL       string
	clientID      string
	clientVersion string
	client        *http.Client
}

// NewServerClient создает новый клиент серверного API
func NewServerClient(logger *slog.Logger, cfg *config.Config, clientID string) *ServerClient {
	return &ServerClient{
		logger:        logger,
		baseURL:       cfg.Server.APIBaseURL,
		clientID:      clientID,
		clientVersion: cfg.App.Version,
		client:        &http.Client{Timeout: time.Duration(cfg.Server.Timeout) * time.Second},
	}
}

// WhitelistResponse описывает ответ сервера со списком разрешенных адресов
type WhitelistResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Addresses   []string `json:"addresses"`
		LastUpdated string   `json:"lastUpdated"`
	} `json:"data"`
}

// reportResponse описывает ответ сервера на отправку нарушения
type reportResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Success bool `json:"success"`
	} `json:"data"`
}

// FetchActiveWhitelist запрашивает актуальный белый список адресов.
// lastUpdate - epoch-время последней успешной синхронизации, передается
// серверу для инкрементальной выдачи; ноль означает полную выгрузку.
func (c *ServerClient) FetchActiveWhitelist(ctx context.Context, lastUpdate int64) (*WhitelistResponse, error) {
	endpoint := fmt.Sprintf("%s/whitelist/addresses/active", c.baseURL)
	if lastUpdate > 0 {
		endpoint += "?lastUpdate=" + strconv.FormatInt(lastUpdate, 10)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create whitelist request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Id", c.clientID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch whitelist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("whitelist endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var result WhitelistResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode whitelist response: %w", err)
	}

	c.logger.DebugContext(ctx, "whitelist fetched",
		"addresses", len(result.Data.Addresses),
		"last_updated", result.Data.LastUpdated)

	return &result, nil
}

// ReportViolation отправляет событие нарушения на сервер multipart-формой.
// Скриншот опционален: при его отсутствии вместо файла передается текстовая
// заглушка, чтобы сервер всегда получал поле файла.
func (c *ServerClient) ReportViolation(ctx context.Context, event entities.ViolationEvent, screenshot []byte) error {
	additional, err := json.Marshal(map[string]string{
		"addressType":      event.AddressType,
		"clipboardContent": event.Excerpt,
		"detectedAt":       event.CreatedAt.UTC().Format(time.RFC3339),
		"clientVersion":    c.clientVersion,
		"platform":         runtime.GOOS,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal violation details: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"clientId":         event.ClientID,
		"violationType":    entities.ViolationTypeBlockchainAddress,
		"violationContent": event.Address,
		"timestamp":        strconv.FormatInt(event.CreatedAt.UnixMilli(), 10),
		"additionalData":   string(additional),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	if err := writeScreenshotPart(writer, screenshot); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/security/violations/report-with-screenshot", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create violation request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send violation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("violation endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode violation response: %w", err)
	}
	if !result.Success && !result.Data.Success {
		return fmt.Errorf("server rejected violation %s", event.EventID)
	}

	c.logger.InfoContext(ctx, "violation delivered",
		"event_id", event.EventID,
		"address_type", event.AddressType,
		"risk_level", event.RiskLevel)

	return nil
}

// SendHeartbeat сообщает серверу, что агент жив, и прикладывает
// сведения о хосте
func (c *ServerClient) SendHeartbeat(ctx context.Context) error {
	payload, err := json.Marshal(struct {
		ClientID  string       `json:"clientId"`
		Timestamp string       `json:"timestamp"`
		Version   string       `json:"version"`
		Host      sysinfo.Info `json:"host"`
	}{
		ClientID:  c.clientID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   c.clientVersion,
		Host:      sysinfo.Collect(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal heartbeat: %w", err)
	}

	endpoint := fmt.Sprintf("%s/clients/heartbeat", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create heartbeat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send heartbeat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("heartbeat endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func writeScreenshotPart(writer *multipart.Writer, screenshot []byte) error {
	header := make(textproto.MIMEHeader)
	if len(screenshot) > 0 {
		filename := fmt.Sprintf("screenshot_%d.jpg", time.Now().Unix())
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		header.Set("Content-Type", "image/jpeg")

		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("failed to create screenshot part: %w", err)
		}
		if _, err := part.Write(screenshot); err != nil {
			return fmt.Errorf("failed to write screenshot: %w", err)
		}
		return nil
	}

	// Скриншот не снят (отключен или ошибка захвата)
	header.Set("Content-Disposition", `form-data; name="file"; filename="no-screenshot.txt"`)
	header.Set("Content-Type", "text/plain")

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create screenshot placeholder: %w", err)
	}
	if _, err := part.Write([]byte("screenshot unavailable")); err != nil {
		return fmt.Errorf("failed to write screenshot placeholder: %w", err)
	}
	return nil
}
