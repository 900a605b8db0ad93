package sysinfo

import (
	"context"
	"net"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
)

// Info - сведения о машине, на которой работает агент
type Info struct {
	Hostname  string `json:"hostname"`
	IPAddress string `json:"ipAddress"`
	OS        string `json:"os"`
	Platform  string `json:"platform"`
	Version   string `json:"platformVersion"`
	Uptime    uint64 `json:"uptimeSeconds"`
}

// Collect собирает сведения о хосте. Частичные сбои не являются ошибкой:
// недоступные поля остаются пустыми.
func Collect(ctx context.Context) Info {
	info := Info{OS: runtime.GOOS}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}
	info.IPAddress = outboundIP()

	if stats, err := host.InfoWithContext(ctx); err == nil {
		info.Platform = stats.Platform
		info.Version = stats.PlatformVersion
		info.Uptime = stats.Uptime
	}

	return info
}

// outboundIP определяет адрес исходящего интерфейса без реальной отправки
// пакетов: UDP-соединение не устанавливает связь с удаленной стороной
func outboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ""
	}
	return addr.IP.String()
}
