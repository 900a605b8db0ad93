package entities

import "time"

// ViolationType для всех событий этого агента - обнаруженный блокчейн-адрес
const ViolationTypeBlockchainAddress = "BLOCKCHAIN_ADDRESS"

// ViolationEvent представляет обнаруженный адрес вне белого списка,
// упакованный с контекстом для отправки на сервер
type ViolationEvent struct {
	EventID          string    `json:"eventId"`
	ClientID         string    `json:"clientId"`
	AddressType      string    `json:"addressType"`
	Address          string    `json:"address"`
	Excerpt          string    `json:"excerpt"`
	RiskLevel        string    `json:"riskLevel"`
	CreatedAt        time.Time `json:"createdAt"`
	DeliveryAttempts int       `json:"deliveryAttempts"`
}
