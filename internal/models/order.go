package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
)

// Платформы, на которых исполнитель размещает контент.
const (
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
	PlatformX         = "x"
)

// ValidPlatforms список допустимых платформ.
var ValidPlatforms = map[string]struct{}{
	PlatformInstagram: {},
	PlatformYouTube:   {},
	PlatformTikTok:    {},
	PlatformX:         {},
}

// ServiceTerms - условия пакета услуг, зафиксированные в момент заказа.
type ServiceTerms struct {
	Amount       decimal.Decimal `json:"amount"`
	TimelineDays int             `json:"timeline_days"`
	Revisions    int             `json:"revisions"`
	Deliverables []string        `json:"deliverables"`
}

func (t ServiceTerms) Value() (driver.Value, error) { return jsonValue(t) }

func (t *ServiceTerms) Scan(src interface{}) error { return scanJSON(src, t) }

// ClientBrief - бриф бренда к заказу.
type ClientBrief struct {
	BrandName           string          `json:"brand_name"`
	ContactEmail        string          `json:"contact_email"`
	Budget              decimal.Decimal `json:"budget"`
	Goals               string          `json:"goals"`
	SpecialRequirements string          `json:"special_requirements,omitempty"`
}

func (b ClientBrief) Value() (driver.Value, error) { return jsonValue(b) }

func (b *ClientBrief) Scan(src interface{}) error { return scanJSON(src, b) }

// Order - заказ бренда у исполнителя на одну кампанию.
type Order struct {
	ID           uuid.UUID               `db:"id" json:"id"`
	SellerID     uuid.UUID               `db:"seller_id" json:"seller_id"`
	ClientID     uuid.UUID               `db:"client_id" json:"client_id"`
	SellerName   string                  `db:"seller_name" json:"seller_name"`
	Platform     string                  `db:"platform" json:"platform"`
	ServiceType  string                  `db:"service_type" json:"service_type"`
	Terms        ServiceTerms            `db:"terms" json:"terms"`
	Brief        ClientBrief             `db:"brief" json:"brief"`
	PaymentID    *uuid.UUID              `db:"payment_id" json:"payment_id,omitempty"`
	TotalAmount  decimal.Decimal         `db:"total_amount" json:"total_amount"`
	Status       valueobject.OrderStatus `db:"status" json:"status"`
	DeliveryDate *time.Time              `db:"delivery_date" json:"delivery_date,omitempty"`
	CreatedAt    time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time               `db:"updated_at" json:"updated_at"`
}

// IsSeller сообщает, является ли пользователь исполнителем заказа.
func (o *Order) IsSeller(userID uuid.UUID) bool { return o.SellerID == userID }

// IsClient сообщает, является ли пользователь заказчиком.
func (o *Order) IsClient(userID uuid.UUID) bool { return o.ClientID == userID }

// RoleOf возвращает роль участника заказа или пустую строку.
func (o *Order) RoleOf(userID uuid.UUID) string {
	switch {
	case o.IsSeller(userID):
		return RoleSeller
	case o.IsClient(userID):
		return RoleClient
	}
	return ""
}

// Counterparty возвращает второго участника заказа.
func (o *Order) Counterparty(userID uuid.UUID) uuid.UUID {
	if o.IsSeller(userID) {
		return o.ClientID
	}
	return o.SellerID
}

// OrderStatusChange - запись журнала смены статусов заказа.
type OrderStatusChange struct {
	ID         int64                   `db:"id" json:"id"`
	OrderID    uuid.UUID               `db:"order_id" json:"order_id"`
	FromStatus valueobject.OrderStatus `db:"from_status" json:"from_status"`
	ToStatus   valueobject.OrderStatus `db:"to_status" json:"to_status"`
	ChangedAt  time.Time               `db:"changed_at" json:"changed_at"`
}
