package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order statuses.
const (
	OrderStatusPaid      = "paid"
	PaymentStatusPaid    = "paid"
	FulfillmentUnshipped = "unfulfilled"
)

type Order struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber       string    `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID            string    `gorm:"type:varchar(128);index" json:"user_id,omitempty"`
	GuestEmail        string    `gorm:"type:varchar(256)" json:"guest_email,omitempty"`
	SessionID         string    `gorm:"type:varchar(128);index" json:"session_id"`
	PaymentID         string    `gorm:"type:varchar(256)" json:"payment_id"`
	Subtotal          float64   `gorm:"not null" json:"subtotal"`
	Shipping          float64   `gorm:"not null" json:"shipping"`
	Tax               float64   `gorm:"not null" json:"tax"`
	Total             float64   `gorm:"not null" json:"total"`
	Status            string    `gorm:"type:varchar(20);not null;default:'paid'" json:"status"`
	PaymentStatus     string    `gorm:"type:varchar(20);not null;default:'paid'" json:"payment_status"`
	FulfillmentStatus string    `gorm:"type:varchar(20);not null;default:'unfulfilled'" json:"fulfillment_status"`
	// Shipping address snapshot at the time of the order.
	ShipFirstName string         `gorm:"type:varchar(128)" json:"ship_first_name"`
	ShipLastName  string         `gorm:"type:varchar(128)" json:"ship_last_name"`
	ShipAddress1  string         `gorm:"type:varchar(256)" json:"ship_address1"`
	ShipAddress2  string         `gorm:"type:varchar(256)" json:"ship_address2,omitempty"`
	ShipCity      string         `gorm:"type:varchar(128)" json:"ship_city"`
	ShipState     string         `gorm:"type:varchar(64)" json:"ship_state"`
	ShipZipCode   string         `gorm:"type:varchar(32)" json:"ship_zip_code"`
	ShipCountry   string         `gorm:"type:varchar(64)" json:"ship_country"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	OrderItems    []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductID string    `gorm:"type:varchar(128);not null" json:"product_id"`
	Name      string    `gorm:"type:varchar(256)" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
}

// Address is a saved customer address-book entry.
type Address struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    string         `gorm:"type:varchar(128);not null;index" json:"user_id"`
	FirstName string         `gorm:"type:varchar(128)" json:"first_name"`
	LastName  string         `gorm:"type:varchar(128)" json:"last_name"`
	Phone     string         `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Address1  string         `gorm:"type:varchar(256);not null" json:"address1"`
	Address2  string         `gorm:"type:varchar(256)" json:"address2,omitempty"`
	City      string         `gorm:"type:varchar(128);not null" json:"city"`
	State     string         `gorm:"type:varchar(64)" json:"state"`
	ZipCode   string         `gorm:"type:varchar(32);not null" json:"zip_code"`
	Country   string         `gorm:"type:varchar(64)" json:"country"`
	IsDefault bool           `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Matches reports whether the saved entry refers to the same place as
// the submitted shipping address. Dedup is by street, city and zip.
func (a *Address) Matches(s ShippingAddress) bool {
	return a.Address1 == s.Address1 && a.City == s.City && a.ZipCode == s.ZipCode
}
