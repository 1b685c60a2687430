package models

import "time"

// Quote is a priced installation offer for a project
type Quote struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID string `gorm:"type:varchar(32);not null;index" json:"project_id"`

	Reference  string   `gorm:"type:varchar(50);not null" json:"reference"`
	Vendor     string   `gorm:"type:varchar(100)" json:"vendor,omitempty"`
	SystemKw   *float64 `gorm:"type:decimal(10,2)" json:"system_kw,omitempty"`
	TotalPrice int      `gorm:"type:int;not null" json:"total_price"`

	Status     QuoteStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	ValidUntil *time.Time  `gorm:"type:date" json:"valid_until,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// QuoteStatus is the negotiation state of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// TableName specifies the table name
func (Quote) TableName() string {
	return "quotes"
}

// PricePerKw returns the unit price, or nil when the system size is unknown or zero
func (q *Quote) PricePerKw() *float64 {
	if q.SystemKw == nil || *q.SystemKw == 0 {
		return nil
	}
	v := float64(q.TotalPrice) / *q.SystemKw
	return &v
}
