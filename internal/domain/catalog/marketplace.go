package catalog

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type Purchase struct {
	ID            int64     `json:"id"`
	BuyerID       int64     `json:"buyer"`
	VideoID       *int64    `json:"video"`
	Amount        float64   `json:"amount"`
	TransactionID string    `json:"transaction_id"`
	PurchasedAt   time.Time `json:"purchased_at"`
}

type LiveSessionBooking struct {
	ID              int64         `json:"id"`
	SessionID       int64         `json:"session"`
	UserID          int64         `json:"user"`
	Status          BookingStatus `json:"status"`
	DurationMinutes *int          `json:"duration_minutes"`
	TotalAmount     *float64      `json:"total_amount"`
	BookedAt        time.Time     `json:"booked_at"`
}

type Review struct {
	ID            int64     `json:"id"`
	ReviewerID    int64     `json:"reviewer"`
	CreatorID     int64     `json:"content_creator"`
	VideoID       *int64    `json:"video"`
	LiveSessionID *int64    `json:"live_session"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}
