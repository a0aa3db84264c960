package backendclient

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Plan is a subscription plan. Price is in cents.
type Plan struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int    `json:"price"`
	Interval      string `json:"interval"`
	StripePriceID string `json:"stripe_price_id"`
	IsActive      bool   `json:"is_active"`
}

const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
)

type Subscription struct {
	ID                   int    `json:"id"`
	UserID               int    `json:"user_id"`
	PlanID               int    `json:"plan_id"`
	Status               string `json:"status"`
	StripeSubscriptionID string `json:"stripe_subscription_id"`
	CurrentPeriodStart   Time   `json:"current_period_start"`
	CurrentPeriodEnd     Time   `json:"current_period_end"`
	CancelAtPeriodEnd    bool   `json:"cancel_at_period_end"`
}

type Invoice struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	DownloadURL string  `json:"downloadUrl"`
	ViewURL     string  `json:"viewUrl"`
}

// Time accepts RFC 3339 and the zone-less ISO timestamps the billing API
// emits. Zone-less values are read as UTC.
type Time struct {
	time.Time
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", time.DateOnly}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
