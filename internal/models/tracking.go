package models

type TrackingRequest struct {
	TrackingNumber string `json:"trackingNumber"`
}

type TrackingRecord struct {
	TrackingNumber    string          `json:"trackingNumber"`
	Status            string          `json:"status,omitempty"`
	StatusDescription string          `json:"statusDescription,omitempty"`
	Origin            string          `json:"origin,omitempty"`
	Destination       string          `json:"destination,omitempty"`
	Weight            string          `json:"weight,omitempty"`
	Couriers          []string        `json:"couriers"`
	DaysOnRoute       int             `json:"daysOnRoute"`
	Timeline          []TimelineEvent `json:"timeline"`
	SourceURL         string          `json:"sourceUrl"`
}

// TimelineEvent is one checkpoint, in page order (most recent first).
type TimelineEvent struct {
	Date     string `json:"date"`
	Courier  string `json:"courier,omitempty"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	IsActive bool   `json:"isActive"`
}
