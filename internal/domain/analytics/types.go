// Package analytics defines the derived traffic aggregates computed from the
// daily rollup store. Aggregates are computed fresh on every cache miss and
// never persisted independently of the final insight payload.
package analytics

import "time"

// PageView is one recorded page view prior to rollup.
type PageView struct {
	UserID    string
	URL       string
	VisitorID string
	Device    string
	CreatedAt time.Time
}

// Device type tokens accepted by ingestion. Anything else rolls up as desktop.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// TopPage is one entry of a day's ranked top-pages list.
type TopPage struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// DailyStat is one day's rolled-up traffic counts for a user.
type DailyStat struct {
	Day            string    `json:"day"` // YYYY-MM-DD
	PageViews      int       `json:"pageViews"`
	UniqueVisitors int       `json:"uniqueVisitors"`
	TopPages       []TopPage `json:"topPages"`
}

// DeviceSplit holds per-device view counts over a window.
type DeviceSplit struct {
	Desktop int `json:"desktop"`
	Mobile  int `json:"mobile"`
	Tablet  int `json:"tablet"`
}

// Aggregate is the full traffic picture for a user over a [start, end)
// window: window totals, device split, daily trend and the merged top-pages
// ranking across all days.
type Aggregate struct {
	PageViews      int         `json:"pageViews"`
	UniqueVisitors int         `json:"uniqueVisitors"`
	Devices        DeviceSplit `json:"devices"`
	Daily          []DailyStat `json:"daily"`
	TopPages       []TopPage   `json:"topPages"`
}
