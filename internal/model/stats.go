package model

import "time"

// AdminStats is the payload of GET /api/admin/stats.
type AdminStats struct {
	Totals           StatsTotals      `json:"totals"`
	RequestsByStatus map[string]int64 `json:"requestsByStatus"`
	RecentRequests   []RecentRequest  `json:"recentRequests"`
}

// StatsTotals counts rows in the main tables.
type StatsTotals struct {
	Users     int64 `json:"users"`
	Workshops int64 `json:"workshops"`
	Requests  int64 `json:"requests"`
}

// RecentRequest is the condensed request row shown on the admin dashboard.
type RecentRequest struct {
	ID           int64     `json:"id"`
	Service      string    `json:"service"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UserPhone    *string   `json:"userPhone"`
	WorkshopName *string   `json:"workshopName"`
}
