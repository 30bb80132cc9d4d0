package model

import "time"

// Workshop is a service-provider location.  Services is stored as a JSON
// array in a TEXT column and decoded by the repository.
type Workshop struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Rating     float64   `json:"rating"`
	Reviews    int       `json:"reviews"`
	IsOpen     bool      `json:"isOpen"`
	OpenTime   string    `json:"openTime"`
	CloseTime  string    `json:"closeTime"`
	Services   []string  `json:"services"`
	DistanceKm *float64  `json:"distanceKm,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Offers reports whether the workshop lists the named service.  The match is
// exact and case-sensitive.
func (w *Workshop) Offers(service string) bool {
	for _, s := range w.Services {
		if s == service {
			return true
		}
	}
	return false
}

// WorkshopFilter narrows WorkshopRepo.List.
type WorkshopFilter struct {
	IsOpen *bool
}

// WorkshopPatch holds optional updates for an admin edit.  Nil fields are
// left untouched.
type WorkshopPatch struct {
	Name      *string
	Address   *string
	Lat       *float64
	Lng       *float64
	IsOpen    *bool
	OpenTime  *string
	CloseTime *string
	Services  []string
}

// WorkerAssignment binds a worker to a workshop.  Ending an assignment flips
// Active to false and stamps EndedAt; rows are never removed.
type WorkerAssignment struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	WorkshopID  int64      `json:"workshopId"`
	IsPrimary   bool       `json:"isPrimary"`
	Active      bool       `json:"active"`
	AssignedAt  time.Time  `json:"assignedAt"`
	EndedAt     *time.Time `json:"endedAt"`
	WorkerName  *string    `json:"workerName,omitempty"`
	WorkerPhone string     `json:"workerPhone,omitempty"`
}

// AssignmentFilter narrows AssignmentRepo.List.
type AssignmentFilter struct {
	UserID     int64
	WorkshopID int64
	Active     *bool
}
