package model

import "time"

// Status is the lifecycle state of a service request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every recognised status in lifecycle order.
var Statuses = []Status{StatusPending, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled}

// Valid reports whether s is one of the recognised statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Urgency is a caller-supplied priority hint.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// Valid reports whether u is low, normal or high.
func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyNormal || u == UrgencyHigh
}

// ServiceRequest mirrors service_requests joined with workshops.name.
type ServiceRequest struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"userId"`
	WorkshopID         *int64    `json:"workshopId"`
	WorkshopName       *string   `json:"workshopName"`
	AssignedWorkerID   *int64    `json:"assignedWorkerId"`
	Service            string    `json:"service"`
	Status             Status    `json:"status"`
	VehicleMake        *string   `json:"vehicleMake"`
	VehicleModel       *string   `json:"vehicleModel"`
	VehicleYear        *string   `json:"vehicleYear"`
	RegistrationNumber *string   `json:"registrationNumber"`
	LocationAddress    *string   `json:"locationAddress"`
	Lat                *float64  `json:"lat"`
	Lng                *float64  `json:"lng"`
	Notes              *string   `json:"notes"`
	Urgency            Urgency   `json:"urgency"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// RequestFilter holds the equality filters accepted by RequestRepo.List.
// Zero values are ignored.
type RequestFilter struct {
	UserID     int64
	WorkshopID int64
	Status     Status
}

// StatusChange describes one conditional status update.  From is the status
// the caller observed; the update only applies while the row still holds it.
// ClaimWorkerID, when set, fills assignedWorkerId if it is still empty.
type StatusChange struct {
	RequestID     int64
	From          Status
	To            Status
	ActorID       int64
	Notes         *string
	ClaimWorkerID *int64
}

// StatusHistory is one append-only row of request_status_history.
type StatusHistory struct {
	ID              int64     `json:"id"`
	RequestID       int64     `json:"requestId"`
	FromStatus      *Status   `json:"fromStatus"`
	ToStatus        Status    `json:"toStatus"`
	ChangedByUserID *int64    `json:"changedByUserId"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
}
