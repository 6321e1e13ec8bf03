package models

import "time"

// RequestStatus is the coarse lifecycle status of a purchase request,
// projected from workflow transitions.
type RequestStatus string

const (
	RequestPending    RequestStatus = "PENDING"     // created, no decision yet
	RequestInProgress RequestStatus = "IN_PROGRESS" // at least one approval, chain not exhausted
	RequestApproved   RequestStatus = "APPROVED"    // every step approved
	RequestRejected   RequestStatus = "REJECTED"    // rejected at some step
)

// Request represents a purchase/expense request owned by a staff member.
// The workflow engine writes Status and CurrentStep; everything else is
// plain CRUD data.
type Request struct {
	ID            string        `json:"id"`
	RequestNumber string        `json:"request_number"`
	CreatorID     string        `json:"creator_id"`
	DepartmentID  string        `json:"department_id,omitempty"`
	CompanyID     string        `json:"company_id"`
	Status        RequestStatus `json:"status"`
	CurrentStep   Role          `json:"current_step,omitempty"` // role expected to act next, empty once complete
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
