package salesreport

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status captures the state of a report run.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReady      Status = "READY"
	StatusFailed     Status = "FAILED"
)

// Run is a persisted background generation request and its result.
type Run struct {
	ID           uuid.UUID  `json:"id"`
	Period       string     `json:"period"`
	RangeStart   *time.Time `json:"rangeStart,omitempty"`
	RangeEnd     *time.Time `json:"rangeEnd,omitempty"`
	Status       Status     `json:"status"`
	FilePath     string     `json:"-"`
	FileName     string     `json:"fileName,omitempty"`
	FileSize     *int64     `json:"fileSize,omitempty"`
	PageCount    *int       `json:"pageCount,omitempty"`
	ErrorMessage string     `json:"error,omitempty"`
	GeneratedAt  *time.Time `json:"generatedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CreateRunRequest is the payload accepted when queueing a report.
type CreateRunRequest struct {
	Period string `json:"period" validate:"required,oneof=daily weekly monthly yearly custom"`
	Start  string `json:"start" validate:"required_if=Period custom,omitempty,datetime=2006-01-02"`
	End    string `json:"end" validate:"required_if=Period custom,omitempty,datetime=2006-01-02"`
}

// Bounds parses the optional start and end dates.
func (r CreateRunRequest) Bounds() (start, end *time.Time, err error) {
	parse := func(v string) (*time.Time, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	if start, err = parse(r.Start); err != nil {
		return nil, nil, err
	}
	if end, err = parse(r.End); err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, ErrInvalidRequest
	}
	return start, end, nil
}

var (
	ErrRunNotFound    = errors.New("salesreport: run not found")
	ErrInvalidStatus  = errors.New("salesreport: invalid status transition")
	ErrDuplicateRun   = errors.New("salesreport: run already exists")
	ErrInvalidRequest = errors.New("salesreport: invalid request")
	ErrRunNotReady    = errors.New("salesreport: run not ready")
)

// NormaliseStatus uppercases and trims the provided status string.
func NormaliseStatus(v string) Status {
	v = strings.TrimSpace(strings.ToUpper(v))
	switch Status(v) {
	case StatusPending, StatusInProgress, StatusReady, StatusFailed:
		return Status(v)
	default:
		return StatusPending
	}
}
