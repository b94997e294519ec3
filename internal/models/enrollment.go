package models

import "time"

// AccountKey identifies one student across enrollment, engagement and submission data.
type AccountKey int64

// EnrollmentStatus is either Active or Canceled. The cancellation fields only exist on Canceled.
type EnrollmentStatus interface {
	isEnrollmentStatus()
}

// Active marks an enrollment that was never canceled.
type Active struct{}

// Canceled marks an enrollment that ended before the snapshot was taken.
type Canceled struct {
	CancelDate   time.Time `json:"cancel_date"`
	DaysToCancel int       `json:"days_to_cancel"`
}

func (Active) isEnrollmentStatus() {}
func (Canceled) isEnrollmentStatus() {}

// EnrollmentRecord is one row of the enrollments dataset. A zero JoinDate means no date was recorded.
type EnrollmentRecord struct {
	AccountKey AccountKey       `json:"account_key"`
	JoinDate   time.Time        `json:"join_date"`
	IsUdacity  bool             `json:"is_udacity"`
	Status     EnrollmentStatus `json:"-"`
}

// IsCanceled reports whether the enrollment carries a cancellation.
func (r EnrollmentRecord) IsCanceled() bool {
	_, ok := r.Status.(Canceled)
	return ok
}

// Cancellation returns the cancellation details when the enrollment was canceled.
func (r EnrollmentRecord) Cancellation() (Canceled, bool) {
	c, ok := r.Status.(Canceled)
	return c, ok
}
