package models

import "strings"

type HistoryFilter string

const (
	FilterUpcoming  HistoryFilter = "upcoming"
	FilterCompleted HistoryFilter = "completed"
	FilterCancelled HistoryFilter = "cancelled"
)

func ParseHistoryFilter(raw string) (HistoryFilter, error) {
	switch HistoryFilter(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FilterUpcoming:
		return FilterUpcoming, nil
	case FilterCompleted:
		return FilterCompleted, nil
	case FilterCancelled:
		return FilterCancelled, nil
	}
	return "", ValidationError{Field: "filter", Msg: "filter must be upcoming, completed or cancelled"}
}

// Matches reports whether a booking with the given status belongs in the bucket.
// "upcoming" is a catch-all for every non-terminal status.
func (f HistoryFilter) Matches(status BookingStatus) bool {
	s := status.normalized()
	switch f {
	case FilterUpcoming:
		switch s {
		case StatusUpcoming, StatusPendingPayment, StatusPaid, StatusAwaitingApproval:
			return true
		}
		return false
	case FilterCompleted:
		return s == StatusCompleted
	case FilterCancelled:
		return s == StatusCancelled
	}
	return false
}

// HistoryView is the merged list at one point in time, plus the bucket selected by Filter.
type HistoryView struct {
	Filter   HistoryFilter `json:"filter"`
	Bookings []*Booking    `json:"bookings"`
	Total    int           `json:"total"`
}

// Bucket keeps insertion order; no sort key is applied.
func Bucket(all []*Booking, f HistoryFilter) []*Booking {
	out := make([]*Booking, 0, len(all))
	for _, b := range all {
		if f.Matches(b.Status) {
			out = append(out, b)
		}
	}
	return out
}

// ReplacePartition drops every entry tagged with kind and appends fresh in its place.
func ReplacePartition(prev []*Booking, kind BookingKind, fresh []*Booking) []*Booking {
	out := make([]*Booking, 0, len(prev)+len(fresh))
	for _, b := range prev {
		if b.Kind != kind {
			out = append(out, b)
		}
	}
	for _, b := range fresh {
		out = append(out, b.Tagged(kind))
	}
	return out
}
