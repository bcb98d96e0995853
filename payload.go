package pagecache

import "fmt"

// Page is one page of a listing as returned by a paginated fetch.
type Page[T any] struct {
	Items      []T `json:"items" cbor:"items" msgpack:"items"`
	TotalPages int `json:"totalPages" cbor:"totalPages" msgpack:"totalPages"`
	TotalCount int `json:"totalCount" cbor:"totalCount" msgpack:"totalCount"`
}

// Status is the fixed set of review states listings are grouped by.
type Status uint8

const (
	StatusAll Status = iota
	StatusPending
	StatusAccepted
	StatusRejected
	StatusRequestedChanges
)

var statusNames = [...]string{
	StatusAll:              "All",
	StatusPending:          "Pending",
	StatusAccepted:         "Accepted",
	StatusRejected:         "Rejected",
	StatusRequestedChanges: "RequestedChanges",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("pagecache: unknown status %q", name)
}

// Counts holds per-status totals as returned by a counts fetch.
type Counts struct {
	All              int `json:"All" cbor:"All" msgpack:"All"`
	Pending          int `json:"Pending" cbor:"Pending" msgpack:"Pending"`
	Accepted         int `json:"Accepted" cbor:"Accepted" msgpack:"Accepted"`
	Rejected         int `json:"Rejected" cbor:"Rejected" msgpack:"Rejected"`
	RequestedChanges int `json:"RequestedChanges" cbor:"RequestedChanges" msgpack:"RequestedChanges"`
}

// Of returns the total for s; unknown statuses count as 0.
func (c Counts) Of(s Status) int {
	switch s {
	case StatusAll:
		return c.All
	case StatusPending:
		return c.Pending
	case StatusAccepted:
		return c.Accepted
	case StatusRejected:
		return c.Rejected
	case StatusRequestedChanges:
		return c.RequestedChanges
	default:
		return 0
	}
}
