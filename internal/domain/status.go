package domain

import (
	"errors"
	"fmt"
)

// Status classifies a music item in the moderation workflow.
type Status string

const (
	// StatusPending marks a fresh suggestion awaiting moderation.
	StatusPending Status = "pending"
	// StatusApproved marks an item visible in public listings.
	StatusApproved Status = "approved"
	// StatusRejected marks an item turned down by an admin.
	StatusRejected Status = "rejected"
)

// ErrUnknownStatus is returned when parsing an unrecognized status value.
var ErrUnknownStatus = errors.New("unknown status")

// ParseStatus converts a wire value into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// StatusInfo is presentation metadata for a status, consumed by the frontend.
type StatusInfo struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var statusInfos = map[Status]StatusInfo{
	StatusPending: {
		Value:       string(StatusPending),
		Label:       "Pending",
		Color:       "yellow",
		Icon:        "clock",
		Description: "Awaiting admin approval",
	},
	StatusApproved: {
		Value:       string(StatusApproved),
		Label:       "Approved",
		Color:       "green",
		Icon:        "check-circle",
		Description: "Approved and publicly visible",
	},
	StatusRejected: {
		Value:       string(StatusRejected),
		Label:       "Rejected",
		Color:       "red",
		Icon:        "x-circle",
		Description: "Rejected by an admin",
	},
}

// Info returns the presentation metadata for the status.
func (s Status) Info() StatusInfo { return statusInfos[s] }

// Label returns the human-readable label for the status.
func (s Status) Label() string { return statusInfos[s].Label }

// AllStatuses returns metadata for every status, in workflow order.
func AllStatuses() []StatusInfo {
	return []StatusInfo{
		statusInfos[StatusPending],
		statusInfos[StatusApproved],
		statusInfos[StatusRejected],
	}
}
