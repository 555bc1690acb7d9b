// Package deposit models the lifecycle of a deposit certificate as reported
// by the protocol contracts. Transitions are enforced on-chain; this package
// only reads and labels them.
package deposit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownStatus means a status code outside the known set, which points to
// a contract/client version mismatch.
var ErrUnknownStatus = errors.New("unknown deposit status")

// Status is the on-chain status code of a certificate.
type Status uint8

const (
	Active Status = iota
	Withdrawn
	AutoRenewed
	ManualRenewed
)

var labels = [...]string{
	Active:        "Active",
	Withdrawn:     "Withdrawn",
	AutoRenewed:   "AutoRenewed",
	ManualRenewed: "ManualRenewed",
}

// All returns every status in code order.
func All() []Status {
	return []Status{Active, Withdrawn, AutoRenewed, ManualRenewed}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return int(s) < len(labels)
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
	return labels[s]
}

// Label returns the display label for a raw status code.
func Label(code uint64) (string, error) {
	if code >= uint64(len(labels)) {
		return "", fmt.Errorf("%w: %d", ErrUnknownStatus, code)
	}
	return labels[code], nil
}

// ParseStatus accepts a label (case-insensitive) or a numeric code.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for i, l := range labels {
		if strings.EqualFold(l, s) {
			return Status(i), nil
		}
	}
	if code, err := strconv.ParseUint(s, 10, 64); err == nil {
		if _, err := Label(code); err != nil {
			return 0, err
		}
		return Status(code), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Schedule is the timeline of one deposit.
type Schedule struct {
	Start time.Time
	Tenor time.Duration
	Grace time.Duration
}

// Maturity is when the lock-up ends.
func (s Schedule) Maturity() time.Time {
	return s.Start.Add(s.Tenor)
}

// GraceEnds is the last moment a matured deposit can be handled before the
// contract treats it as unclaimed.
func (s Schedule) GraceEnds() time.Time {
	return s.Maturity().Add(s.Grace)
}

// Matured reports whether the lock-up is over at t.
func (s Schedule) Matured(t time.Time) bool {
	return !t.Before(s.Maturity())
}

// InGrace reports whether t falls inside the grace window after maturity.
func (s Schedule) InGrace(t time.Time) bool {
	return s.Matured(t) && t.Before(s.GraceEnds())
}
