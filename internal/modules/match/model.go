// README: Match query and candidate types.
package match

import (
	"time"

	"campool/internal/modules/ride"
	"campool/internal/types"
)

// Query describes what a rider is looking for. The window is inclusive
// minutes since midnight on the given date.
type Query struct {
	RequesterID types.ID
	Destination string
	Date        time.Time
	WindowStart int
	WindowEnd   int
}

// Candidate is a ride ranked against a query. ExactDestination candidates
// always sort ahead of group-compatible ones; within a tier a smaller start
// delta wins.
type Candidate struct {
	Ride             *ride.Ride
	ExactDestination bool
	StartDelta       int
}
