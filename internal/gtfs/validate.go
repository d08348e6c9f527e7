package gtfs

import "fmt"

// Validate checks the model's referential and ordering invariants and
// returns every violation found, not just the first. A non-empty result is
// fatal for the run: the model must not be exported.
func (s *Schedule) Validate() []error {
	var violations []error

	for _, trip := range s.Trips {
		if len(trip.StopTimes) == 0 {
			violations = append(violations,
				fmt.Errorf("trip %s has no stop times", trip.ID))
		}

		if _, ok := s.Routes[trip.RouteID]; !ok {
			violations = append(violations,
				fmt.Errorf("trip %s references unknown route %q", trip.ID, trip.RouteID))
		}
		if _, ok := s.Shapes[trip.ShapeID]; !ok {
			violations = append(violations,
				fmt.Errorf("trip %s references unknown shape %q", trip.ID, trip.ShapeID))
		}

		for i, st := range trip.StopTimes {
			if _, ok := s.Stops[st.StopID]; !ok {
				violations = append(violations,
					fmt.Errorf("trip %s stop time %d references unknown stop %q", trip.ID, i, st.StopID))
			}
			if st.Seq != i {
				violations = append(violations,
					fmt.Errorf("trip %s stop time %d has sequence %d, want %d", trip.ID, i, st.Seq, i))
			}
		}
	}

	return violations
}
