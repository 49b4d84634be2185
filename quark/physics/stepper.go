package physics

// Stepper converts wall-clock time into fixed simulation steps.
type Stepper struct {
	Sim *Simulation
	// MaxSubsteps caps the steps taken per Advance; leftover time is dropped
	// so a stalled frame does not trigger a catch-up spiral.
	MaxSubsteps int

	acc float64
}

// Advance accumulates elapsed seconds and steps the simulation as many
// timesteps as fit. It returns the number of steps taken.
func (s *Stepper) Advance(elapsed float64) int {
	if s == nil || s.Sim == nil || elapsed <= 0 {
		return 0
	}
	dt := s.Sim.Model.Opt.Timestep
	if dt <= 0 {
		return 0
	}
	limit := s.MaxSubsteps
	if limit <= 0 {
		limit = 1
	}

	s.acc += elapsed
	steps := 0
	for s.acc >= dt && steps < limit {
		s.Sim.Step()
		s.acc -= dt
		steps++
	}
	if steps == limit && s.acc >= dt {
		s.acc = 0
	}
	return steps
}

// Reset clears accumulated time.
func (s *Stepper) Reset() { s.acc = 0 }
