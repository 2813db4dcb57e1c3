package hal

// SliceSpec selects a range of container indices. Nil bounds default to the
// start or end of the container depending on the sign of Step, and negative
// bounds count from the end.
type SliceSpec struct {
	Start *int
	Stop  *int
	Step  int
}

// Span selects [start, stop) with step 1.
func Span(start, stop int) SliceSpec {
	return SliceSpec{Start: &start, Stop: &stop, Step: 1}
}

// From selects everything from start onward.
func From(start int) SliceSpec {
	return SliceSpec{Start: &start, Step: 1}
}

// Until selects everything before stop.
func Until(stop int) SliceSpec {
	return SliceSpec{Stop: &stop, Step: 1}
}

// Every selects the whole container with the given step.
func Every(step int) SliceSpec {
	return SliceSpec{Step: step}
}

// By returns a copy of s with its step replaced.
func (s SliceSpec) By(step int) SliceSpec {
	s.Step = step

	return s
}

// Indices resolves s against a sequence of the given length and returns the
// concrete start, stop and step. Bounds are clamped so the range never leaves
// [0, length).
func (s SliceSpec) Indices(length int) (int, int, int, error) {
	step := s.Step
	if step == 0 {
		return 0, 0, 0, ErrInvalidSlice
	}

	lower, upper := 0, length
	if step < 0 {
		lower, upper = -1, length-1
	}

	clamp := func(bound *int, fallback int) int {
		if bound == nil {
			return fallback
		}

		value := *bound
		if value < 0 {
			value += length
			if value < lower {
				value = lower
			}

			return value
		}

		if value > upper {
			value = upper
		}

		return value
	}

	var start, stop int
	if step > 0 {
		start, stop = clamp(s.Start, lower), clamp(s.Stop, upper)
	} else {
		start, stop = clamp(s.Start, upper), clamp(s.Stop, lower)
	}

	return start, stop, step, nil
}

// Len returns how many indices s selects from a sequence of length items.
func (s SliceSpec) Len(length int) int {
	start, stop, step, err := s.Indices(length)
	if err != nil {
		return 0
	}

	if step > 0 && start < stop {
		return (stop-start-1)/step + 1
	}

	if step < 0 && stop < start {
		return (start-stop-1)/(-step) + 1
	}

	return 0
}

// needsTail reports whether resolving s requires knowing the true end of the
// sequence.
func (s SliceSpec) needsTail() bool {
	if s.Step < 0 || s.Stop == nil {
		return true
	}

	return (s.Start != nil && *s.Start < 0) || *s.Stop < 0
}
