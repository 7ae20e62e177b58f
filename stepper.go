package gridastar

import "maps"

// StepSnapshot exposes the per-iteration state of the search
type StepSnapshot[NodeType comparable] struct {
	Current   NodeType
	Open      map[NodeType]bool
	Expanded  map[NodeType]bool
	CameFrom  map[NodeType]NodeType
	Done      bool
	Found     bool
	Path      []NodeType
	Cost      int
	StepIndex int
}

// Stepper runs the same search as Search, one frontier selection per Step.
// A Stepper is not safe for concurrent use.
type Stepper[NodeType comparable] struct {
	search    *searchState[NodeType]
	stepCount int
	done      bool
	found     bool
	current   NodeType
}

// NewStepper creates a stepper positioned before the first selection.
func NewStepper[NodeType comparable](
	graph Graph[NodeType],
	startNode NodeType,
	goalNode NodeType,
	heuristic Heuristic[NodeType],
) *Stepper[NodeType] {
	return &Stepper[NodeType]{
		search:  newSearchState(graph, startNode, goalNode, heuristic),
		current: startNode,
	}
}

// Done reports whether the search has finished.
func (s *Stepper[NodeType]) Done() bool { return s.done }

// Step advances the search by one selection and returns a snapshot.
// After the search finishes, Step keeps returning the final snapshot.
func (s *Stepper[NodeType]) Step() (StepSnapshot[NodeType], error) {
	if s.done {
		return s.snapshot(), nil
	}

	node, result, err := s.search.advance()
	if err != nil {
		s.done = true
		return s.snapshot(), err
	}
	switch result {
	case outcomeExhausted:
		s.done = true
	case outcomeFound:
		s.stepCount++
		s.current = node
		s.done = true
		s.found = true
	default:
		s.stepCount++
		s.current = node
	}
	return s.snapshot(), nil
}

func (s *Stepper[NodeType]) snapshot() StepSnapshot[NodeType] {
	snap := StepSnapshot[NodeType]{
		Current:   s.current,
		Open:      s.openSetToBoolMap(),
		Expanded:  maps.Clone(s.search.expanded),
		CameFrom:  maps.Clone(s.search.cameFrom),
		Done:      s.done,
		Found:     s.found,
		StepIndex: s.stepCount,
	}
	if s.found {
		snap.Path = s.search.path()
		snap.Cost = s.search.gScore[s.search.goal]
	}
	return snap
}

func (s *Stepper[NodeType]) openSetToBoolMap() map[NodeType]bool {
	m := make(map[NodeType]bool, len(s.search.openSetMap))
	for k := range s.search.openSetMap {
		m[k] = true
	}
	return m
}
