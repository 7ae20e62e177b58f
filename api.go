package gridastar

import (
	"container/heap"
	"context"
	"fmt"
	"runtime"

	"github.com/pdrpinto/gridastar/internal"
)

// Graph is generic over node type N.
// N must be comparable so it can be used in maps.
type Graph[NodeType comparable] interface {
	Neighbors(node NodeType) []Neighbor[NodeType]
}

// Neighbor represents a reachable node with a cost.
type Neighbor[NodeType comparable] struct {
	ID   NodeType
	Cost int
}

// Heuristic returns the estimated cost from node a to node b
type Heuristic[NodeType comparable] func(from NodeType, to NodeType) int

// Result contains the outcome of a search
type Result[NodeType comparable] struct {
	Path          []NodeType
	TotalCost     int
	ExpandedNodes int
	Found         bool
}

// Options defines parameters for the search.
type Options struct {
	NumberOfWorkers int
	MaxExpansions   int
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithWorkers specifies how many goroutines FindPaths may run at once.
func WithWorkers(numberOfWorkers int) Option {
	return func(options *Options) { options.NumberOfWorkers = numberOfWorkers }
}

// WithMaxExpansions caps the number of node expansions of a single search.
// Zero means unlimited.
func WithMaxExpansions(limit int) Option {
	return func(options *Options) { options.MaxExpansions = limit }
}

func applyOptions(options []Option) Options {
	searchOptions := Options{
		NumberOfWorkers: runtime.NumCPU(),
	}
	for _, option := range options {
		option(&searchOptions)
	}
	if searchOptions.NumberOfWorkers < 1 {
		searchOptions.NumberOfWorkers = 1
	}
	return searchOptions
}

// Search runs A* from startNode to goalNode.
//
// Nodes leave the frontier when expanded but are not closed: if a cheaper
// route to an already expanded node turns up later, the node is re-inserted
// and expanded again. Frontier ties on f are broken by insertion order.
//
// An unreachable goal is not an error; it yields a Result with Found false.
func Search[NodeType comparable](
	contextObject context.Context,
	graph Graph[NodeType],
	startNode NodeType,
	goalNode NodeType,
	heuristic Heuristic[NodeType],
	options ...Option,
) (Result[NodeType], error) {
	searchOptions := applyOptions(options)
	search := newSearchState(graph, startNode, goalNode, heuristic)

	for {
		if err := contextObject.Err(); err != nil {
			return Result[NodeType]{ExpandedNodes: search.expandedNodes}, err
		}
		if searchOptions.MaxExpansions > 0 && search.expandedNodes >= searchOptions.MaxExpansions && !search.finishing() {
			return Result[NodeType]{ExpandedNodes: search.expandedNodes}, ErrExpansionLimit
		}

		_, state, err := search.advance()
		if err != nil {
			return Result[NodeType]{ExpandedNodes: search.expandedNodes}, err
		}
		switch state {
		case outcomeExhausted:
			return Result[NodeType]{ExpandedNodes: search.expandedNodes}, nil
		case outcomeFound:
			return Result[NodeType]{
				Path:          search.path(),
				TotalCost:     search.gScore[goalNode],
				ExpandedNodes: search.expandedNodes,
				Found:         true,
			}, nil
		}
	}
}

type outcome int

const (
	outcomeExpanded outcome = iota
	outcomeFound
	outcomeExhausted
)

// searchState holds everything one search owns. It is shared by Search and
// Stepper so both walk the frontier identically.
type searchState[NodeType comparable] struct {
	graph     Graph[NodeType]
	start     NodeType
	goal      NodeType
	heuristic Heuristic[NodeType]

	openSet    PriorityQueue[NodeType]
	openSetMap map[NodeType]*PriorityQueueItem[NodeType]
	gScore     map[NodeType]int
	cameFrom   map[NodeType]NodeType
	expanded   map[NodeType]bool

	nextSeq       uint64
	expandedNodes int
}

func newSearchState[NodeType comparable](
	graph Graph[NodeType],
	startNode NodeType,
	goalNode NodeType,
	heuristic Heuristic[NodeType],
) *searchState[NodeType] {
	search := &searchState[NodeType]{
		graph:      graph,
		start:      startNode,
		goal:       goalNode,
		heuristic:  heuristic,
		openSet:    make(PriorityQueue[NodeType], 0),
		openSetMap: make(map[NodeType]*PriorityQueueItem[NodeType]),
		gScore:     map[NodeType]int{startNode: 0},
		cameFrom:   make(map[NodeType]NodeType),
		expanded:   make(map[NodeType]bool),
	}
	heap.Init(&search.openSet)

	h := heuristic(startNode, goalNode)
	search.push(startNode, 0, h)
	return search
}

func (search *searchState[NodeType]) push(node NodeType, g, h int) {
	item := &PriorityQueueItem[NodeType]{
		Node:   node,
		GScore: g,
		HScore: h,
		FCost:  g + h,
		Seq:    search.nextSeq,
	}
	search.nextSeq++
	heap.Push(&search.openSet, item)
	search.openSetMap[node] = item
}

// advance selects the minimum-f frontier node. If it is the goal the search
// is over; otherwise its neighbours are relaxed.
func (search *searchState[NodeType]) advance() (NodeType, outcome, error) {
	var zero NodeType
	if search.openSet.Len() == 0 {
		return zero, outcomeExhausted, nil
	}

	currentItem := heap.Pop(&search.openSet).(*PriorityQueueItem[NodeType])
	currentNode := currentItem.Node
	delete(search.openSetMap, currentNode)

	if currentNode == search.goal {
		return currentNode, outcomeFound, nil
	}

	search.expandedNodes++
	search.expanded[currentNode] = true
	currentG := search.gScore[currentNode]

	for _, neighbor := range search.graph.Neighbors(currentNode) {
		if neighbor.Cost <= 0 {
			return currentNode, outcomeExpanded, fmt.Errorf("%w: %v -> %v costs %d",
				ErrNonPositiveCost, currentNode, neighbor.ID, neighbor.Cost)
		}
		tentativeG := currentG + neighbor.Cost
		if previousG, reached := search.gScore[neighbor.ID]; reached && tentativeG >= previousG {
			continue
		}
		search.gScore[neighbor.ID] = tentativeG
		search.cameFrom[neighbor.ID] = currentNode
		h := search.heuristic(neighbor.ID, search.goal)

		if item, inOpen := search.openSetMap[neighbor.ID]; inOpen {
			item.GScore = tentativeG
			item.HScore = h
			item.FCost = tentativeG + h
			heap.Fix(&search.openSet, item.IndexInQueue)
		} else {
			search.push(neighbor.ID, tentativeG, h)
		}
	}
	return currentNode, outcomeExpanded, nil
}

// finishing reports whether the next advance ends the search without
// expanding anything.
func (search *searchState[NodeType]) finishing() bool {
	return search.openSet.Len() == 0 || search.openSet[0].Node == search.goal
}

func (search *searchState[NodeType]) path() []NodeType {
	return internal.ReconstructPath(search.cameFrom, search.goal, search.start)
}
