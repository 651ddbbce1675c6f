package roster

import "github.com/limaJavier/invigilation/pkg/model"

// indexer interface is designed to give a unique variable to an eligible (teacher, session) pair and vice versa
type indexer interface {
	// Returns the variable of the pair, or false when the pair is not eligible and thus has no variable
	Index(teacher, session int) (int, bool)
	// Returns the pair of a decision variable
	Attributes(variable int) (teacher int, session int)
	// Number of decision variables. They are numbered from 1 in teacher-id then session-id order
	Variables() int
}

func newIndexer(canonical *model.Model) indexer {
	indexer := &sparseIndexer{
		variables: make(map[[2]int]int),
		pairs:     make([][2]int, 0),
	}
	for teacher := range canonical.Teachers {
		for _, session := range canonical.EligibleSessions(teacher) {
			indexer.pairs = append(indexer.pairs, [2]int{teacher, session})
			indexer.variables[[2]int{teacher, session}] = len(indexer.pairs)
		}
	}
	return indexer
}

type sparseIndexer struct {
	variables map[[2]int]int
	pairs     [][2]int
}

func (indexer *sparseIndexer) Index(teacher, session int) (int, bool) {
	variable, ok := indexer.variables[[2]int{teacher, session}]
	return variable, ok
}

func (indexer *sparseIndexer) Attributes(variable int) (int, int) {
	pair := indexer.pairs[variable-1]
	return pair[0], pair[1]
}

func (indexer *sparseIndexer) Variables() int {
	return len(indexer.pairs)
}
