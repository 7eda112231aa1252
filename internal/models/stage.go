package models

// Pipeline stages in display order. The server pushes stage names inside the
// project task blob; the client maps them to indexes so earlier stages render
// as complete and the current one as active.
const (
	StagePreproduction  = "preproduction"
	StageScripting      = "scripting"
	StageCasting        = "casting"
	StageFilming        = "filming"
	StageEditing        = "editing"
	StagePostproduction = "postproduction"
)

var stageOrder = []string{
	StagePreproduction,
	StageScripting,
	StageCasting,
	StageFilming,
	StageEditing,
	StagePostproduction,
}

var stageIndexes = func() map[string]int {
	idx := make(map[string]int, len(stageOrder))
	for i, name := range stageOrder {
		idx[name] = i
	}
	return idx
}()

// StageNames returns the ordered stage vocabulary.
func StageNames() []string {
	cp := make([]string, len(stageOrder))
	copy(cp, stageOrder)
	return cp
}

// StageCount is the number of known pipeline stages.
func StageCount() int {
	return len(stageOrder)
}

// StageIndex maps a server-pushed stage name to its display index. Unknown
// names return -1; callers must ignore them rather than regress the display.
// The server vocabulary is not contractually pinned to this list, so an
// unrecognized name is expected during rollouts, not an error.
func StageIndex(name string) int {
	if idx, ok := stageIndexes[name]; ok {
		return idx
	}
	return -1
}
