package satisfactory

// Stage identifies one step of a decode or encode pass. Stages are reported
// in declaration order.
type Stage uint8

const (
	StageOpen Stage = iota
	StageHeader
	StageDecompress
	StageObjectHeaders
	StageObjectData
	StageDestroyed
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageOpen:
		return "open"
	case StageHeader:
		return "header"
	case StageDecompress:
		return "decompress"
	case StageObjectHeaders:
		return "object-headers"
	case StageObjectData:
		return "object-data"
	case StageDestroyed:
		return "destroyed"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// ProgressFunc receives ordered stage notifications with current/total
// counters. Purely observational; a nil ProgressFunc disables reporting.
type ProgressFunc func(stage Stage, current, total int)

func (f ProgressFunc) report(stage Stage, current, total int) {
	if f != nil {
		f(stage, current, total)
	}
}
