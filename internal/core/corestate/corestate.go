package corestate

type Stage string

const (
	StageNotReady Stage = "init"
	StagePreInit  Stage = "pre-init"
	StagePostInit Stage = "post-init"
	StageReady    Stage = "event"
)

const (
	StringsNone string = "none"
)

func NewCorestate(o *CoreState) *CoreState {
	return o
}
