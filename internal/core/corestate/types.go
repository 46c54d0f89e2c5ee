package corestate

// CoreState is the meta-information vital to the node: its identity,
// version, current init stage and the directories it works in.
type CoreState struct {
	UUID32        string
	UUID32DirName string

	StartTimestampUnix int64

	NodeBinName string
	NodeVersion string

	Stage Stage

	NodePath string
	MetaDir  string
	RunDir   string
}
