package pipeline

// Stage is the runtime state of one Project Workflow.
type Stage string

const (
	StagePending       Stage = "Pending"
	StageProvisioning  Stage = "Provisioning"
	StageInstrumenting Stage = "Instrumenting"
	StageConverting    Stage = "Converting"
	StageRendering     Stage = "Rendering"
	StageVerifying     Stage = "Verifying"
	StageDone          Stage = "Done"
	StageFailed        Stage = "Failed"
)
