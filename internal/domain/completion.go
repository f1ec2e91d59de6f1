package domain

// CompletionInstruction tells the store how to finalize a trigger after a
// worker finishes executing its job.
type CompletionInstruction int

const (
	NoOp CompletionInstruction = iota
	ReExecuteJob
	SetTriggerComplete
	DeleteTrigger
	SetAllJobTriggersComplete
	SetTriggerError
	SetAllJobTriggersError
)

var completionInstructionNames = map[CompletionInstruction]string{
	NoOp:                      "no_op",
	ReExecuteJob:              "re_execute_job",
	SetTriggerComplete:        "set_trigger_complete",
	DeleteTrigger:             "delete_trigger",
	SetAllJobTriggersComplete: "set_all_job_triggers_complete",
	SetTriggerError:           "set_trigger_error",
	SetAllJobTriggersError:    "set_all_job_triggers_error",
}

func (i CompletionInstruction) String() string {
	if s, ok := completionInstructionNames[i]; ok {
		return s
	}
	return "unknown"
}
