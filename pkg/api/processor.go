package api

// RunInfo describes the task a callback fires for.
type RunInfo struct {
	Name    string
	Hosts   int
	Workers int
}

// Processor receives lifecycle callbacks from the runner. HostStarted,
// HostFinished and the subtask callbacks may be called from several worker
// goroutines at once; implementations must be safe for that.
type Processor interface {
	RunStarted(info RunInfo)
	RunFinished(info RunInfo, result *AggregatedResult)
	HostStarted(info RunInfo, host *Host)
	HostFinished(info RunInfo, host *Host, result *MultiResult)
	SubtaskStarted(info RunInfo, host *Host)
	SubtaskFinished(info RunInfo, host *Host, result Outcome)
}
