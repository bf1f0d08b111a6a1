package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// JobsLoggerName scopes the log lines of queued Kick command workers.
const JobsLoggerName = "kick.jobs"

// JobBridge is one resolved Kick logger seen from both sides of the queue:
// glog for the hooks, go-job for the worker runtime.
type JobBridge struct {
	Logger      glog.Logger
	JobProvider job.LoggerProvider
	JobLogger   job.Logger
}

// BridgeJobs resolves the jobs logger with precedence provider > logger > nop
// and adapts the result to go-job.
func BridgeJobs(provider glog.LoggerProvider, logger glog.Logger) JobBridge {
	resolvedProvider, resolvedLogger := glog.Resolve(JobsLoggerName, provider, logger)
	bridge := JobBridge{Logger: resolvedLogger}
	if resolvedProvider != nil {
		bridge.JobProvider = job.GoLoggerProvider(resolvedProvider)
	}
	if resolvedLogger != nil {
		bridge.JobLogger = job.GoLogger(resolvedLogger)
	}
	return bridge
}
