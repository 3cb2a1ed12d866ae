package logger

import (
	"strings"

	"go.uber.org/fx/fxevent"
)

// FxLoggerAdapter routes Fx lifecycle events through this package.
type FxLoggerAdapter struct{}

// NewFxLoggerAdapter creates a new instance of FxLoggerAdapter.
func NewFxLoggerAdapter() fxevent.Logger {
	return &FxLoggerAdapter{}
}

// LogEvent logs events from Fx. Successful wiring is DEBUG; failures are ERROR.
func (l *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		Debugf("OnStart hook executing: %s", shortFunctionName(e.FunctionName))
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			Errorf("OnStart hook failed: %s, error: %v", shortFunctionName(e.FunctionName), e.Err)
		} else {
			Debugf("OnStart hook executed: %s (%s)", shortFunctionName(e.FunctionName), e.Runtime)
		}
	case *fxevent.OnStopExecuting:
		Debugf("OnStop hook executing: %s", shortFunctionName(e.FunctionName))
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			Errorf("OnStop hook failed: %s, error: %v", shortFunctionName(e.FunctionName), e.Err)
		} else {
			Debugf("OnStop hook executed: %s (%s)", shortFunctionName(e.FunctionName), e.Runtime)
		}
	case *fxevent.Supplied:
		if e.Err != nil {
			Errorf("Supply failed for %s: %v", e.TypeName, e.Err)
		} else {
			Debugf("Supplied: %s", e.TypeName)
		}
	case *fxevent.Provided:
		for _, rtype := range e.OutputTypeNames {
			Debugf("Provided: %s", rtype)
		}
		if e.Err != nil {
			Errorf("Provide failed: %v", e.Err)
		}
	case *fxevent.Decorated:
		if e.Err != nil {
			Errorf("Decorate failed: %v", e.Err)
		}
	case *fxevent.Invoking:
		Debugf("Invoking: %s", shortFunctionName(e.FunctionName))
	case *fxevent.Invoked:
		if e.Err != nil {
			Errorf("Invoke failed: %s, error: %v", e.FunctionName, e.Err)
		}
	case *fxevent.Stopping:
		Debugf("Stopping on signal: %s", e.Signal)
	case *fxevent.Stopped:
		if e.Err != nil {
			Errorf("Stop failed: %v", e.Err)
		}
	case *fxevent.RollingBack:
		Errorf("Start failed, rolling back: %v", e.StartErr)
	case *fxevent.RolledBack:
		if e.Err != nil {
			Errorf("Rollback failed: %v", e.Err)
		}
	case *fxevent.Started:
		if e.Err != nil {
			Errorf("Start failed: %v", e.Err)
		} else {
			Infof("Sounding archive started.")
		}
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			Errorf("Logger initialization failed: %v", e.Err)
		} else {
			Debugf("Fx logger initialized: %s", e.ConstructorName)
		}
	}
}

// shortFunctionName strips the anonymous-function suffix (".func1") Fx appends to hook names.
func shortFunctionName(funcName string) string {
	if idx := strings.LastIndex(funcName, ".func"); idx != -1 {
		return funcName[:idx]
	}
	return funcName
}
