package provider

import (
	"fmt"
)

const defaultStubJobCount = 200

// Stub supplies a fixed number of jobs named ./Job00001, ./Job00002, ...
// Every job receives a copy of the submit arguments. It is meant for trying out templates and schedulers.
type Stub struct {
	count int
}

func NewStub(count int) *Stub {
	return &Stub{count: count}
}

// StubFactory creates the default 200 job stub.
func StubFactory(_ Options) (Provider, error) {
	return NewStub(defaultStubJobCount), nil
}

func (s *Stub) AllExecutionArgs(submitArgs []string) ([][]string, error) {
	args := make([][]string, s.count)
	for i := range args {
		args[i] = append([]string{}, submitArgs...)
	}
	return args, nil
}

func (s *Stub) AllExecutionPaths(_ []string) ([]string, error) {
	paths := make([]string, s.count)
	for i := range paths {
		paths[i] = fmt.Sprintf("./Job%05d", i+1)
	}
	return paths, nil
}
