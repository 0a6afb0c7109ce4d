package arrayjob

import (
	"github.com/armadaproject/arrayjob/internal/arrayjob/provider"
	"github.com/armadaproject/arrayjob/internal/arrayjob/script"
)

// ScriptSequence yields the script of every package in order. It is not restartable;
// call ArrayJob.Scripts again to re-drive the provider from scratch.
//
//	scripts := job.Scripts()
//	for scripts.Next() {
//		submit(scripts.Script())
//	}
//	if err := scripts.Err(); err != nil {
//		...
//	}
type ScriptSequence struct {
	job       *ArrayJob
	started   bool
	done      bool
	remaining int
	packageId int
	pkg       provider.Package
	script    *script.JobScript
	err       error
}

// Scripts returns a sequence over the scripts of all packages. The provider is not consulted until the first call to Next.
func (a *ArrayJob) Scripts() *ScriptSequence {
	return &ScriptSequence{job: a}
}

// Next renders the next script. It returns false once every job is covered or an error occurred.
func (s *ScriptSequence) Next() bool {
	if s.done {
		return false
	}
	a := s.job
	if !s.started {
		s.started = true
		total, err := provider.TotalJobCount(a.provider, a.submitArgs)
		if err != nil {
			return s.fail(err)
		}
		s.remaining = total
	}
	if s.remaining <= 0 {
		s.done = true
		return false
	}

	size, err := provider.PackageSize(a.provider, a.submitArgs, a.maxRankSize, s.packageId)
	if err != nil {
		return s.fail(err)
	}
	js, err := a.GenerateScript(s.packageId, &size)
	if err != nil {
		return s.fail(err)
	}

	minId := s.packageId * a.maxRankSize
	s.pkg = provider.Package{Id: s.packageId, MinId: minId, MaxId: minId + size}
	s.script = js
	s.remaining -= size
	s.packageId++
	return true
}

func (s *ScriptSequence) fail(err error) bool {
	s.err = err
	s.done = true
	s.script = nil
	return false
}

// Script is the script rendered by the last successful call to Next.
func (s *ScriptSequence) Script() *script.JobScript {
	return s.script
}

// Package is the package the current script covers.
func (s *ScriptSequence) Package() provider.Package {
	return s.pkg
}

func (s *ScriptSequence) Err() error {
	return s.err
}
