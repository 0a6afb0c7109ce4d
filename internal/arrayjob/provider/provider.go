// Package provider defines the source of truth for the jobs of an array job and
// the package arithmetic every process of a run recomputes independently.
//
// Providers must be pure: calling them twice with the same submit arguments must yield
// the same jobs in the same order, both at submission time and inside every spawned rank.
package provider

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

// Provider converts the arguments passed to the submit command into the full job list.
type Provider interface {
	// AllExecutionArgs returns one argument vector per job, in a stable order.
	AllExecutionArgs(submitArgs []string) ([][]string, error)
	// AllExecutionPaths returns the execution path of each job, in the same order as AllExecutionArgs.
	AllExecutionPaths(submitArgs []string) ([]string, error)
}

// Package is the half-open range [MinId, MaxId) of job indices submitted together.
type Package struct {
	Id    int `yaml:"id"`
	MinId int `yaml:"minId"`
	MaxId int `yaml:"maxId"`
}

// Size is the number of ranks required to run the package.
func (p Package) Size() int {
	return p.MaxId - p.MinId
}

func (p Package) String() string {
	return fmt.Sprintf("package %d [%d, %d)", p.Id, p.MinId, p.MaxId)
}

// Bounds computes the job range of package packageId when at most maxRankSize jobs go into one package.
func Bounds(totalJobs int, maxRankSize int, packageId int) (Package, error) {
	if maxRankSize < 1 || packageId < 0 {
		return Package{}, errors.WithStack(&arrayerrors.ErrInvalidPackageBounds{
			MaxRankSize: maxRankSize,
			PackageId:   packageId,
			TotalJobs:   totalJobs,
			Message:     "max rank size must be positive and package id must not be negative",
		})
	}

	minId := packageId * maxRankSize
	maxId := (packageId + 1) * maxRankSize
	if maxId > totalJobs {
		maxId = totalJobs
	}
	if maxId <= minId {
		return Package{}, errors.WithStack(&arrayerrors.ErrInvalidPackageBounds{
			MaxRankSize: maxRankSize,
			PackageId:   packageId,
			TotalJobs:   totalJobs,
			Message:     "package contains no jobs",
		})
	}
	return Package{Id: packageId, MinId: minId, MaxId: maxId}, nil
}

// ArgsByPackage returns the argument vectors of the jobs in package packageId,
// each with the job's execution path prepended as element 0.
// The returned vectors are copies; the provider's slices are never modified.
func ArgsByPackage(p Provider, submitArgs []string, maxRankSize int, packageId int) ([][]string, error) {
	if maxRankSize < 1 || packageId < 0 {
		return nil, errors.WithStack(&arrayerrors.ErrInvalidPackageBounds{
			MaxRankSize: maxRankSize,
			PackageId:   packageId,
			Message:     "max rank size must be positive and package id must not be negative",
		})
	}

	args, paths, err := jobSet(p, submitArgs)
	if err != nil {
		return nil, err
	}

	pkg, err := Bounds(len(paths), maxRankSize, packageId)
	if err != nil {
		return nil, err
	}

	rv := make([][]string, 0, pkg.Size())
	for i := pkg.MinId; i < pkg.MaxId; i++ {
		argv := make([]string, 0, len(args[i])+1)
		argv = append(argv, paths[i])
		argv = append(argv, args[i]...)
		rv = append(rv, argv)
	}
	return rv, nil
}

// PackageSize returns the number of ranks package packageId requires.
// This is maxRankSize for every package but the last, which may be smaller.
func PackageSize(p Provider, submitArgs []string, maxRankSize int, packageId int) (int, error) {
	args, err := ArgsByPackage(p, submitArgs, maxRankSize, packageId)
	if err != nil {
		return 0, err
	}
	return len(args), nil
}

// TotalJobCount returns the number of jobs described by submitArgs.
func TotalJobCount(p Provider, submitArgs []string) (int, error) {
	paths, err := p.AllExecutionPaths(submitArgs)
	if err != nil {
		return 0, errors.WithMessage(err, "error getting execution paths")
	}
	return len(paths), nil
}

// Plan returns every package of the run, in order.
func Plan(p Provider, submitArgs []string, maxRankSize int) ([]Package, error) {
	if maxRankSize < 1 {
		return nil, errors.WithStack(&arrayerrors.ErrInvalidPackageBounds{
			MaxRankSize: maxRankSize,
			Message:     "max rank size must be positive",
		})
	}
	total, err := TotalJobCount(p, submitArgs)
	if err != nil {
		return nil, err
	}
	packages := make([]Package, 0, (total+maxRankSize-1)/maxRankSize)
	for packageId := 0; packageId*maxRankSize < total; packageId++ {
		pkg, err := Bounds(total, maxRankSize, packageId)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func jobSet(p Provider, submitArgs []string) ([][]string, []string, error) {
	args, err := p.AllExecutionArgs(submitArgs)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "error getting execution arguments")
	}
	paths, err := p.AllExecutionPaths(submitArgs)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "error getting execution paths")
	}
	if len(args) != len(paths) {
		return nil, nil, errors.WithStack(&arrayerrors.ErrInvalidPackageBounds{
			TotalJobs: len(paths),
			Message:   fmt.Sprintf("got %d argument vectors but %d execution paths", len(args), len(paths)),
		})
	}
	return args, paths, nil
}
