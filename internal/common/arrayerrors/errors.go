// Package arrayerrors contains the error kinds returned by the array-job packager.
// Callers should not compare error strings; use errors.As against the types defined here,
// or KindFromError to classify an arbitrary error chain.
//
// If multiple errors occur in some function (e.g., several missing template attributes), that
// function should return an error of type multierror.Error from package
// github.com/hashicorp/go-multierror that encapsulates those individual errors.
package arrayerrors

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Kind enumerates the classes of errors produced by this module.
type Kind int

const (
	KindUnknown Kind = iota
	KindNone
	KindInvalidPackageBounds
	KindConfigInvalid
	KindMpiSizeInvalid
	KindUnsupportedScriptType
	KindOverwriteInvalid
	KindInvalidArgument
	KindNotFound
	KindRankOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindInvalidPackageBounds:
		return "InvalidPackageBounds"
	case KindConfigInvalid:
		return "ConfigInvalid"
	case KindMpiSizeInvalid:
		return "MpiSizeInvalid"
	case KindUnsupportedScriptType:
		return "UnsupportedScriptType"
	case KindOverwriteInvalid:
		return "OverwriteInvalid"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindNotFound:
		return "NotFound"
	case KindRankOutOfRange:
		return "RankOutOfRange"
	default:
		return "Unknown"
	}
}

// ExitCode is the process exit code the command line tools use for errors of this kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindNone:
		return 0
	case KindInvalidArgument, KindNotFound:
		return 2
	case KindConfigInvalid, KindMpiSizeInvalid, KindOverwriteInvalid:
		return 3
	case KindInvalidPackageBounds, KindRankOutOfRange:
		return 4
	case KindUnsupportedScriptType:
		return 5
	default:
		return 1
	}
}

// ErrInvalidPackageBounds is returned when a package cannot be carved out of the job list,
// e.g., because the package id lies past the last job or the max rank size is not positive.
type ErrInvalidPackageBounds struct {
	MaxRankSize int
	PackageId   int
	TotalJobs   int
	Message     string
}

func (err *ErrInvalidPackageBounds) Error() string {
	s := fmt.Sprintf("invalid package bounds for package %d with max rank size %d over %d jobs", err.PackageId, err.MaxRankSize, err.TotalJobs)
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// ErrConfigInvalid is returned when a required element or attribute of the job template is absent.
// Attribute is omitted from the error message if empty, in which case the element itself is missing.
type ErrConfigInvalid struct {
	Element   string // e.g. "Cookies"
	Attribute string // e.g. "Format"
	Message   string
}

func (err *ErrConfigInvalid) Error() (s string) {
	if err.Attribute != "" {
		s = fmt.Sprintf("the %q element does not define a %q attribute", err.Element, err.Attribute)
	} else {
		s = fmt.Sprintf("the required %q element is missing", err.Element)
	}
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return
}

// ErrMpiSizeInvalid is returned when the cookie carrying the MPI rank count is missing
// or its value is not a positive integer.
type ErrMpiSizeInvalid struct {
	Tag     string
	Value   string
	Message string
}

func (err *ErrMpiSizeInvalid) Error() string {
	s := fmt.Sprintf("value %q of the mpi cookie %q is not a valid mpi size", err.Value, err.Tag)
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// ErrOverwriteInvalid is returned when an explicit mpi size override is smaller than 1.
type ErrOverwriteInvalid struct {
	Value int
}

func (err *ErrOverwriteInvalid) Error() string {
	return fmt.Sprintf("mpi size override %d cannot be smaller than 1", err.Value)
}

// ErrUnsupportedScriptType is returned when no interpreter is known for a job executable.
type ErrUnsupportedScriptType struct {
	Path      string
	Extension string
}

func (err *ErrUnsupportedScriptType) Error() string {
	return fmt.Sprintf("the script extension %q of %s is not supported", err.Extension, err.Path)
}

// ErrRankOutOfRange is returned when a rank has no slot in the package it was started for.
type ErrRankOutOfRange struct {
	Rank        int
	PackageId   int
	PackageSize int
}

func (err *ErrRankOutOfRange) Error() string {
	return fmt.Sprintf("rank %d has no job in package %d of size %d", err.Rank, err.PackageId, err.PackageSize)
}

// ErrNotFound is a generic error to be returned whenever some resource isn't found.
// Type and Message are optional and are omitted from the error message if not provided.
type ErrNotFound struct {
	Type    string // Resource type, e.g., "provider"
	Value   string // Resource name, e.g., "simdb"
	Message string // An optional message to include in the error message
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "packsize"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// KindFromError maps error types to error kinds.
// Uses errors.As to look through the chain of errors, as opposed to just considering the topmost error in the chain.
// For a multierror, the kind of the first wrapped error is returned.
func KindFromError(err error) Kind {
	if err == nil {
		return KindNone
	}

	{
		var e *multierror.Error
		if errors.As(err, &e) && len(e.Errors) > 0 {
			return KindFromError(e.Errors[0])
		}
	}

	// Using {} scopes just to re-use the "e" variable name for each case.
	{
		var e *ErrInvalidPackageBounds
		if errors.As(err, &e) {
			return KindInvalidPackageBounds
		}
	}
	{
		var e *ErrConfigInvalid
		if errors.As(err, &e) {
			return KindConfigInvalid
		}
	}
	{
		var e *ErrMpiSizeInvalid
		if errors.As(err, &e) {
			return KindMpiSizeInvalid
		}
	}
	{
		var e *ErrOverwriteInvalid
		if errors.As(err, &e) {
			return KindOverwriteInvalid
		}
	}
	{
		var e *ErrUnsupportedScriptType
		if errors.As(err, &e) {
			return KindUnsupportedScriptType
		}
	}
	{
		var e *ErrRankOutOfRange
		if errors.As(err, &e) {
			return KindRankOutOfRange
		}
	}
	{
		var e *ErrNotFound
		if errors.As(err, &e) {
			return KindNotFound
		}
	}
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return KindInvalidArgument
		}
	}

	return KindUnknown
}
