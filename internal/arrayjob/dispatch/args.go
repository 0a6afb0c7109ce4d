// Package dispatch runs inside every rank of a package: it recomputes the package's job list from
// the same provider and submit arguments used at submission time, picks the job of its own rank
// and starts the job executable.
package dispatch

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

// Args are the arguments the submission script passes to the control dispatcher.
type Args struct {
	Provide string
	Execute string
	// WorkDir is the directory the provider resolves job directories against. Optional.
	WorkDir   string
	PackageId int
	PackSize  int
	// Forwarded are the submit arguments, passed to the provider unchanged.
	Forwarded []string
}

// ParseArgs parses "-provide <ref> -execute <path> [-workdir <dir>] -package <n> -packsize <n> -args ...".
// Everything after -args is forwarded verbatim, including tokens that look like flags.
// Flags may also be written with two dashes.
func ParseArgs(argv []string) (Args, error) {
	var args Args
	seen := make(map[string]bool)
	hasArgs := false

loop:
	for i := 0; i < len(argv); i++ {
		name := strings.TrimLeft(argv[i], "-")
		if !strings.HasPrefix(argv[i], "-") {
			return Args{}, invalidArgument(argv[i], argv[i], "unexpected argument")
		}
		if name == "args" {
			args.Forwarded = append([]string{}, argv[i+1:]...)
			hasArgs = true
			break loop
		}
		if i+1 >= len(argv) {
			return Args{}, invalidArgument(name, "", "missing value")
		}
		value := argv[i+1]
		i++

		var err error
		switch name {
		case "provide":
			args.Provide = value
		case "execute":
			args.Execute = value
		case "workdir":
			args.WorkDir = value
		case "package":
			args.PackageId, err = parseInt(name, value)
		case "packsize":
			args.PackSize, err = parseInt(name, value)
		default:
			return Args{}, invalidArgument(name, value, "unknown flag")
		}
		if err != nil {
			return Args{}, err
		}
		seen[name] = true
	}

	for _, name := range []string{"provide", "execute", "package", "packsize"} {
		if !seen[name] {
			return Args{}, invalidArgument(name, "", "required flag not provided")
		}
	}
	if !hasArgs {
		return Args{}, invalidArgument("args", "", "required flag not provided")
	}
	return args, nil
}

// Argv is the inverse of ParseArgs.
func (a Args) Argv() []string {
	argv := []string{"-provide", a.Provide, "-execute", a.Execute}
	if a.WorkDir != "" {
		argv = append(argv, "-workdir", a.WorkDir)
	}
	argv = append(argv,
		"-package", strconv.Itoa(a.PackageId),
		"-packsize", strconv.Itoa(a.PackSize),
		"-args",
	)
	return append(argv, a.Forwarded...)
}

func parseInt(name string, value string) (int, error) {
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, invalidArgument(name, value, "not an integer")
	}
	return i, nil
}

func invalidArgument(name string, value string, message string) error {
	return errors.WithStack(&arrayerrors.ErrInvalidArgument{Name: name, Value: value, Message: message})
}
