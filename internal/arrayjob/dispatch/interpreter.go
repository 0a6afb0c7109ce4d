package dispatch

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

var interpreters = map[string]string{
	".sh":  "bash",
	".ps1": "pwsh",
	".py":  "python3",
}

// Interpreter returns the interpreter that runs the job executable at path.
func Interpreter(path string) (string, error) {
	ext := filepath.Ext(path)
	if interpreter, ok := interpreters[ext]; ok {
		return interpreter, nil
	}
	return "", errors.WithStack(&arrayerrors.ErrUnsupportedScriptType{Path: path, Extension: ext})
}
