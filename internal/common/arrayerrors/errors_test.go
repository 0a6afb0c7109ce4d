package arrayerrors

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindFromError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want Kind
	}{
		"ErrInvalidPackageBounds":           {&ErrInvalidPackageBounds{}, KindInvalidPackageBounds},
		"ErrConfigInvalid":                  {&ErrConfigInvalid{}, KindConfigInvalid},
		"ErrMpiSizeInvalid":                 {&ErrMpiSizeInvalid{}, KindMpiSizeInvalid},
		"ErrOverwriteInvalid":               {&ErrOverwriteInvalid{}, KindOverwriteInvalid},
		"ErrUnsupportedScriptType":          {&ErrUnsupportedScriptType{}, KindUnsupportedScriptType},
		"ErrRankOutOfRange":                 {&ErrRankOutOfRange{}, KindRankOutOfRange},
		"ErrNotFound":                       {&ErrNotFound{}, KindNotFound},
		"ErrInvalidArgument":                {&ErrInvalidArgument{}, KindInvalidArgument},
		"pkg.Error => ErrConfigInvalid":     {errors.WithMessage(&ErrConfigInvalid{}, "foo"), KindConfigInvalid},
		"WithStack => ErrInvalidPackage":    {errors.WithStack(&ErrInvalidPackageBounds{}), KindInvalidPackageBounds},
		"multierror => first wrapped error": {multierror.Append(&ErrConfigInvalid{}, &ErrMpiSizeInvalid{}), KindConfigInvalid},
		"pkg.Error":                         {errors.New("foo"), KindUnknown},
		"nil":                               {nil, KindNone},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindFromError(tc.err))
		})
	}
}

func TestKindExitCode(t *testing.T) {
	assert.Equal(t, 0, KindNone.ExitCode())
	assert.Equal(t, 1, KindUnknown.ExitCode())
	assert.Equal(t, 3, KindConfigInvalid.ExitCode())
	assert.Equal(t, 4, KindInvalidPackageBounds.ExitCode())
	assert.Equal(t, 5, KindUnsupportedScriptType.ExitCode())
}

func TestErrConfigInvalid_Error(t *testing.T) {
	assert.Equal(t, `the required "Batch" element is missing`, (&ErrConfigInvalid{Element: "Batch"}).Error())
	assert.Equal(
		t,
		`the "Cookies" element does not define a "Format" attribute; bar`,
		(&ErrConfigInvalid{Element: "Cookies", Attribute: "Format", Message: "bar"}).Error(),
	)
}

func TestErrInvalidPackageBounds_Error(t *testing.T) {
	err := &ErrInvalidPackageBounds{MaxRankSize: 4, PackageId: 3, TotalJobs: 10, Message: "package is empty"}
	assert.Equal(t, "invalid package bounds for package 3 with max rank size 4 over 10 jobs; package is empty", err.Error())
}
