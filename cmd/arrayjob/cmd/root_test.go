package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

func TestRootCmd_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xml")
	tests := map[string]struct {
		args []string
		want arrayerrors.Kind
	}{
		"selector all without database": {[]string{"selector", "parse", "all"}, arrayerrors.KindInvalidArgument},
		"compact non numeric index":     {[]string{"selector", "compact", "1", "x"}, arrayerrors.KindInvalidArgument},
		"missing template":              {[]string{"packages", missing}, arrayerrors.KindUnknown},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cmd := RootCmd()
			cmd.SetArgs(tc.args)
			err := cmd.Execute()
			assert.Error(t, err)
			assert.Equal(t, tc.want, arrayerrors.KindFromError(err))
		})
	}
}
