package template

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

func TestLoad(t *testing.T) {
	t.Setenv("JOB_ROOT", "/scratch/jobs")

	jt, err := Load("testdata/template.xml")
	require.NoError(t, err)

	assert.Equal(t, "arrayjob-control", jt.ControlScript)
	assert.Equal(t, "simdb", jt.ProvideScript)
	assert.Equal(t, "/scratch/jobs/run.sh", jt.ExecuteScript)
	assert.Equal(t, "#SBATCH --{}={}", jt.CookieFormat)
	assert.Equal(t, "ntasks", jt.MpiTag)
	assert.Equal(t, []Cookie{
		{Tag: "job-name", Value: "mocsim"},
		{Tag: "ntasks", Value: "48"},
		{Tag: "time", Value: "24:00:00"},
	}, jt.Cookies)
	assert.Equal(t, []string{"module purge", "module load openmpi"}, jt.Commands)

	size, err := jt.MpiSize()
	require.NoError(t, err)
	assert.Equal(t, 48, size)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.xml")
	assert.Error(t, err)
}

func TestParse_ReportsEveryMissingPart(t *testing.T) {
	doc := `<JobTemplate>
	<Control/>
	<Execute Script="run.sh"/>
	<Batch>
		<Cookies MpiProcessTag="ntasks">
			<Cookie Tag="ntasks"/>
		</Cookies>
	</Batch>
</JobTemplate>`

	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))

	var missing []arrayerrors.ErrConfigInvalid
	for _, e := range merr.Errors {
		var cfgErr *arrayerrors.ErrConfigInvalid
		require.True(t, errors.As(e, &cfgErr), e.Error())
		missing = append(missing, *cfgErr)
	}
	assert.Equal(t, []arrayerrors.ErrConfigInvalid{
		{Element: "Control", Attribute: "Script"},
		{Element: "Provide"},
		{Element: "Cookies", Attribute: "Format"},
		{Element: "Cookie", Attribute: "Value"},
		{Element: "Commands"},
	}, missing)
	assert.Equal(t, arrayerrors.KindConfigInvalid, arrayerrors.KindFromError(err))
}

func TestParse_MalformedDocument(t *testing.T) {
	_, err := Parse(strings.NewReader("<JobTemplate>"))
	assert.Equal(t, arrayerrors.KindConfigInvalid, arrayerrors.KindFromError(err))
}

func TestParse_MpiSize(t *testing.T) {
	tests := map[string]struct {
		cookies string
		valid   bool
	}{
		"positive":      {`<Cookie Tag="ntasks" Value="4"/>`, true},
		"zero":          {`<Cookie Tag="ntasks" Value="0"/>`, false},
		"negative":      {`<Cookie Tag="ntasks" Value="-2"/>`, false},
		"not a number":  {`<Cookie Tag="ntasks" Value="four"/>`, false},
		"no mpi cookie": {`<Cookie Tag="time" Value="1:00:00"/>`, false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			doc := `<JobTemplate>
	<Control Script="c"/><Provide Script="p"/><Execute Script="e"/>
	<Batch>
		<Cookies Format="#SBATCH --{}={}" MpiProcessTag="ntasks">` + tc.cookies + `</Cookies>
		<Commands/>
	</Batch>
</JobTemplate>`
			jt, err := Parse(strings.NewReader(doc))
			if tc.valid {
				require.NoError(t, err)
				assert.NotNil(t, jt)
				return
			}
			assert.Equal(t, arrayerrors.KindMpiSizeInvalid, arrayerrors.KindFromError(err))
		})
	}
}

func TestCookiesWithMpiSize(t *testing.T) {
	jt := &JobTemplate{
		MpiTag: "ntasks",
		Cookies: []Cookie{
			{Tag: "job-name", Value: "mocsim"},
			{Tag: "ntasks", Value: "48"},
		},
	}

	cookies := jt.CookiesWithMpiSize(3)
	assert.Equal(t, []Cookie{{Tag: "job-name", Value: "mocsim"}, {Tag: "ntasks", Value: "3"}}, cookies)
	assert.Equal(t, "48", jt.Cookies[1].Value)

	size, err := jt.MpiSize()
	require.NoError(t, err)
	assert.Equal(t, 48, size)
}
