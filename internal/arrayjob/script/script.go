// Package script renders submission scripts and hands them to the scheduler.
package script

import (
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/armadaproject/arrayjob/internal/arrayjob/template"
)

// DefaultTemplate is the text every submission script is rendered from.
const DefaultTemplate = `#!/usr/bin/env zsh

__COOKIES__

__COMMANDS__

__MPIEXEC____CONTROL__ -provide __PROVIDE__ -execute __EXECUTE__ -workdir __WORKDIR__ -package __PACKAGE__ -packsize __PACKSIZE__ -args __ARGS__
`

// MpiExecPrefix starts the control dispatcher through the MPI launcher of the batch environment.
const MpiExecPrefix = "$MPIEXEC $FLAGS_MPI_BATCH "

// Params are the values substituted into a script template.
type Params struct {
	// Template defaults to DefaultTemplate.
	Template     string
	CookieFormat string
	Cookies      []template.Cookie
	Commands     []string
	// MpiSize is the number of ranks of this package. Values above 1 start the dispatcher through MpiExecPrefix.
	MpiSize int
	Control string
	Provide string
	Execute string
	// WorkDir is the directory every rank resolves job directories against.
	WorkDir   string
	PackageId int
	// PackSize is the max rank size, so that every rank recomputes the same package bounds.
	PackSize int
	Args     []string
}

// Render substitutes every placeholder in p.Template. Placeholders missing from the template are ignored.
func Render(p Params) string {
	text := p.Template
	if text == "" {
		text = DefaultTemplate
	}

	cookies := make([]string, len(p.Cookies))
	for i, c := range p.Cookies {
		cookies[i] = FormatCookie(p.CookieFormat, c.Tag, c.Value)
	}
	mpiExec := ""
	if p.MpiSize > 1 {
		mpiExec = MpiExecPrefix
	}

	// A single pass, so substituted values are never themselves scanned for placeholders.
	return strings.NewReplacer(
		"__COOKIES__", strings.Join(cookies, "\n"),
		"__COMMANDS__", strings.Join(p.Commands, "\n"),
		"__MPIEXEC__", mpiExec,
		"__CONTROL__", shellquote.Join(p.Control),
		"__PROVIDE__", shellquote.Join(p.Provide),
		"__EXECUTE__", shellquote.Join(p.Execute),
		"__WORKDIR__", shellquote.Join(p.WorkDir),
		"__PACKAGE__", strconv.Itoa(p.PackageId),
		"__PACKSIZE__", strconv.Itoa(p.PackSize),
		"__ARGS__", shellquote.Join(p.Args...),
	).Replace(text)
}

// FormatCookie renders a cookie line. The first "{}" in format receives the tag and the second the value;
// the indexed forms "{0}" and "{1}" may be used instead.
func FormatCookie(format string, tag string, value string) string {
	s := strings.NewReplacer("{0}", tag, "{1}", value).Replace(format)
	s = strings.Replace(s, "{}", tag, 1)
	return strings.Replace(s, "{}", value, 1)
}
