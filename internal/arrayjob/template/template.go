// Package template loads job templates: the static description of which scripts take part
// in an array job and which scheduler cookies and setup commands go into every submission script.
package template

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

// Cookie is a scheduler directive, rendered into the script through the template's cookie format.
type Cookie struct {
	Tag   string `yaml:"tag"`
	Value string `yaml:"value"`
}

// JobTemplate is a validated job template. Values are never modified after loading;
// per-package variations are derived as copies (see CookiesWithMpiSize).
type JobTemplate struct {
	// Reference to the control dispatcher started by the scheduler.
	ControlScript string
	// Reference to the provider, resolved through the provider registry.
	ProvideScript string
	// The job entry point run once per rank.
	ExecuteScript string
	// Format of a cookie line, e.g. "#SBATCH --{}={}".
	CookieFormat string
	// Tag of the cookie that carries the number of MPI ranks.
	MpiTag   string
	Cookies  []Cookie
	Commands []string
}

type xmlDocument struct {
	XMLName xml.Name
	Control *xmlScript `xml:"Control"`
	Provide *xmlScript `xml:"Provide"`
	Execute *xmlScript `xml:"Execute"`
	Batch   *xmlBatch  `xml:"Batch"`
}

type xmlScript struct {
	Script *string `xml:"Script,attr"`
}

type xmlBatch struct {
	Cookies  *xmlCookies  `xml:"Cookies"`
	Commands *xmlCommands `xml:"Commands"`
}

type xmlCookies struct {
	Format        *string     `xml:"Format,attr"`
	MpiProcessTag *string     `xml:"MpiProcessTag,attr"`
	Cookies       []xmlCookie `xml:"Cookie"`
}

type xmlCookie struct {
	Tag   *string `xml:"Tag,attr"`
	Value *string `xml:"Value,attr"`
}

type xmlCommands struct {
	Commands []xmlCommand `xml:"Command"`
}

type xmlCommand struct {
	Value *string `xml:"Value,attr"`
}

// Load reads and validates the job template at path.
func Load(path string) (*JobTemplate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening job template %s", path)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid job template %s", path)
	}
	return t, nil
}

// Parse reads and validates a job template. Every missing element or attribute is reported;
// the mpi size is only checked once the template is otherwise complete.
func Parse(r io.Reader) (*JobTemplate, error) {
	doc := &xmlDocument{}
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.WithStack(&arrayerrors.ErrConfigInvalid{
			Element: "JobTemplate",
			Message: err.Error(),
		})
	}

	var result *multierror.Error
	t := &JobTemplate{}

	t.ControlScript, result = scriptPath(doc.Control, "Control", result)
	t.ProvideScript, result = scriptPath(doc.Provide, "Provide", result)
	t.ExecuteScript, result = scriptPath(doc.Execute, "Execute", result)

	if doc.Batch == nil {
		result = multierror.Append(result, configError("Batch", ""))
	} else {
		if doc.Batch.Cookies == nil {
			result = multierror.Append(result, configError("Cookies", ""))
		} else {
			cookies := doc.Batch.Cookies
			if cookies.Format == nil {
				result = multierror.Append(result, configError("Cookies", "Format"))
			} else {
				t.CookieFormat = *cookies.Format
			}
			if cookies.MpiProcessTag == nil {
				result = multierror.Append(result, configError("Cookies", "MpiProcessTag"))
			} else {
				t.MpiTag = *cookies.MpiProcessTag
			}
			t.Cookies = make([]Cookie, 0, len(cookies.Cookies))
			for _, c := range cookies.Cookies {
				if c.Tag == nil {
					result = multierror.Append(result, configError("Cookie", "Tag"))
					continue
				}
				if c.Value == nil {
					result = multierror.Append(result, configError("Cookie", "Value"))
					continue
				}
				t.Cookies = append(t.Cookies, Cookie{Tag: *c.Tag, Value: *c.Value})
			}
		}
		if doc.Batch.Commands == nil {
			result = multierror.Append(result, configError("Commands", ""))
		} else {
			t.Commands = make([]string, 0, len(doc.Batch.Commands.Commands))
			for _, c := range doc.Batch.Commands.Commands {
				if c.Value == nil {
					result = multierror.Append(result, configError("Command", "Value"))
					continue
				}
				t.Commands = append(t.Commands, *c.Value)
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	if _, err := t.MpiSize(); err != nil {
		return nil, err
	}
	return t, nil
}

func scriptPath(node *xmlScript, element string, result *multierror.Error) (string, *multierror.Error) {
	if node == nil {
		return "", multierror.Append(result, configError(element, ""))
	}
	if node.Script == nil {
		return "", multierror.Append(result, configError(element, "Script"))
	}
	return os.ExpandEnv(*node.Script), result
}

func configError(element string, attribute string) error {
	return errors.WithStack(&arrayerrors.ErrConfigInvalid{Element: element, Attribute: attribute})
}

// MpiSize is the value of the mpi cookie, i.e. the maximum number of ranks per package.
func (t *JobTemplate) MpiSize() (int, error) {
	for _, c := range t.Cookies {
		if c.Tag != t.MpiTag {
			continue
		}
		size, err := strconv.Atoi(c.Value)
		if err != nil {
			return 0, errors.WithStack(&arrayerrors.ErrMpiSizeInvalid{
				Tag:     t.MpiTag,
				Value:   c.Value,
				Message: "not an integer",
			})
		}
		if size < 1 {
			return 0, errors.WithStack(&arrayerrors.ErrMpiSizeInvalid{
				Tag:     t.MpiTag,
				Value:   c.Value,
				Message: "the mpi size must be a positive integer",
			})
		}
		return size, nil
	}
	return 0, errors.WithStack(&arrayerrors.ErrMpiSizeInvalid{
		Tag:     t.MpiTag,
		Message: "no cookie carries the mpi tag",
	})
}

// CookiesWithMpiSize returns a copy of the cookies in which every mpi cookie carries size.
func (t *JobTemplate) CookiesWithMpiSize(size int) []Cookie {
	cookies := make([]Cookie, len(t.Cookies))
	for i, c := range t.Cookies {
		if c.Tag == t.MpiTag {
			c.Value = strconv.Itoa(size)
		}
		cookies[i] = c
	}
	return cookies
}
