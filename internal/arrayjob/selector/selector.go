// Package selector converts between human written job selectors such as "1,3,5-7"
// and the sorted sets of job indices they denote.
package selector

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

// All is the keyword selecting every index of the backing store. It is matched case-insensitively.
const All = "all"

// MaxRangeSpan is the largest number of indices a single range may expand to.
const MaxRangeSpan = 1 << 20

var (
	numberRe = regexp.MustCompile(`[0-9]+`)
	rangeRe  = regexp.MustCompile(`([0-9]+)-([0-9]+)`)
)

// IndexSet is a sorted set of unique non-negative job indices.
type IndexSet []int

// NewIndexSet sorts indices and removes duplicates. The input is not modified.
func NewIndexSet(indices ...int) IndexSet {
	rv := slices.Clone(indices)
	slices.Sort(rv)
	return slices.Compact(rv)
}

// Contains reports whether i is in the set.
func (s IndexSet) Contains(i int) bool {
	j := sort.SearchInts(s, i)
	return j < len(s) && s[j] == i
}

func (s IndexSet) String() string {
	return Compact(s)
}

// Parse expands selector into the indices it denotes.
//
// The keyword "all" selects whatever the all callback returns. Any other selector is scanned for
// standalone integers and inclusive ranges "a-b", where a and b may be given in either order;
// everything else in the string acts as a separator. Integers directly attached to a dash that
// do not form a range (e.g. the "5" in "5-") are ignored.
func Parse(selector string, all func() ([]int, error)) (IndexSet, error) {
	if strings.EqualFold(strings.TrimSpace(selector), All) {
		if all == nil {
			return nil, errors.WithStack(&arrayerrors.ErrInvalidArgument{
				Name:    "selector",
				Value:   selector,
				Message: "no backing store to resolve all indices from",
			})
		}
		indices, err := all()
		if err != nil {
			return nil, errors.WithMessage(err, "error loading all job indices")
		}
		return NewIndexSet(indices...), nil
	}

	values := make([]int, 0)
	for _, loc := range numberRe.FindAllStringIndex(selector, -1) {
		if loc[0] > 0 && selector[loc[0]-1] == '-' {
			continue
		}
		if loc[1] < len(selector) && selector[loc[1]] == '-' {
			continue
		}
		v, err := parseIndex(selector, selector[loc[0]:loc[1]])
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	for _, match := range rangeRe.FindAllStringSubmatch(selector, -1) {
		a, err := parseIndex(selector, match[1])
		if err != nil {
			return nil, err
		}
		b, err := parseIndex(selector, match[2])
		if err != nil {
			return nil, err
		}
		if a > b {
			a, b = b, a
		}
		if b-a >= MaxRangeSpan {
			return nil, errors.WithStack(&arrayerrors.ErrInvalidArgument{
				Name:    "selector",
				Value:   selector,
				Message: fmt.Sprintf("range %s spans more than %d indices", match[0], MaxRangeSpan),
			})
		}
		// b may be math.MaxInt, so i must not step past it.
		for i := a; ; i++ {
			values = append(values, i)
			if i == b {
				break
			}
		}
	}

	return NewIndexSet(values...), nil
}

func parseIndex(selector string, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.WithStack(&arrayerrors.ErrInvalidArgument{
			Name:    "selector",
			Value:   selector,
			Message: "index " + s + " is out of range",
		})
	}
	return v, nil
}

// Compact renders a set as its canonical selector: maximal runs of consecutive indices,
// "a-b" for runs of two or more and "a" for single indices, joined by commas in ascending order.
// Unsorted input or duplicates are normalised first.
func Compact(indices []int) string {
	s := NewIndexSet(indices...)
	if len(s) == 0 {
		return ""
	}

	var sb strings.Builder
	start := s[0]
	prev := s[0]
	flush := func() {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(start))
		if prev != start {
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(prev))
		}
	}
	for _, i := range s[1:] {
		if i == prev+1 {
			prev = i
			continue
		}
		flush()
		start, prev = i, i
	}
	flush()
	return sb.String()
}
