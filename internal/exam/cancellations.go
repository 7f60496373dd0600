package exam

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// CancellationSet holds the question numbers to cancel.
type CancellationSet struct {
	nums map[int]struct{}
}

// ParseCancellations reads a free-form list of question numbers separated by
// any run of Unicode whitespace, commas or semicolons. Tokens that are not
// positive integers are dropped.
func ParseCancellations(s string) CancellationSet {
	set := CancellationSet{nums: make(map[int]struct{})}
	for _, tok := range strings.FieldsFunc(s, isSeparator) {
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 {
			continue
		}
		set.nums[n] = struct{}{}
	}
	return set
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';'
}

// NewCancellationSet builds a set from already parsed numbers.
func NewCancellationSet(nums ...int) CancellationSet {
	set := CancellationSet{nums: make(map[int]struct{}, len(nums))}
	for _, n := range nums {
		if n > 0 {
			set.nums[n] = struct{}{}
		}
	}
	return set
}

func (c CancellationSet) Contains(n int) bool {
	_, ok := c.nums[n]
	return ok
}

func (c CancellationSet) Len() int { return len(c.nums) }

// Sorted returns the numbers in ascending order.
func (c CancellationSet) Sorted() []int {
	out := make([]int, 0, len(c.nums))
	for n := range c.nums {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
