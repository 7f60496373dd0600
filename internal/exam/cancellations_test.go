package exam

import (
	"reflect"
	"testing"
)

func TestParseCancellations_MixedSeparators(t *testing.T) {
	got := ParseCancellations("3, 5;;7  9").Sorted()
	want := []int{3, 5, 7, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseCancellations_Empty(t *testing.T) {
	set := ParseCancellations("")
	if set.Len() != 0 {
		t.Errorf("expected empty set, got %v", set.Sorted())
	}
	if got := set.Sorted(); len(got) != 0 {
		t.Errorf("expected no numbers, got %v", got)
	}
}

func TestParseCancellations_DropsInvalidTokens(t *testing.T) {
	got := ParseCancellations("abc -1 0 2").Sorted()
	want := []int{2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseCancellations_DeduplicatesAndSorts(t *testing.T) {
	got := ParseCancellations("\n12\t4,4;12 1 99999999999999999999999").Sorted()
	want := []int{1, 4, 12}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseCancellations_UnicodeWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"3\u00a05", []int{3, 5}},
		{"3\u20037", []int{3, 7}},
		{"1\v2", []int{1, 2}},
		{"4\u30005", []int{4, 5}},
		{"8\u00a0,\u2003;9", []int{8, 9}},
	}
	for _, tt := range tests {
		got := ParseCancellations(tt.in).Sorted()
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestCancellationSet_Contains(t *testing.T) {
	set := NewCancellationSet(1, 20, -3, 0)
	if !set.Contains(1) || !set.Contains(20) {
		t.Error("expected 1 and 20 to be cancelled")
	}
	if set.Contains(0) || set.Contains(-3) || set.Contains(2) {
		t.Error("expected 0, -3 and 2 not to be cancelled")
	}
	if set.Len() != 2 {
		t.Errorf("expected 2 members, got %d", set.Len())
	}
}

func TestCancellationSet_ZeroValue(t *testing.T) {
	var set CancellationSet
	if set.Contains(1) {
		t.Error("zero set should contain nothing")
	}
	if set.Len() != 0 || len(set.Sorted()) != 0 {
		t.Error("zero set should be empty")
	}
}
