package pages

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Selector
	}{
		{"1", Selector{Pages: []int{1}}},
		{"2-5", Selector{Pages: []int{2, 3, 4, 5}}},
		{"1,3,5-7", Selector{Pages: []int{1, 3, 5, 6, 7}}},
		{"3,1,2,3", Selector{Pages: []int{1, 2, 3}}},
		{" 2 , 4 ", Selector{Pages: []int{2, 4}}},
		{"all", Selector{All: true}},
		{"ALL", Selector{All: true}},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tt.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{"", "0", "-1", "abc", "1,", "5-2", "1-", "2,x"}

	for _, input := range inputs {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) expected error, got none", input)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		sel  Selector
		want string
	}{
		{Selector{All: true}, "all"},
		{Selector{Pages: []int{1}}, "1"},
		{Selector{Pages: []int{2, 3, 4}}, "2,3,4"},
	}

	for _, tt := range tests {
		if got := tt.sel.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
