package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseActivePorts(t *testing.T) {
	tests := []struct {
		name string
		cfg  string
		n    int
		want []int
	}{
		{"all", "all", 3, []int{0, 1, 2}},
		{"all single output", "all", 1, []int{0}},
		{"uppercase is not all", "ALL", 3, []int{}},
		{"list", "1,3", 5, []int{0, 2}},
		{"order kept", "3,1", 5, []int{2, 0}},
		{"duplicates collapse", "2,2,1,2", 3, []int{1, 0}},
		{"whitespace", " 1 , 2", 2, []int{0, 1}},
		{"empty", "", 4, []int{}},
		{"no digits", "x,y", 4, []int{}},
		{"out of range", "3,9", 2, []int{}},
		{"zero ignored", "0,1", 2, []int{0}},
		{"first digit only", "10", 10, []int{0}},
		{"digit inside token", "out2", 3, []int{1}},
		{"negative reads digit", "-2", 3, []int{1}},
		{"trailing comma", "1,", 2, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseActivePorts(tt.cfg, tt.n))
		})
	}
}
