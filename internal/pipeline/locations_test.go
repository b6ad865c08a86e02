package pipeline

import (
	"reflect"
	"testing"
)

func TestNormalizeLocations(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "sole default", input: "default", want: []string{"default"}},
		{name: "sole default mixed case", input: "Default", want: []string{"default"}},
		{name: "sole default padded", input: "  DEFAULT ", want: []string{"default"}},
		{name: "prefix stripped with trailing default", input: "airpay_23864, airpay_23352, default", want: []string{"23864", "23352"}},
		{name: "default noise in the middle", input: "airpay_1, default, airpay_2", want: []string{"1", "2"}},
		{name: "unprefixed token kept", input: "clinic-9, airpay_5", want: []string{"clinic-9", "5"}},
		{name: "duplicates kept", input: "airpay_7, airpay_7", want: []string{"7", "7"}},
		{name: "prefix match is case sensitive", input: "AIRPAY_9", want: []string{"AIRPAY_9"}},
		// Empty field passes through as a literal empty token; it is not
		// the sentinel and carries no prefix.
		{name: "empty field", input: "", want: []string{""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeLocations(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}
