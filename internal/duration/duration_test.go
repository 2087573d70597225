package duration

import (
	"errors"
	"testing"
)

func TestAdd(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want string
		bad  bool
	}{
		{"00:45:00", "00:30:00", "01:15:00", false},
		{"", "00:20:00", "00:20:00", false},
		{"", "", "00:00:00", false},
		{"0:20:00", "", "00:20:00", false},
		{"23:30:00", "01:45:30", "25:15:30", false},
		{"45:00", "00:10:00", "00:55:00", false},
		{"00:10:05.000", "00:00:05", "00:10:10", false},
		{"abc", "00:20:00", "00:20:00", true},
		{"00:20:00", "1:2:3:4", "00:20:00", true},
		{"xx", "yy", "00:00:00", true},
		{"nan", "00:05:00", "00:05:00", false},
	}

	for _, tc := range cases {
		got, err := Add(tc.a, tc.b)
		if got != tc.want {
			t.Fatalf("Add(%q, %q)=%q, want %q", tc.a, tc.b, got, tc.want)
		}
		if gotBad := errors.Is(err, ErrMalformed); gotBad != tc.bad {
			t.Fatalf("Add(%q, %q) malformed=%v, want %v (err=%v)", tc.a, tc.b, gotBad, tc.bad, err)
		}
	}
}

func TestAddCommutativeAndAssociative(t *testing.T) {
	t.Parallel()

	values := []string{"00:00:00", "0:01:59", "00:45:00", "12:00:01", "99:59:59", "00:00:30"}
	for _, a := range values {
		for _, b := range values {
			ab, _ := Add(a, b)
			ba, _ := Add(b, a)
			if ab != ba {
				t.Fatalf("Add(%q,%q)=%q but Add(%q,%q)=%q", a, b, ab, b, a, ba)
			}
			for _, c := range values {
				left, _ := Add(ab, c)
				bc, _ := Add(b, c)
				right, _ := Add(a, bc)
				if left != right {
					t.Fatalf("(%s+%s)+%s=%s, %s+(%s+%s)=%s", a, b, c, left, a, b, c, right)
				}
			}
		}
	}
}

func TestParseRejectsNegative(t *testing.T) {
	t.Parallel()

	if _, ok, err := Parse("-1:00:00"); ok || !errors.Is(err, ErrMalformed) {
		t.Fatalf("Parse negative ok=%v err=%v", ok, err)
	}
}
