package ident

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestForms(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff([]string{"00123456", "123456"}, Forms("00123456")); diff != "" {
		t.Fatalf("Forms(00123456) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"123456", "00123456"}, Forms(" 123456 ")); diff != "" {
		t.Fatalf("Forms(123456) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"12345678.0", "12345678"}, Forms("12345678.0")); diff != "" {
		t.Fatalf("Forms(float) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"CE-001"}, Forms("CE-001")); diff != "" {
		t.Fatalf("Forms(non numeric) mismatch (-want +got):\n%s", diff)
	}
	if got := Forms("  "); got != nil {
		t.Fatalf("Forms(blank)=%v, want nil", got)
	}
}

func TestEquivalent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want bool
	}{
		{"00123456", "123456", true},
		{"123456", "00123456", true},
		{"12.345.678", "12345678", true},
		{"07654321", "7654321.0", true},
		{"12345678", "12345679", false},
		{"", "", false},
		{"AB123", "ab123", false},
	}
	for _, tc := range cases {
		if got := Equivalent(tc.a, tc.b); got != tc.want {
			t.Fatalf("Equivalent(%q, %q)=%v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()

	input := "12.345.678\n 87654321, 11223344;12345678\n\n00998877"
	want := []string{"12345678", "87654321", "11223344", "00998877"}
	if diff := cmp.Diff(want, ParseList(input)); diff != "" {
		t.Fatalf("ParseList mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"12345678"}, ParseList("12,345,678")); diff != "" {
		t.Fatalf("ParseList thousands mismatch (-want +got):\n%s", diff)
	}
}
