package gateway

import "testing"

func TestMapStatus(t *testing.T) {
	cases := []struct {
		status     string
		statusCode string
		want       string
	}{
		{"SUCCESS", "", StatusSuccess},
		{"success", "", StatusSuccess},
		{" Paid ", "", StatusSuccess},
		{"FAILED", "", StatusFailed},
		{"FAILURE", "", StatusFailed},
		{"ABORTED", "", StatusFailed},
		{"CANCELLED", "", StatusFailed},
		{"PENDING", "", StatusPending},
		{"INITIATED", "", StatusPending},
		{"", "0000", StatusSuccess},
		{"", "0100", StatusFailed},
		{"", "0200", StatusFailed},
		{"", "0002", StatusPending},
		// Unknown vocabulary must never become SUCCESS.
		{"COMPLETED_MAYBE", "", StatusPending},
		{"", "9999", StatusPending},
		{"", "", StatusPending},
	}
	for _, tc := range cases {
		if got := MapStatus(tc.status, tc.statusCode); got != tc.want {
			t.Errorf("MapStatus(%q, %q) = %q, want %q", tc.status, tc.statusCode, got, tc.want)
		}
	}
}
