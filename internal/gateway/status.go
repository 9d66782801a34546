package gateway

import "strings"

// Internal transaction statuses. The gateway's vocabulary is wider and
// collapses onto these three.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusPending = "PENDING"
)

// MapStatus collapses the gateway's status word and numeric status code onto
// the internal three-state model. The mapping is deliberately exhaustive:
// anything unrecognised lands on PENDING so a vocabulary change on the
// gateway side can never fabricate a SUCCESS.
func MapStatus(status, statusCode string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCESS", "SUCCESSFUL", "PAID":
		return StatusSuccess
	case "FAILED", "FAILURE", "ABORTED", "REJECTED", "CANCELLED", "DECLINED", "EXPIRED":
		return StatusFailed
	case "PENDING", "INITIATED", "IN_PROCESS", "NOT COMPLETED", "CHALLAN_GENERATED":
		return StatusPending
	}

	switch strings.TrimSpace(statusCode) {
	case "0000":
		return StatusSuccess
	case "0100", "0200", "0300", "0999":
		return StatusFailed
	case "0001", "0002", "0003":
		return StatusPending
	}

	return StatusPending
}
