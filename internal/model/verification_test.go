package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelForStatus(t *testing.T) {
	tests := []struct {
		name   string
		status VerificationStatus
		want   PaymentLabel
	}{
		{name: "verified is paid", status: StatusVerified, want: LabelPaid},
		{name: "pending stays pending", status: StatusPending, want: LabelPending},
		{name: "rejected is unpaid", status: StatusRejected, want: LabelUnpaid},
		{name: "unknown status never reads as paid", status: VerificationStatus("garbage"), want: LabelUnpaid},
		{name: "empty status never reads as paid", status: "", want: LabelUnpaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelForStatus(tt.status))
		})
	}
}
