package polly

import (
	"errors"
	"testing"

	"github.com/anzegrcar/lingua-core/core/remote"
	"github.com/aws/smithy-go"
)

func TestNormalizeErrorMapsThrottlingToTransient(t *testing.T) {
	cases := []struct {
		code      string
		transient bool
	}{
		{"ThrottlingException", true},
		{"TooManyRequestsException", true},
		{"ServiceUnavailableException", true},
		{"ServiceFailureException", true},
		{"InvalidSampleRateException", false},
		{"TextLengthExceededException", false},
	}

	for _, tc := range cases {
		err := normalizeError(&smithy.GenericAPIError{Code: tc.code, Message: "boom"})
		if got := remote.IsTransient(err); got != tc.transient {
			t.Fatalf("%s: expected transient=%t, got %t (%v)", tc.code, tc.transient, got, err)
		}
	}
}

func TestNormalizeErrorKeepsCauseChain(t *testing.T) {
	cause := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	err := normalizeError(cause)

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped smithy error, got %v", err)
	}
	if apiErr.ErrorCode() != "ThrottlingException" {
		t.Fatalf("unexpected code %q", apiErr.ErrorCode())
	}
}
