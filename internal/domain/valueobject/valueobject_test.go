package valueobject_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("apply payment: %w", valueobject.ErrAlreadySettled)

	assert.True(t, errors.Is(err, valueobject.ErrAlreadySettled))
	assert.True(t, errors.Is(err, valueobject.ErrInvalidInput))
	assert.False(t, errors.Is(err, valueobject.ErrScheduleExists))
	assert.False(t, errors.Is(err, valueobject.ErrNotFound))
	assert.Equal(t, valueobject.KindInvalidInput, valueobject.KindOf(err))

	nf := valueobject.NotFound("application %s", "abc")
	assert.Equal(t, "application abc not found", nf.Error())
	assert.True(t, errors.Is(nf, valueobject.ErrNotFound))
	assert.Equal(t, valueobject.KindNotFound, valueobject.KindOf(nf))

	assert.Equal(t, valueobject.KindUnknown, valueobject.KindOf(errors.New("boom")))
	assert.Equal(t, valueobject.KindUnknown, valueobject.KindOf(valueobject.ErrConcurrentModification))
	assert.True(t, errors.Is(valueobject.ErrInvalidStatusTransition, valueobject.ErrInvalidState))
}

func TestApplicationStatus_Parse(t *testing.T) {
	for _, s := range valueobject.AllApplicationStatuses() {
		parsed, err := valueobject.NewApplicationStatus(s.String())
		require.NoError(t, err)
		assert.True(t, parsed.Equal(s))
	}

	_, err := valueobject.NewApplicationStatus("APPROVED")
	assert.True(t, errors.Is(err, valueobject.ErrInvalidInput))
}

func TestApplicationStatus_CanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to valueobject.ApplicationStatus
		want     bool
	}{
		{valueobject.StatusPendingRCPU, valueobject.StatusPendingL1, true},
		{valueobject.StatusPendingL1, valueobject.StatusL1Approved, true},
		{valueobject.StatusPendingL1, valueobject.StatusPendingL2, true},
		{valueobject.StatusPendingL2, valueobject.StatusL2Approved, true},
		{valueobject.StatusPendingL2, valueobject.StatusPendingL3, true},
		{valueobject.StatusPendingL3, valueobject.StatusL3Approved, true},
		{valueobject.StatusPendingL1, valueobject.StatusRejected, true},
		{valueobject.StatusL2Approved, valueobject.StatusCancelled, true},

		{valueobject.StatusPendingL1, valueobject.StatusPendingRCPU, false},
		{valueobject.StatusL1Approved, valueobject.StatusPendingL2, false},
		{valueobject.StatusPendingL2, valueobject.StatusL1Approved, false},
		{valueobject.StatusPendingL1, valueobject.StatusPendingL1, false},
		{valueobject.StatusRejected, valueobject.StatusPendingL1, false},
		{valueobject.StatusRejected, valueobject.StatusCancelled, false},
		{valueobject.StatusCancelled, valueobject.StatusRejected, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanAdvanceTo(tt.to))
		})
	}
}

// No status can reach itself through any chain of forward moves.
func TestApplicationStatus_NoCycles(t *testing.T) {
	all := valueobject.AllApplicationStatuses()
	for _, start := range all {
		seen := map[string]bool{}
		frontier := []valueobject.ApplicationStatus{start}
		for len(frontier) > 0 {
			cur := frontier[0]
			frontier = frontier[1:]
			for _, next := range all {
				if !cur.CanAdvanceTo(next) {
					continue
				}
				require.False(t, next.Equal(start), "cycle back to %s via %s", start, cur)
				if !seen[next.String()] {
					seen[next.String()] = true
					frontier = append(frontier, next)
				}
			}
		}
	}
}

func TestParseAction(t *testing.T) {
	a, err := valueobject.ParseAction(" Approve ")
	require.NoError(t, err)
	assert.Equal(t, valueobject.ActionApprove, a)

	a, err = valueobject.ParseAction("REJECT")
	require.NoError(t, err)
	assert.Equal(t, valueobject.ActionReject, a)

	_, err = valueobject.ParseAction("forward")
	require.Error(t, err)
	assert.True(t, errors.Is(err, valueobject.ErrInvalidInput))
	assert.Contains(t, err.Error(), "must be 'approve' or 'reject'")
}

func TestStageForStatus(t *testing.T) {
	assert.Equal(t, valueobject.StageRCPU, valueobject.StageForStatus(valueobject.StatusPendingRCPU))
	assert.Equal(t, valueobject.StageL1, valueobject.StageForStatus(valueobject.StatusL1Approved))
	assert.Equal(t, valueobject.StageL2, valueobject.StageForStatus(valueobject.StatusPendingL2))
	assert.Equal(t, valueobject.StageL3, valueobject.StageForStatus(valueobject.StatusL3Approved))

	s, err := valueobject.NewStage("l2")
	require.NoError(t, err)
	assert.Equal(t, valueobject.StageL2, s)
}

func TestIdentityValueObjects(t *testing.T) {
	pan, err := valueobject.NewPAN("abcde1234f")
	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", pan.String())
	assert.Equal(t, "XXXXXX234F", pan.Masked())

	_, err = valueobject.NewPAN("ABCD12345F")
	assert.Error(t, err)

	aadhaar, err := valueobject.NewAadhaar("1234 5678 9012")
	require.NoError(t, err)
	assert.Equal(t, "123456789012", aadhaar.String())
	assert.Equal(t, "XXXXXXXX9012", aadhaar.Masked())

	_, err = valueobject.NewAadhaar("12345")
	assert.Error(t, err)

	assert.NoError(t, valueobject.ValidatePhone("9876543210"))
	assert.Error(t, valueobject.ValidatePhone("98765"))
	assert.NoError(t, valueobject.ValidatePincode("560001"))
	assert.Error(t, valueobject.ValidatePincode("5600"))
}

func TestApplicantEnums(t *testing.T) {
	e, err := valueobject.NewEmploymentType("self-employed")
	require.NoError(t, err)
	assert.Equal(t, valueobject.EmploymentSelfEmployed, e)

	p, err := valueobject.NewLoanPurpose("home_purchase")
	require.NoError(t, err)
	assert.Equal(t, valueobject.PurposeHomePurchase, p)

	_, err = valueobject.NewLoanPurpose("car")
	assert.Error(t, err)
	_, err = valueobject.NewGender("female")
	assert.NoError(t, err)
	_, err = valueobject.NewResidenceType("company-provided")
	assert.NoError(t, err)
	_, err = valueobject.NewMaritalStatus("complicated")
	assert.Error(t, err)

	r, err := valueobject.NewRole("manager_l1")
	require.NoError(t, err)
	assert.Equal(t, valueobject.RoleManagerL1, r)
}
