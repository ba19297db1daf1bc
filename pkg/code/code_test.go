package code

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	err := ErrRemoteRejected.WithDetails("code -101", "account not logged in")

	assert.Len(t, ErrRemoteRejected.Details(), 0)
	assert.Len(t, err.Details(), 2)
	assert.Equal(t, ErrRemoteRejected.Code(), err.Code())
}

func TestErrorsIsAcrossClonesAndWraps(t *testing.T) {
	err := pkgerrors.Wrap(ErrNetworkFailure.WithDetails("dial tcp: timeout"), "fetch history page")

	assert.True(t, errors.Is(err, ErrNetworkFailure))
	assert.False(t, errors.Is(err, ErrRemoteRejected))
}
