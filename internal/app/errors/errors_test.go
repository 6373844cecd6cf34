package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrMarkerProtected, "delete Marker0")

	assert.True(t, stderrors.Is(err, ErrMarkerProtected))
	assert.Equal(t, "delete Marker0: marker is protected", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
}

func TestWrapfFormatsMessage(t *testing.T) {
	cause := New("socket closed")
	err := Wrapf(cause, "send command %q", "seek")

	assert.Equal(t, `send command "seek": socket closed`, err.Error())
	assert.True(t, stderrors.Is(err, cause))
}

func TestUnwrapChain(t *testing.T) {
	root := ErrSocketUnavailable
	mid := Wrap(root, "connect")
	top := fmt.Errorf("start player: %w", mid)

	assert.True(t, stderrors.Is(top, ErrSocketUnavailable))
}

func TestIsMatchesByMessage(t *testing.T) {
	assert.True(t, stderrors.Is(New("marker not found"), ErrMarkerNotFound))
	assert.False(t, stderrors.Is(New("other"), ErrMarkerNotFound))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"property unavailable", New("property unavailable"), true},
		{"error running command", Wrap(New("error running command"), "seek"), true},
		{"permanent", New("file not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
