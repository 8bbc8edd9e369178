// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"errors"
	"testing"
)

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StateCreated, "created"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{StateStopped, "stopped"},
		{StateFailed, "failed"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStateValidate(t *testing.T) {
	t.Parallel()

	for s := StateCreated; s <= StateFailed; s++ {
		if err := s.Validate(); err != nil {
			t.Errorf("State(%d).Validate() = %v, want nil", s, err)
		}
	}

	err := State(42).Validate()
	if err == nil {
		t.Fatal("State(42).Validate() = nil, want error")
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("error %v does not wrap ErrInvalidState", err)
	}
}

func TestStateIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := map[State]bool{
		StateCreated:  false,
		StateStarting: false,
		StateRunning:  false,
		StateStopping: false,
		StateStopped:  true,
		StateFailed:   true,
	}

	for s, want := range terminal {
		if got := s.IsTerminal(); got != want {
			t.Errorf("State %s IsTerminal() = %v, want %v", s, got, want)
		}
	}
}
