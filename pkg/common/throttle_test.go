package common

import (
	"testing"
	"time"
)

func TestThrottleCollapsesBursts(t *testing.T) {
	th := NewThrottle(time.Hour, 1)
	if !th.Allow("session") {
		t.Errorf("Expected first action to be allowed")
	}
	if th.Allow("session") {
		t.Errorf("Expected repeated action to be throttled")
	}
	if !th.Allow("other") {
		t.Errorf("Expected other keys to be independent")
	}
	th.Forget("session")
	if !th.Allow("session") {
		t.Errorf("Expected forgotten key to start over")
	}
}

func TestThrottleDisabled(t *testing.T) {
	var th *Throttle
	if !th.Allow("x") {
		t.Errorf("Expected nil throttle to allow")
	}
	off := NewThrottle(0, 1)
	for i := 0; i < 3; i++ {
		if !off.Allow("x") {
			t.Errorf("Expected zero interval throttle to allow")
		}
	}
}
