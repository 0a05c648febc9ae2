package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle(t *testing.T) {
	th := throttle{interval: time.Second}
	start := time.Unix(100, 0)

	tests := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{500 * time.Millisecond, false},
		{999 * time.Millisecond, false},
		{time.Second, true},
		{1500 * time.Millisecond, false},
		{3 * time.Second, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.ready(start.Add(tt.at)), "at %v", tt.at)
	}
}

func TestCloseChainNil(t *testing.T) {
	assert.NotPanics(t, func() { closeChain(nil) })
}
