package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusOpen, StatusInProgress, StatusResolved, StatusClosed} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("reopened"))
	assert.False(t, ValidStatus(""))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusOpen, StatusInProgress, true},
		{StatusOpen, StatusResolved, true},
		{StatusOpen, StatusClosed, true},
		{StatusInProgress, StatusResolved, true},
		{StatusInProgress, StatusClosed, true},
		{StatusResolved, StatusClosed, true},

		{StatusInProgress, StatusOpen, false},
		{StatusResolved, StatusOpen, false},
		{StatusResolved, StatusInProgress, false},
		{StatusClosed, StatusOpen, false},
		{StatusClosed, StatusInProgress, false},
		{StatusClosed, StatusResolved, false},
		{StatusOpen, StatusOpen, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}
