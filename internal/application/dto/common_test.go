package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Normalize(t *testing.T) {
	cases := []struct {
		in, want PageRequest
	}{
		{PageRequest{}, PageRequest{Limit: DefaultPageLimit}},
		{PageRequest{Limit: 500, Offset: 40}, PageRequest{Limit: MaxPageLimit, Offset: 40}},
		{PageRequest{Limit: -3, Offset: -1}, PageRequest{Limit: DefaultPageLimit}},
		{PageRequest{Limit: 10, Offset: 5}, PageRequest{Limit: 10, Offset: 5}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.in.Normalize())
	}
}

func TestPageRequest_ResponseHasMore(t *testing.T) {
	p := PageRequest{Limit: 2}
	assert.True(t, p.Response(2).HasMore)
	assert.False(t, p.Response(1).HasMore)
}
