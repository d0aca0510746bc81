package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestRun_MemorySeed(t *testing.T) {
	var out bytes.Buffer
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, run(nil, noEnv, &out, now))
	assert.Equal(t, "seed ok: quads=5 reservations=5 links=8\n", out.String())
}

func TestRun_BadFlag(t *testing.T) {
	err := run([]string{"-rows=3"}, noEnv, &bytes.Buffer{}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse flags")
}
