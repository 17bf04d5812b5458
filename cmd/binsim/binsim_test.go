// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"math/big"
	"testing"

	log "github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

func TestRunScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/two_bins.yaml")
	require.NoError(t, err)
	require.Len(t, scenario.Steps, 4)

	var out bytes.Buffer
	sim, err := newSimulator(scenario, &out, log.NewTestLogger(log.InfoLevel))
	require.NoError(t, err)
	require.NoError(t, sim.Run())

	text := out.String()
	require.Contains(t, text, "modify alice#1: x 50, y 150")
	require.Contains(t, text, "quote: 60 x in, 59.990009 out, active bin 1")
	require.Contains(t, text, "swap alice: 60 x in, 59.990009 out, active bin 1")
	require.Contains(t, text, "position alice#1:")
	require.Contains(t, text, "active bin 1\n")
	require.Contains(t, text, "balance alice: x 890, y 909.990009")
	require.Contains(t, text, "balance pool: x 110, y 90.009991")
}

func TestScenarioErrors(t *testing.T) {
	_, err := ParseScenario([]byte("steps:\n  - {}\n"))
	require.ErrorIs(t, err, errBadStep)

	_, err = ParseScenario([]byte("steps:\n  - quote: {in: x, amount: '1'}\n    dump: {from: 0, to: 1}\n"))
	require.ErrorIs(t, err, errBadStep)

	_, err = ParseScenario([]byte("pool: ["))
	require.Error(t, err)

	s, err := ParseScenario([]byte("pool: {token_x: nope, token_y: '0x02', bin_step: 10}\n"))
	require.NoError(t, err)
	_, err = s.PoolConfig()
	require.ErrorIs(t, err, errBadAddress)

	s, err = ParseScenario([]byte(`
pool: {token_x: "0x0000000000000000000000000000000000000001", token_y: "0x0000000000000000000000000000000000000002", bin_step: 10}
steps:
  - swap: {from: "0x0000000000000000000000000000000000000003", in: z, amount: "1"}
`))
	require.NoError(t, err)
	sim, err := newSimulator(s, &bytes.Buffer{}, log.NewTestLogger(log.InfoLevel))
	require.NoError(t, err)
	require.ErrorIs(t, sim.Run(), errBadSide)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in       string
		decimals int32
		want     string
		ok       bool
	}{
		{"1.5", 6, "1500000", true},
		{"", 6, "0", true},
		{"100000000", 0, "100000000", true},
		{"0.0000001", 6, "", false},
		{"abc", 6, "", false},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in, tt.decimals)
		if !tt.ok {
			require.ErrorIs(t, err, errBadAmount, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got.String())
	}

	require.Equal(t, "59.990009", formatAmount(big.NewInt(59_990_009), 6))
	require.Equal(t, "-50", formatAmount(big.NewInt(-50_000_000), 6))
}

func TestPricesCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"prices", "--step", "10", "--from", "-1", "--to", "1"})
	require.NoError(t, root.Execute())

	text := out.String()
	require.Contains(t, text, "0.99900000")
	require.Contains(t, text, "1.00000000")
	require.Contains(t, text, "1.00100000")

	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"prices", "--step", "0"})
	require.Error(t, root.Execute())
}
