package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chainFlag, coinTypeFlag = 0, ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestNamespaceCommand(t *testing.T) {
	out, err := run(t, "namespace", "--chain", "1")
	require.NoError(t, err)
	assert.Equal(t, "addr.reverse 0x91d1777781884d03a6757a803996e38de2a42967fb37eeaca72729271025a9e2\n", out)

	out, err = run(t, "namespace", "-t", "0x80000000")
	require.NoError(t, err)
	assert.Contains(t, out, "default.reverse ")

	_, err = run(t, "namespace", "-c", "2147483648")
	assert.Error(t, err)
}

func TestReverseNameCommand(t *testing.T) {
	out, err := run(t, "reverse-name", "-c", "8453", "0x51050ec063d393217B436747617aD1C2285Aeeee")
	require.NoError(t, err)
	assert.Contains(t, out, "51050ec063d393217b436747617ad1c2285aeeee.80002105.reverse 0x")

	_, err = run(t, "reverse-name", "nope")
	assert.Error(t, err)
}

func TestCoinTypeCommand(t *testing.T) {
	out, err := run(t, "coin-type", "8453")
	require.NoError(t, err)
	assert.Equal(t, "chain 8453 => coin type 2147492101 (0x80002105) => chain 8453\n", out)

	_, err = run(t, "coin-type", "x")
	assert.Error(t, err)
}
