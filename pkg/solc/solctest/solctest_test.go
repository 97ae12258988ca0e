package solctest_test

import (
	"context"
	"testing"

	"github.com/solgas/engine/pkg/solc"
	"github.com/solgas/engine/pkg/solc/solctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeCompiler_RegisteredFixture(t *testing.T) {
	fc := solctest.New()
	src := "contract C { function a() external {} }"
	ast := solctest.FunctionAST("a", "function", "external", "pure", "0:10:0", nil)
	fc.Register(src, solctest.Fixture{
		AST:       ast,
		Estimates: &solc.GasEstimates{External: map[string]string{"a()": "100"}},
	})

	out, err := fc.Compile(context.Background(), solc.NewInput("u.sol", []byte(src), solc.InputSettings{}), nil)
	require.NoError(t, err)
	require.Contains(t, out.Sources, "u.sol")
	assert.NotEmpty(t, out.Sources["u.sol"].AST)
	assert.Equal(t, 1, fc.Calls)
}

func TestFakeCompiler_UnregisteredSourceCompilesEmpty(t *testing.T) {
	fc := solctest.New()
	out, err := fc.Compile(context.Background(), solc.NewInput("u.sol", []byte("contract C {}"), solc.InputSettings{}), nil)
	require.NoError(t, err)
	assert.Empty(t, out.Errors)
	assert.Empty(t, out.Contracts)
}
