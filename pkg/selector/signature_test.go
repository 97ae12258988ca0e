package selector_test

import (
	"testing"

	"github.com/solgas/engine/pkg/selector"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalType_StripsQualifiers(t *testing.T) {
	assert.Equal(t, "uint256[]", selector.CanonicalType("uint256[] memory"))
	assert.Equal(t, "bytes", selector.CanonicalType("bytes calldata"))
}

func TestCanonicalType_StripsKindTag(t *testing.T) {
	assert.Equal(t, "MyToken", selector.CanonicalType("contract MyToken"))
	assert.Equal(t, "Point", selector.CanonicalType("struct Point"))
}

func TestCanonicalType_NormalizesMapping(t *testing.T) {
	assert.Equal(t, "mapping(address=>uint256)", selector.CanonicalType("mapping(address => uint256)"))
}

func TestCanonicalSignature(t *testing.T) {
	sig := selector.CanonicalSignature("transfer", []selector.Parameter{
		{Name: "to", TypeString: "address"},
		{Name: "amount", TypeString: "uint256"},
	})
	assert.Equal(t, "transfer(address,uint256)", sig)
}

func TestSelector_TrivialFunction(t *testing.T) {
	// spec scenario A: keccak256("a()")[0..4]
	assert.Equal(t, "0x0dbe671f", selector.Selector("a()"))
}

func TestSelector_TransferSignature(t *testing.T) {
	sel := selector.Selector("transfer(address,uint256)")
	assert.Len(t, sel, 10)
	assert.Equal(t, "0x", sel[:2])
}
