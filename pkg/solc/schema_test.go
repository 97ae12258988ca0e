package solc

import "testing"

func TestValidateOutput_AcceptsWellFormedDocument(t *testing.T) {
	doc := []byte(`{
		"errors": [{"severity": "warning", "message": "unused variable", "formattedMessage": "x.sol:1:1: unused variable"}],
		"sources": {"x.sol": {"ast": {"nodeType": "SourceUnit"}}},
		"contracts": {"x.sol": {"X": {"abi": []}}}
	}`)
	if err := validateOutput(doc); err != nil {
		t.Fatalf("expected well-formed document to validate, got: %v", err)
	}
}

func TestValidateOutput_AcceptsEmptyDocument(t *testing.T) {
	if err := validateOutput([]byte(`{}`)); err != nil {
		t.Fatalf("expected empty document to validate, got: %v", err)
	}
}

func TestValidateOutput_RejectsWrongKindTopLevelField(t *testing.T) {
	// errors must be an array, not a string.
	if err := validateOutput([]byte(`{"errors": "not an array"}`)); err == nil {
		t.Fatal("expected validation error for wrong-kind errors field")
	}
}

func TestValidateOutput_RejectsMalformedJSON(t *testing.T) {
	if err := validateOutput([]byte(`{not json`)); err == nil {
		t.Fatal("expected parse error for malformed JSON")
	}
}
