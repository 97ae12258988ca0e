package selector

import (
	"bytes"
	"encoding/json"
)

// AstNode is the tagged sum type the walker operates on: exactly one of
// Function or Other is set. This avoids untyped traversal of the compiler's
// JSON-shaped AST (design note, spec §9) — the walker pattern-matches on the
// variant instead of probing an "any" value for magic string keys at every
// level.
type AstNode struct {
	Function *FunctionNode
	Other    *OtherNode
}

// FunctionNode carries exactly the fields SelectorEngine consumes from a
// FunctionDefinition AST node.
type FunctionNode struct {
	Name             string
	Kind             string // "function", "constructor", "fallback", "receive"
	Visibility       string
	StateMutability  string
	Src              string
	Parameters       []Parameter
	ReturnParameters []Parameter
}

// Parameter is one entry of a function's parameter or return-parameter list.
// TypeString comes from the accompanying TypeDescriptions object (design note).
type Parameter struct {
	Name       string
	TypeString string
}

// OtherNode is the catch-all variant for any AST node that is not a
// FunctionDefinition; Children are its nested object/array-valued JSON
// fields, to be visited by the walker.
type OtherNode struct {
	NodeType string
	Children []json.RawMessage
}

type parameterListJSON struct {
	Parameters []parameterJSON `json:"parameters"`
}

type parameterJSON struct {
	Name            string `json:"name"`
	TypeDescriptions struct {
		TypeString string `json:"typeString"`
	} `json:"typeDescriptions"`
}

func (p parameterListJSON) toParameters() []Parameter {
	out := make([]Parameter, 0, len(p.Parameters))
	for _, pj := range p.Parameters {
		out = append(out, Parameter{Name: pj.Name, TypeString: pj.TypeDescriptions.TypeString})
	}
	return out
}

type functionDefJSON struct {
	NodeType         string             `json:"nodeType"`
	Name             string             `json:"name"`
	Kind             string             `json:"kind"`
	Visibility       string             `json:"visibility"`
	StateMutability  string             `json:"stateMutability"`
	Src              string             `json:"src"`
	Parameters       parameterListJSON  `json:"parameters"`
	ReturnParameters parameterListJSON  `json:"returnParameters"`
}

// parseNode decodes a single JSON value (always a JSON object at this level;
// arrays are expanded into per-element nodes by the caller) into an AstNode.
func parseNode(raw json.RawMessage) (AstNode, bool) {
	var head struct {
		NodeType string `json:"nodeType"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return AstNode{}, false
	}

	if head.NodeType == "FunctionDefinition" {
		var fd functionDefJSON
		if err := json.Unmarshal(raw, &fd); err != nil {
			return AstNode{}, false
		}
		return AstNode{Function: &FunctionNode{
			Name:             fd.Name,
			Kind:             fd.Kind,
			Visibility:       fd.Visibility,
			StateMutability:  fd.StateMutability,
			Src:              fd.Src,
			Parameters:       fd.Parameters.toParameters(),
			ReturnParameters: fd.ReturnParameters.toParameters(),
		}}, true
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return AstNode{}, false
	}
	var children []json.RawMessage
	for _, v := range generic {
		children = append(children, expandChild(v)...)
	}
	return AstNode{Other: &OtherNode{NodeType: head.NodeType, Children: children}}, true
}

// expandChild turns one JSON field value into zero or more child nodes to
// recurse into: an object is a single child, an array contributes one child
// per element, and a primitive (string/number/bool/null) contributes none.
func expandChild(raw json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '{':
		return []json.RawMessage{raw}
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil
		}
		var out []json.RawMessage
		for _, e := range elems {
			out = append(out, expandChild(e)...)
		}
		return out
	default:
		return nil
	}
}
