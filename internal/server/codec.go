package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/chandra/internal/psi"
)

// #region request-types
// AnalyzeRequest is the decoded Analyze payload.
type AnalyzeRequest struct {
	Turns      []psi.Turn `json:"turns"`
	Transcript string     `json:"transcript,omitempty"`
}

// DiagnoseRequest is the decoded Diagnose payload.
type DiagnoseRequest struct {
	Transcript string   `json:"transcript"`
	Responses  []string `json:"responses,omitempty"`
}

// #endregion request-types

// #region struct-codec
// toStruct converts any JSON-serializable value into a Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("struct: %w", err)
	}
	return s, nil
}

// fromStruct decodes a Struct into v. With strict set, unknown fields are
// an error.
func fromStruct(s *structpb.Struct, v interface{}, strict bool) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// #endregion struct-codec
