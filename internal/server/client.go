package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/chandra/internal/analysis"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

// #region client-struct
// Client calls a remote diagnostic service.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient connects to the diagnostic service at addr.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// #endregion client-struct

// #region analyze
// Analyze sends a conversation for full analysis. The returned id is empty
// unless the server persists reports.
func (c *Client) Analyze(ctx context.Context, turns []psi.Turn, transcript string) (analysis.Report, string, error) {
	req, err := toStruct(AnalyzeRequest{Turns: turns, Transcript: transcript})
	if err != nil {
		return analysis.Report{}, "", fmt.Errorf("encode request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, analyzeMethod, req, resp); err != nil {
		return analysis.Report{}, "", fmt.Errorf("analyze rpc: %w", err)
	}

	var report analysis.Report
	if err := fromStruct(resp, &report, false); err != nil {
		return analysis.Report{}, "", fmt.Errorf("decode report: %w", err)
	}
	return report, resp.GetFields()["analysis_id"].GetStringValue(), nil
}

// #endregion analyze

// #region diagnose
// Diagnose sends a transcript and responses for discrete diagnostics.
func (c *Client) Diagnose(ctx context.Context, transcript string, responses []string) (analysis.Diagnostic, error) {
	req, err := toStruct(DiagnoseRequest{Transcript: transcript, Responses: responses})
	if err != nil {
		return analysis.Diagnostic{}, fmt.Errorf("encode request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, diagnoseMethod, req, resp); err != nil {
		return analysis.Diagnostic{}, fmt.Errorf("diagnose rpc: %w", err)
	}

	var d analysis.Diagnostic
	if err := fromStruct(resp, &d, false); err != nil {
		return analysis.Diagnostic{}, fmt.Errorf("decode diagnostic: %w", err)
	}
	return d, nil
}

// #endregion diagnose
