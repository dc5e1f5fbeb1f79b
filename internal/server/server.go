package server

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/chandra/internal/analysis"
	"github.com/danielpatrickdp/chandra/internal/logging"
	"github.com/danielpatrickdp/chandra/internal/store"
)

// #region server-struct
// Server implements DiagnosticServer over an analysis pipeline. With a store
// attached, every Analyze result is persisted and logged.
type Server struct {
	analyzer *analysis.Analyzer
	store    *store.Store
	logger   *zap.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithStore persists Analyze results.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server.
func New(a *analysis.Analyzer, opts ...Option) *Server {
	s := &Server{analyzer: a, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// #endregion server-struct

// #region analyze
// Analyze runs the full pipeline. The response is the report, plus
// analysis_id when a store is attached.
func (s *Server) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in AnalyzeRequest
	if err := fromStruct(req, &in, true); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "analyze request: %v", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	report := s.analyzer.Analyze(in.Turns, in.Transcript)
	out, err := toStruct(report)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode report: %v", err)
	}

	if s.store != nil {
		rec, err := s.store.SaveReport(report)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "save report: %v", err)
		}
		raw, _ := json.Marshal(in)
		entry := logging.EntryFromReport(rec.AnalysisID, logging.TriggerRPC, logging.HashContext(raw), report)
		if err := logging.LogAssessment(s.store.DB(), entry); err != nil {
			s.logger.Warn("assessment log failed", zap.String("analysis_id", rec.AnalysisID), zap.Error(err))
		}
		out.Fields["analysis_id"] = structpb.NewStringValue(rec.AnalysisID)
	}
	return out, nil
}

// #endregion analyze

// #region diagnose
// Diagnose runs the discrete diagnostics only.
func (s *Server) Diagnose(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in DiagnoseRequest
	if err := fromStruct(req, &in, true); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "diagnose request: %v", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	out, err := toStruct(s.analyzer.Diagnose(in.Transcript, in.Responses))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode diagnostic: %v", err)
	}
	return out, nil
}

// #endregion diagnose

// #region serve
// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	gs := grpc.NewServer(grpc.UnaryInterceptor(s.logUnary))
	Register(gs, s)

	errCh := make(chan error, 1)
	go func() { errCh <- gs.Serve(lis) }()
	s.logger.Info("diagnostic service listening", zap.String("addr", lis.Addr().String()))

	select {
	case <-ctx.Done():
		gs.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) logUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("rpc",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, err
}

// #endregion serve
