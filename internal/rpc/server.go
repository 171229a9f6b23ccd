package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/digital-twin/internal/state"
	"github.com/danielpatrickdp/digital-twin/internal/twin"
	"github.com/danielpatrickdp/digital-twin/internal/update"
)

// #region server
// Server exposes a twin.Controller over gRPC.
type Server struct {
	ctrl   *twin.Controller
	logger *slog.Logger
}

// Register attaches a Server for ctrl to reg.
func Register(reg grpc.ServiceRegistrar, ctrl *twin.Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{ctrl: ctrl, logger: logger.With("component", "rpc")}
	reg.RegisterService(&ServiceDesc, s)
	return s
}
// #endregion server

// #region handlers
// Configure treats the request struct as a configuration document.
func (s *Server) Configure(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := json.Marshal(req.AsMap())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode configuration: %v", err)
	}
	st, err := s.ctrl.Configure(raw)
	if err != nil {
		return nil, s.statusError("configure", err)
	}
	return stateStruct(st)
}

// Process expects {"input": string, "reward"?: number}.
func (s *Server) Process(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	input := fields["input"].GetStringValue()

	var feedback *update.Feedback
	if v, ok := fields["reward"]; ok {
		n, isNum := v.GetKind().(*structpb.Value_NumberValue)
		if !isNum {
			return nil, status.Error(codes.InvalidArgument, "reward must be a number")
		}
		feedback = &update.Feedback{Reward: n.NumberValue}
	}

	res, err := s.ctrl.ProcessInteraction(ctx, input, feedback)
	if err != nil {
		return nil, s.statusError("process", err)
	}

	stMap, err := toMap(res.State)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode state: %v", err)
	}
	warnings := make([]any, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w.Error())
	}
	out, err := structpb.NewStruct(map[string]any{
		"turnId":    res.TurnID,
		"output":    res.Output,
		"ruleName":  res.RuleName,
		"versionId": res.VersionID,
		"warnings":  warnings,
		"state":     stMap,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return out, nil
}

// GetState ignores its request and returns the held state.
func (s *Server) GetState(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return stateStruct(s.ctrl.GetState())
}

// Reset clears the operational state and returns the result.
func (s *Server) Reset(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	st, err := s.ctrl.ResetOperationalState()
	if err != nil {
		return nil, s.statusError("reset", err)
	}
	return stateStruct(st)
}
// #endregion handlers

// #region encoding
func (s *Server) statusError(op string, err error) error {
	switch {
	case errors.Is(err, twin.ErrConfiguration), errors.Is(err, twin.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.Error("[RPC] request failed", "op", op, "error", err)
		return status.Error(codes.Internal, err.Error())
	}
}

func toMap(st state.TwinState) (map[string]any, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func stateStruct(st state.TwinState) (*structpb.Struct, error) {
	m, err := toMap(st)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode state: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode state: %v", err)
	}
	return out, nil
}

func fromStruct(s *structpb.Struct, dst any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("encode struct: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode struct: %w", err)
	}
	return nil
}
// #endregion encoding
