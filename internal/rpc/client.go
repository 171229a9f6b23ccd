package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/digital-twin/internal/state"
)

// #region types
// ProcessReply is the decoded response of a Process call.
type ProcessReply struct {
	TurnID    string          `json:"turnId"`
	Output    string          `json:"output"`
	RuleName  string          `json:"ruleName"`
	VersionID string          `json:"versionId"`
	Warnings  []string        `json:"warnings"`
	State     state.TwinState `json:"state"`
}
// #endregion types

// #region client-struct
// Client talks to a remote TwinService.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}
// #endregion client-struct

// #region constructor
// NewClient connects to a twin gRPC server without transport security.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn wraps an existing connection. Close is then a no-op.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}
// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
// #endregion close

// #region calls
// Configure sends a JSON configuration document and returns the merged state.
func (c *Client) Configure(ctx context.Context, raw []byte) (state.TwinState, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return state.TwinState{}, fmt.Errorf("decode configuration: %w", err)
	}
	req, err := structpb.NewStruct(doc)
	if err != nil {
		return state.TwinState{}, fmt.Errorf("encode configuration: %w", err)
	}
	return c.stateCall(ctx, methodConfigure, req)
}

// Process submits one interaction. reward may be nil.
func (c *Client) Process(ctx context.Context, input string, reward *float64) (ProcessReply, error) {
	fields := map[string]any{"input": input}
	if reward != nil {
		fields["reward"] = *reward
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return ProcessReply{}, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodProcess, req, out); err != nil {
		return ProcessReply{}, fmt.Errorf("process rpc: %w", err)
	}
	var reply ProcessReply
	if err := fromStruct(out, &reply); err != nil {
		return ProcessReply{}, err
	}
	return reply, nil
}

// GetState fetches a snapshot of the remote twin.
func (c *Client) GetState(ctx context.Context) (state.TwinState, error) {
	return c.stateCall(ctx, methodGetState, &structpb.Struct{})
}

// Reset clears the remote twin's operational state.
func (c *Client) Reset(ctx context.Context) (state.TwinState, error) {
	return c.stateCall(ctx, methodReset, &structpb.Struct{})
}

func (c *Client) stateCall(ctx context.Context, method string, req *structpb.Struct) (state.TwinState, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out); err != nil {
		return state.TwinState{}, fmt.Errorf("%s rpc: %w", method, err)
	}
	var st state.TwinState
	if err := fromStruct(out, &st); err != nil {
		return state.TwinState{}, err
	}
	return st, nil
}
// #endregion calls
