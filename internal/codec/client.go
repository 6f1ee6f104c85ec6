// Package codec carries adjudication data over gRPC: a client for the
// external interpretation service and a server exposing the adjudicator.
// Messages are google.protobuf.Struct so that no generated stubs are needed
// on either side.
package codec

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/clause-adjudicator/internal/signals"
)

// Full method names of the two services.
const (
	InterpretMethod  = "/clause.interpreter.v1.Interpreter/Interpret"
	AdjudicateMethod = "/clause.adjudicator.v1.Adjudicator/Adjudicate"
)

// #region service-interface
// InterpreterService is the raw RPC surface of the interpretation service.
type InterpreterService interface {
	Interpret(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type interpreterService struct {
	cc grpc.ClientConnInterface
}

func (s *interpreterService) Interpret(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := s.cc.Invoke(ctx, InterpretMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion service-interface

// #region client-struct
// InterpreterClient wraps the gRPC connection to the interpretation service.
// It implements signals.Interpreter.
type InterpreterClient struct {
	conn   *grpc.ClientConn
	client InterpreterService
}

// #endregion client-struct

// #region constructor
// NewInterpreterClient connects to the interpretation gRPC server.
func NewInterpreterClient(addr string) (*InterpreterClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &InterpreterClient{
		conn:   conn,
		client: &interpreterService{cc: conn},
	}, nil
}

// NewInterpreterClientWithService creates a client with an injected service
// implementation. Used for testing without a real gRPC connection.
func NewInterpreterClientWithService(svc InterpreterService) *InterpreterClient {
	return &InterpreterClient{client: svc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *InterpreterClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region interpret
// Interpret sends the clause and the rendered prompt and decodes the
// answer as a signals.Interpretation.
func (c *InterpreterClient) Interpret(ctx context.Context, clause string) (signals.Interpretation, error) {
	req, err := structpb.NewStruct(map[string]any{
		"clause_text": clause,
		"prompt":      signals.Prompt(clause),
	})
	if err != nil {
		return signals.Interpretation{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Interpret(ctx, req)
	if err != nil {
		return signals.Interpretation{}, fmt.Errorf("interpret rpc: %w", err)
	}
	data, err := protojson.Marshal(resp)
	if err != nil {
		return signals.Interpretation{}, fmt.Errorf("encode response: %w", err)
	}
	return signals.Decode(data)
}

// #endregion interpret
