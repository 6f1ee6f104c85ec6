package codec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/clause-adjudicator/internal/adjudicator"
	"github.com/danielpatrickdp/clause-adjudicator/internal/fault"
	"github.com/danielpatrickdp/clause-adjudicator/internal/logging"
	"github.com/danielpatrickdp/clause-adjudicator/internal/signals"
	"github.com/danielpatrickdp/clause-adjudicator/internal/store"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

// #region recorder
// Recorder persists served adjudications. *store.Store implements it.
type Recorder interface {
	SaveAdjudication(trigger string, req adjudicator.Request, res adjudicator.Result) (store.Record, error)
	LogFailure(trigger string, req adjudicator.Request, cause error) error
}

// #endregion recorder

// #region server
// AdjudicatorServer is the server side of the Adjudicate RPC.
type AdjudicatorServer interface {
	Adjudicate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// Server answers Adjudicate calls. The request is an Interpretation payload,
// the reply carries the verdict and, when a Recorder is set, the stored
// adjudication ID.
type Server struct {
	adj      *adjudicator.Adjudicator
	producer *signals.Producer
	recorder Recorder
	log      *slog.Logger
}

// NewServer creates a Server. recorder may be nil.
func NewServer(adj *adjudicator.Adjudicator, recorder Recorder) *Server {
	return &Server{
		adj:      adj,
		producer: signals.NewProducer(nil, adj.Authority()),
		recorder: recorder,
		log:      logging.New("codec"),
	}
}

// Register attaches the service to a gRPC server.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(&adjudicatorServiceDesc, s)
}

type reply struct {
	AdjudicationID string          `json:"adjudication_id,omitempty"`
	Verdict        verdict.Verdict `json:"verdict"`
}

// Adjudicate implements AdjudicatorServer.
func (s *Server) Adjudicate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	data, err := protojson.Marshal(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}
	interp, err := signals.Decode(data)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	req, err := s.producer.Request(interp)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.adj.Run(req)
	if err != nil {
		if s.recorder != nil {
			if lerr := s.recorder.LogFailure("serve", req, err); lerr != nil {
				logging.WithRequest(s.log, req.ID).Error("log failure", "error", lerr)
			}
		}
		return nil, status.Error(codeFor(err), err.Error())
	}

	out := reply{Verdict: res.Verdict}
	if s.recorder != nil {
		rec, err := s.recorder.SaveAdjudication("serve", req, res)
		if err != nil {
			logging.WithRequest(s.log, req.ID).Error("save adjudication", "error", err)
			return nil, status.Errorf(codes.Internal, "save adjudication: %v", err)
		}
		out.AdjudicationID = rec.ID
	}

	js, err := json.Marshal(out)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode verdict: %v", err)
	}
	resp := new(structpb.Struct)
	if err := protojson.Unmarshal(js, resp); err != nil {
		return nil, status.Errorf(codes.Internal, "encode verdict: %v", err)
	}
	return resp, nil
}

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, adjudicator.ErrInvalidRequest):
		return codes.InvalidArgument
	case errors.Is(err, fault.ErrUnresolvedConflict):
		return codes.FailedPrecondition
	}
	return codes.Internal
}

// #endregion server

// #region service-desc
var adjudicatorServiceDesc = grpc.ServiceDesc{
	ServiceName: "clause.adjudicator.v1.Adjudicator",
	HandlerType: (*AdjudicatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Adjudicate", Handler: adjudicateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clause/adjudicator/v1/adjudicator.proto",
}

func adjudicateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdjudicatorServer).Adjudicate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AdjudicateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdjudicatorServer).Adjudicate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc

// #region adjudication-client
// AdjudicationClient calls a remote adjudication server.
type AdjudicationClient struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// NewAdjudicationClient connects to an adjudication gRPC server.
func NewAdjudicationClient(addr string) (*AdjudicationClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &AdjudicationClient{conn: conn, cc: conn}, nil
}

// NewAdjudicationClientWithConn wraps an existing connection.
func NewAdjudicationClientWithConn(cc grpc.ClientConnInterface) *AdjudicationClient {
	return &AdjudicationClient{cc: cc}
}

// Close shuts down the gRPC connection if this client owns it.
func (c *AdjudicationClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Adjudicate sends an interpretation and returns the stored ID (empty when
// the server does not record) and the verified verdict.
func (c *AdjudicationClient) Adjudicate(ctx context.Context, in signals.Interpretation) (string, verdict.Verdict, error) {
	js, err := json.Marshal(in)
	if err != nil {
		return "", verdict.Verdict{}, fmt.Errorf("encode request: %w", err)
	}
	req := new(structpb.Struct)
	if err := protojson.Unmarshal(js, req); err != nil {
		return "", verdict.Verdict{}, fmt.Errorf("encode request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AdjudicateMethod, req, resp); err != nil {
		return "", verdict.Verdict{}, fmt.Errorf("adjudicate rpc: %w", err)
	}
	data, err := protojson.Marshal(resp)
	if err != nil {
		return "", verdict.Verdict{}, fmt.Errorf("decode reply: %w", err)
	}
	var out reply
	if err := json.Unmarshal(data, &out); err != nil {
		return "", verdict.Verdict{}, fmt.Errorf("decode reply: %w", err)
	}
	if err := out.Verdict.Verify(); err != nil {
		return "", verdict.Verdict{}, err
	}
	return out.AdjudicationID, out.Verdict, nil
}

// #endregion adjudication-client
