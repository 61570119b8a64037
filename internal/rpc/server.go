// Package rpc exposes the voice controller over gRPC for UI clients.
package rpc

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/warden/internal/events"
	"github.com/rbright/warden/internal/session"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// subscriberBuffer bounds events queued for one slow stream before drops begin.
const subscriberBuffer = 256

// Controller is the controller surface served over gRPC.
type Controller interface {
	Status() session.Status
	StartListening() error
	StopListening()
	Speak(text string) error
	StopSpeaking()
	Subscribe(events.Handler) *events.Subscription
}

// Server implements the VoiceControl service.
type Server struct {
	controller Controller
	logger     *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// NewServer wraps controller for registration on a grpc.Server.
func NewServer(controller Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{controller: controller, logger: logger, done: make(chan struct{})}
}

// NewGRPCServer builds a grpc.Server with the VoiceControl service registered.
func NewGRPCServer(srv *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(srv.logUnary)}, opts...)
	s := grpc.NewServer(opts...)
	s.RegisterService(&serviceDesc, srv)
	return s
}

// Shutdown ends every Subscribe stream so a graceful stop can complete.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Server) GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return s.status()
}

func (s *Server) StartListening(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.controller.StartListening(); err != nil {
		return nil, toStatusError(err)
	}
	return s.status()
}

func (s *Server) StopListening(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	s.controller.StopListening()
	return s.status()
}

func (s *Server) Speak(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := s.controller.Speak(in.GetValue()); err != nil {
		return nil, toStatusError(err)
	}
	return s.status()
}

func (s *Server) StopSpeaking(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	s.controller.StopSpeaking()
	return s.status()
}

// Subscribe streams controller events until the client goes away or the server
// shuts down. Events that overflow the per-stream buffer are dropped.
func (s *Server) Subscribe(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	queue := make(chan events.Event, subscriberBuffer)
	var dropped int

	sub := s.controller.Subscribe(events.HandlerFunc(func(e events.Event) {
		select {
		case queue <- e:
		default:
			dropped++
			if dropped == 1 || dropped%100 == 0 {
				s.logger.Warn("rpc subscriber lagging; dropping events", "dropped", dropped)
			}
		}
	}))
	defer sub.Unsubscribe()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case e := <-queue:
			msg, err := EncodeEvent(e)
			if err != nil {
				s.logger.Error("encode event failed", "kind", e.Kind, "error", err.Error())
				continue
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func (s *Server) status() (*structpb.Struct, error) {
	msg, err := EncodeStatus(s.controller.Status())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return msg, nil
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("rpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp, err
}

// toStatusError maps controller errors onto gRPC codes.
func toStatusError(err error) error {
	if session.IsRejected(err) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Unavailable, err.Error())
}
