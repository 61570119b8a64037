package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rbright/warden/internal/events"
	"github.com/rbright/warden/internal/session"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a VoiceControl client bound to one connection.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to target and waits until the connection is ready or timeout elapses.
func Dial(ctx context.Context, target string, timeout time.Duration) (*Client, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("rpc target is empty")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial warden rpc %q: %w", target, err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("wait for warden rpc readiness: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Status(ctx context.Context) (session.Status, error) {
	return c.call(ctx, methodGetStatus, &emptypb.Empty{})
}

func (c *Client) StartListening(ctx context.Context) (session.Status, error) {
	return c.call(ctx, methodStartListening, &emptypb.Empty{})
}

func (c *Client) StopListening(ctx context.Context) (session.Status, error) {
	return c.call(ctx, methodStopListening, &emptypb.Empty{})
}

func (c *Client) Speak(ctx context.Context, text string) (session.Status, error) {
	return c.call(ctx, methodSpeak, wrapperspb.String(text))
}

func (c *Client) StopSpeaking(ctx context.Context) (session.Status, error) {
	return c.call(ctx, methodStopSpeaking, &emptypb.Empty{})
}

// Subscribe delivers streamed events to fn until ctx is cancelled or the server
// ends the stream. Cancellation and a clean server close return nil.
func (c *Client) Subscribe(ctx context.Context, fn func(events.Event)) error {
	stream, err := c.conn.NewStream(ctx, subscribeStreamDesc, fullMethod(streamSubscribe))
	if err != nil {
		return fmt.Errorf("open subscribe stream: %w", err)
	}
	typed := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := typed.SendMsg(&emptypb.Empty{}); err != nil {
		return fmt.Errorf("send subscribe request: %w", err)
	}
	if err := typed.CloseSend(); err != nil {
		return fmt.Errorf("close subscribe send: %w", err)
	}

	for {
		msg, err := typed.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if status.Code(err) == codes.Canceled && ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive event: %w", err)
		}
		e, err := DecodeEvent(msg)
		if err != nil {
			return err
		}
		fn(e)
	}
}

func (c *Client) call(ctx context.Context, method string, in any) (session.Status, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return session.Status{}, err
	}
	return DecodeStatus(out), nil
}

// IsRejected reports whether err is a refused controller operation.
func IsRejected(err error) bool {
	return status.Code(err) == codes.FailedPrecondition
}

// waitForReady blocks until gRPC connection enters Ready or fails.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
