package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rbright/warden/internal/clock"
	"github.com/rbright/warden/internal/events"
	"github.com/rbright/warden/internal/fsm"
	"github.com/rbright/warden/internal/intent"
	"github.com/rbright/warden/internal/random"
	"github.com/rbright/warden/internal/session"
	"github.com/rbright/warden/internal/speech"
	"github.com/rbright/warden/internal/synthesis"
	"github.com/rbright/warden/internal/vad"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var epoch = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func startTestServer(t *testing.T) (*Client, *session.Controller, *clock.Fake) {
	t.Helper()

	clk := clock.NewFake(epoch)
	source := &random.Fixed{Ints: []int{1}, Floats: []float64{0.5}}
	controller := session.NewController(
		nil,
		clk,
		speech.New(speech.DefaultConfig(), clk, source),
		synthesis.New(synthesis.DefaultConfig(), clk, source),
		vad.New(vad.DefaultConfig(), clk),
		session.DefaultOptions(),
	)
	require.NoError(t, controller.Initialize(context.Background()))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(controller, nil)
	grpcServer := NewGRPCServer(srv)
	go func() {
		_ = grpcServer.Serve(lis)
	}()

	client, err := Dial(context.Background(), lis.Addr().String(), 2*time.Second)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		srv.Shutdown()
		grpcServer.GracefulStop()
		controller.Destroy()
	})
	return client, controller, clk
}

func TestUnaryCallsDriveController(t *testing.T) {
	client, controller, clk := startTestServer(t)
	ctx := context.Background()

	st, err := client.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, fsm.StateIdle, st.State)
	require.True(t, st.Ready)

	st, err = client.StartListening(ctx)
	require.NoError(t, err)
	require.Equal(t, fsm.StateListening, st.State)
	require.NotEmpty(t, st.SessionID)
	require.True(t, st.DetectorActive)

	clk.Advance(2100 * time.Millisecond)
	st, err = client.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, fsm.StateProcessing, st.State)
	require.NotNil(t, st.LastCommand)
	require.Equal(t, intent.Scan, st.LastCommand.Intent)
	require.Equal(t, "scan for vulnerabilities in the code", st.LastTranscript)

	st, err = client.Speak(ctx, "scanning")
	require.NoError(t, err)
	require.Equal(t, fsm.StateSpeaking, st.State)
	require.NotEmpty(t, st.UtteranceID)

	st, err = client.StopSpeaking(ctx)
	require.NoError(t, err)
	require.Equal(t, fsm.StateIdle, st.State)

	st, err = client.StopListening(ctx)
	require.NoError(t, err)
	require.Equal(t, fsm.StateIdle, st.State)
	require.Equal(t, fsm.StateIdle, controller.State())
}

func TestRejectionsMapToFailedPrecondition(t *testing.T) {
	client, _, _ := startTestServer(t)
	ctx := context.Background()

	_, err := client.Speak(ctx, "")
	require.Error(t, err)
	require.Equal(t, codes.FailedPrecondition, status.Code(err))
	require.True(t, IsRejected(err))

	_, err = client.StartListening(ctx)
	require.NoError(t, err)
	_, err = client.StartListening(ctx)
	require.True(t, IsRejected(err))
	require.Contains(t, status.Convert(err).Message(), "already listening")
}

func TestSubscribeStreamsEvents(t *testing.T) {
	client, controller, _ := startTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Event, 64)
	done := make(chan error, 1)
	go func() {
		done <- client.Subscribe(ctx, func(e events.Event) { received <- e })
	}()

	var speaking events.Event
	require.Eventually(t, func() bool {
		controller.StopSpeaking()
		_ = controller.Speak("hello world")
		for {
			select {
			case e := <-received:
				if e.Kind == events.KindStateChanged && e.State.To == fsm.StateSpeaking {
					speaking = e
					return true
				}
			case <-time.After(50 * time.Millisecond):
				return false
			}
		}
	}, 3*time.Second, 10*time.Millisecond)

	require.Equal(t, fsm.StateIdle, speaking.State.From)
	require.Equal(t, epoch, speaking.At)

	cancel()
	require.NoError(t, <-done)
}

func TestDialRejectsEmptyTarget(t *testing.T) {
	_, err := Dial(context.Background(), " ", time.Second)
	require.Error(t, err)
	require.Contains(t, err.Error(), "target is empty")
}

func TestDialTimesOutWithoutServer(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	_, err = Dial(context.Background(), addr, 150*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "readiness")
}
