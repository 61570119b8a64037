package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "warden.v1.VoiceControl"

const (
	methodGetStatus      = "GetStatus"
	methodStartListening = "StartListening"
	methodStopListening  = "StopListening"
	methodSpeak          = "Speak"
	methodStopSpeaking   = "StopSpeaking"
	streamSubscribe      = "Subscribe"
)

type voiceControlServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StartListening(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StopListening(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Speak(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	StopSpeaking(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Subscribe(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*voiceControlServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(methodGetStatus, newEmpty, voiceControlServer.GetStatus),
		unaryMethod(methodStartListening, newEmpty, voiceControlServer.StartListening),
		unaryMethod(methodStopListening, newEmpty, voiceControlServer.StopListening),
		unaryMethod(methodSpeak, func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }, voiceControlServer.Speak),
		unaryMethod(methodStopSpeaking, newEmpty, voiceControlServer.StopSpeaking),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    streamSubscribe,
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "warden/v1/voice_control.proto",
}

var subscribeStreamDesc = &serviceDesc.Streams[0]

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func newEmpty() *emptypb.Empty {
	return new(emptypb.Empty)
}

func unaryMethod[T proto.Message](
	method string,
	newIn func() T,
	call func(voiceControlServer, context.Context, T) (*structpb.Struct, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newIn()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(voiceControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(voiceControlServer), ctx, req.(T))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(voiceControlServer).Subscribe(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}
