package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/core/ingest"
	"github.com/joseph-ayodele/docsense/internal/core/result"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

const (
	DocumentServiceName   = "docsense.v1.DocumentService"
	DocumentProcessMethod = "/" + DocumentServiceName + "/Process"
	documentProtoFile     = "docsense/v1/document.proto"
)

// The service has no .proto on disk; its file descriptor is registered
// here so reflection clients such as grpcurl can describe it.
func init() {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(documentProtoFile),
		Package:    proto.String("docsense.v1"),
		Syntax:     proto.String("proto3"),
		Dependency: []string{"google/protobuf/wrappers.proto", "google/protobuf/struct.proto"},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("DocumentService"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:       proto.String("Process"),
				InputType:  proto.String(".google.protobuf.BytesValue"),
				OutputType: proto.String(".google.protobuf.Struct"),
			}},
		}},
	}
	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("build %s descriptor: %v", documentProtoFile, err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("register %s descriptor: %v", documentProtoFile, err))
	}
}

// DocumentServiceServer processes one image per call. The request carries
// the raw image bytes and the response is the result view as a Struct.
type DocumentServiceServer interface {
	Process(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error)
}

func documentServiceProcessHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentServiceServer).Process(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DocumentProcessMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DocumentServiceServer).Process(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// DocumentServiceDesc describes the service using well-known wrapper types,
// so no generated stubs are needed on either side.
var DocumentServiceDesc = grpc.ServiceDesc{
	ServiceName: DocumentServiceName,
	HandlerType: (*DocumentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Process", Handler: documentServiceProcessHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: documentProtoFile,
}

type DocumentService struct {
	proc    Processor
	timeout time.Duration
	logger  *slog.Logger
}

var _ DocumentServiceServer = (*DocumentService)(nil)

func NewDocumentService(proc Processor, timeout time.Duration, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &DocumentService{proc: proc, timeout: timeout, logger: logger}
}

func (s *DocumentService) Process(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	data := req.GetValue()
	if len(data) == 0 {
		return nil, common.InvalidArgumentError("image bytes are required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.proc.ProcessDocument(ctx, ingest.FromBytes("grpc-upload", data))
	if err != nil {
		s.logger.Warn("grpc process failed", "code", common.CodeOf(err), "error", err)
		return nil, common.ToStatus(err)
	}
	out, err := ViewStruct(res.View())
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return out, nil
}

// ViewStruct validates view and converts it to a protobuf Struct.
func ViewStruct(view entity.ResultView) (*structpb.Struct, error) {
	if err := result.Validate(view); err != nil {
		return nil, err
	}
	b, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("marshal view: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal view: %w", err)
	}
	return structpb.NewStruct(m)
}

// NewGRPCServer registers the document service together with health and reflection.
func NewGRPCServer(svc DocumentServiceServer, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(DocumentServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(gs)
	gs.RegisterService(&DocumentServiceDesc, svc)
	return gs, hs
}

// ProcessRemote calls DocumentService/Process on cc.
func ProcessRemote(ctx context.Context, cc grpc.ClientConnInterface, image []byte, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, DocumentProcessMethod, wrapperspb.Bytes(image), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
