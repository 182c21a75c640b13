package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "taxparser.v1.TaxFormService"

// Method names. Every request and response is a google.protobuf.Struct.
const (
	MethodUploadTaxForm   = "UploadTaxForm"
	MethodParseTaxForm    = "ParseTaxForm"
	MethodGetTaxForm      = "GetTaxForm"
	MethodListTaxForms    = "ListTaxForms"
	MethodDeleteTaxForm   = "DeleteTaxForm"
	MethodListFieldKinds  = "ListFieldKinds"
	MethodExportTaxForms  = "ExportTaxForms"
	MethodIngestDirectory = "IngestDirectory"
)

type TaxFormServiceServer interface {
	UploadTaxForm(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ParseTaxForm(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTaxForm(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTaxForms(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTaxForm(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFieldKinds(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportTaxForms(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestDirectory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(TaxFormServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TaxFormServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(TaxFormServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var TaxFormServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TaxFormServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodUploadTaxForm, TaxFormServiceServer.UploadTaxForm),
		unary(MethodParseTaxForm, TaxFormServiceServer.ParseTaxForm),
		unary(MethodGetTaxForm, TaxFormServiceServer.GetTaxForm),
		unary(MethodListTaxForms, TaxFormServiceServer.ListTaxForms),
		unary(MethodDeleteTaxForm, TaxFormServiceServer.DeleteTaxForm),
		unary(MethodListFieldKinds, TaxFormServiceServer.ListFieldKinds),
		unary(MethodExportTaxForms, TaxFormServiceServer.ExportTaxForms),
		unary(MethodIngestDirectory, TaxFormServiceServer.IngestDirectory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taxparser/v1/tax_form.proto",
}

func RegisterTaxFormServiceServer(s grpc.ServiceRegistrar, srv TaxFormServiceServer) {
	s.RegisterService(&TaxFormServiceDesc, srv)
}

// Client calls TaxFormService over any connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
