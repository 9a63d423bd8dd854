package server

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/builder"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

// evaluationFileName is the name the service's descriptor is registered
// under. There is no .proto source; the file is built at init time.
const evaluationFileName = "lox/v1/evaluation.proto"

var (
	evaluationFile    protoreflect.FileDescriptor
	evaluateMethod    protoreflect.MethodDescriptor
	disassembleMethod protoreflect.MethodDescriptor
)

func init() {
	fd, err := buildEvaluationFile()
	if err != nil {
		panic(fmt.Sprintf("server: building %s: %v", evaluationFileName, err))
	}

	sd := fd.FindService(EvaluationServiceName)
	evaluateMethod = sd.FindMethodByName("Evaluate").UnwrapMethod()
	disassembleMethod = sd.FindMethodByName("Disassemble").UnwrapMethod()

	// Registered globally so gRPC server reflection can describe the service.
	evaluationFile = fd.UnwrapFile()
	if err := protoregistry.GlobalFiles.RegisterFile(evaluationFile); err != nil {
		panic(fmt.Sprintf("server: registering %s: %v", evaluationFileName, err))
	}
}

// buildEvaluationFile describes lox.v1.EvaluationService:
//
//	message EvaluateRequest  { string source = 1; }
//	message EvaluateResponse { bool success = 1; string result = 2; string kind = 3;
//	                           string error_kind = 4; string error_message = 5;
//	                           repeated string diagnostics = 6; string session = 7; }
//	message DisassembleRequest  { string source = 1; string label = 2; }
//	message DisassembleResponse { string listing = 1; repeated string diagnostics = 2; }
func buildEvaluationFile() (*desc.FileDescriptor, error) {
	str := builder.FieldTypeString

	evalReq := builder.NewMessage("EvaluateRequest").
		AddField(builder.NewField("source", str()))
	evalResp := builder.NewMessage("EvaluateResponse").
		AddField(builder.NewField("success", builder.FieldTypeBool())).
		AddField(builder.NewField("result", str())).
		AddField(builder.NewField("kind", str())).
		AddField(builder.NewField("error_kind", str())).
		AddField(builder.NewField("error_message", str())).
		AddField(builder.NewField("diagnostics", str()).SetRepeated()).
		AddField(builder.NewField("session", str()))
	disReq := builder.NewMessage("DisassembleRequest").
		AddField(builder.NewField("source", str())).
		AddField(builder.NewField("label", str()))
	disResp := builder.NewMessage("DisassembleResponse").
		AddField(builder.NewField("listing", str())).
		AddField(builder.NewField("diagnostics", str()).SetRepeated())

	svc := builder.NewService("EvaluationService").
		AddMethod(builder.NewMethod("Evaluate",
			builder.RpcTypeMessage(evalReq, false), builder.RpcTypeMessage(evalResp, false))).
		AddMethod(builder.NewMethod("Disassemble",
			builder.RpcTypeMessage(disReq, false), builder.RpcTypeMessage(disResp, false)))

	return builder.NewFile(evaluationFileName).
		SetPackageName("lox.v1").
		SetProto3(true).
		AddMessage(evalReq).
		AddMessage(evalResp).
		AddMessage(disReq).
		AddMessage(disResp).
		AddService(svc).
		Build()
}

// ---------------------------------------------------------------------------
// Message conversion: Go structs <-> dynamic protobuf messages
// ---------------------------------------------------------------------------

func field(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic(fmt.Sprintf("server: %s has no field %q", m.Descriptor().FullName(), name))
	}
	return fd
}

func getString(m protoreflect.Message, name string) string {
	return m.Get(field(m, name)).String()
}

func setString(m protoreflect.Message, name, v string) {
	m.Set(field(m, name), protoreflect.ValueOfString(v))
}

func getStrings(m protoreflect.Message, name string) []string {
	l := m.Get(field(m, name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]string, l.Len())
	for i := range out {
		out[i] = l.Get(i).String()
	}
	return out
}

func setStrings(m protoreflect.Message, name string, vs []string) {
	if len(vs) == 0 {
		return
	}
	l := m.Mutable(field(m, name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfString(v))
	}
}

func (r *EvaluateRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(evaluateMethod.Input())
	setString(m, "source", r.Source)
	return m
}

func evaluateRequestFromProto(m *dynamicpb.Message) *EvaluateRequest {
	return &EvaluateRequest{Source: getString(m, "source")}
}

func (r *EvaluateResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(evaluateMethod.Output())
	m.Set(field(m, "success"), protoreflect.ValueOfBool(r.Success))
	setString(m, "result", r.Result)
	setString(m, "kind", r.Kind)
	setString(m, "error_kind", r.ErrorKind)
	setString(m, "error_message", r.ErrorMessage)
	setStrings(m, "diagnostics", r.Diagnostics)
	setString(m, "session", r.Session)
	return m
}

func evaluateResponseFromProto(m *dynamicpb.Message) *EvaluateResponse {
	return &EvaluateResponse{
		Success:      m.Get(field(m, "success")).Bool(),
		Result:       getString(m, "result"),
		Kind:         getString(m, "kind"),
		ErrorKind:    getString(m, "error_kind"),
		ErrorMessage: getString(m, "error_message"),
		Diagnostics:  getStrings(m, "diagnostics"),
		Session:      getString(m, "session"),
	}
}

func (r *DisassembleRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(disassembleMethod.Input())
	setString(m, "source", r.Source)
	setString(m, "label", r.Label)
	return m
}

func disassembleRequestFromProto(m *dynamicpb.Message) *DisassembleRequest {
	return &DisassembleRequest{
		Source: getString(m, "source"),
		Label:  getString(m, "label"),
	}
}

func (r *DisassembleResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(disassembleMethod.Output())
	setString(m, "listing", r.Listing)
	setStrings(m, "diagnostics", r.Diagnostics)
	return m
}

func disassembleResponseFromProto(m *dynamicpb.Message) *DisassembleResponse {
	return &DisassembleResponse{
		Listing:     getString(m, "listing"),
		Diagnostics: getStrings(m, "diagnostics"),
	}
}
