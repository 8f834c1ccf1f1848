package protobuf

import (
	"fmt"

	"reviewsubgraph/internal/schema/types"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Format implements types.DefinitionCodec for Protobuf. The message type is
// described at runtime, so no generated code is needed:
//
//	message SchemaDefinition {
//	  string name = 1;
//	  string document = 2;
//	  repeated string extension_documents = 3;
//	}
type Format struct {
	message            protoreflect.MessageDescriptor
	name               protoreflect.FieldDescriptor
	document           protoreflect.FieldDescriptor
	extensionDocuments protoreflect.FieldDescriptor
}

// New creates a new Protobuf format implementation
func New() (*Format, error) {
	fileDesc, err := protodesc.NewFile(fileDescriptorProto(), protoregistry.GlobalFiles)
	if err != nil {
		return nil, fmt.Errorf("create file descriptor: %w", err)
	}

	message := fileDesc.Messages().ByName("SchemaDefinition")
	if message == nil {
		return nil, fmt.Errorf("no message type found in schema")
	}

	fields := message.Fields()
	return &Format{
		message:            message,
		name:               fields.ByName("name"),
		document:           fields.ByName("document"),
		extensionDocuments: fields.ByName("extension_documents"),
	}, nil
}

func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	str := descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum()
	optional := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("reviewsubgraph/v1/schema_definition.proto"),
		Package: proto.String("reviewsubgraph.v1"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("SchemaDefinition"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{Name: proto.String("name"), JsonName: proto.String("name"), Number: proto.Int32(1), Label: optional, Type: str},
				{Name: proto.String("document"), JsonName: proto.String("document"), Number: proto.Int32(2), Label: optional, Type: str},
				{Name: proto.String("extension_documents"), JsonName: proto.String("extensionDocuments"), Number: proto.Int32(3), Label: repeated, Type: str},
			},
		}},
	}
}

func (f *Format) Name() string {
	return "protobuf"
}

func (f *Format) Encode(def types.SchemaDefinition) ([]byte, error) {
	message := dynamicpb.NewMessage(f.message)
	message.Set(f.name, protoreflect.ValueOfString(def.Name))
	message.Set(f.document, protoreflect.ValueOfString(def.Document))

	list := message.Mutable(f.extensionDocuments).List()
	for _, ext := range def.ExtensionDocuments {
		list.Append(protoreflect.ValueOfString(ext))
	}

	data, err := proto.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return data, nil
}

func (f *Format) Decode(data []byte) (types.SchemaDefinition, error) {
	message := dynamicpb.NewMessage(f.message)
	if err := proto.Unmarshal(data, message); err != nil {
		return types.SchemaDefinition{}, fmt.Errorf("unmarshal message: %w", err)
	}

	def := types.SchemaDefinition{
		Name:     message.Get(f.name).String(),
		Document: message.Get(f.document).String(),
	}
	if def.Name == "" {
		return types.SchemaDefinition{}, fmt.Errorf("unmarshal message: missing name")
	}

	list := message.Get(f.extensionDocuments).List()
	def.ExtensionDocuments = make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		def.ExtensionDocuments = append(def.ExtensionDocuments, list.Get(i).String())
	}
	return def, nil
}
