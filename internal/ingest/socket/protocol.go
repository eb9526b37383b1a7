package socket

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

type Operation int32

const (
	OperationUnknown Operation = 0
	OperationIngest  Operation = 1
	OperationPing    Operation = 2
	OperationHealth  Operation = 3
)

type ErrorCode int32

const (
	ErrorCodeOK              ErrorCode = 0
	ErrorCodeBadRequest      ErrorCode = 1
	ErrorCodeUnauthenticated ErrorCode = 2
	ErrorCodeOverloaded      ErrorCode = 3
	ErrorCodeInternal        ErrorCode = 4
)

type SocketRequest struct {
	RequestId string         `protobuf:"bytes,1,opt,name=request_id,json=requestId,proto3"`
	AuthToken string         `protobuf:"bytes,2,opt,name=auth_token,json=authToken,proto3"`
	Operation int32          `protobuf:"varint,3,opt,name=operation,proto3"`
	Ingest    *IngestRequest `protobuf:"bytes,4,opt,name=ingest,proto3"`
	Ping      *PingRequest   `protobuf:"bytes,5,opt,name=ping,proto3"`
}

func (*SocketRequest) Reset()         {}
func (*SocketRequest) String() string { return "SocketRequest" }
func (*SocketRequest) ProtoMessage()  {}

type SocketResponse struct {
	RequestId    string          `protobuf:"bytes,1,opt,name=request_id,json=requestId,proto3"`
	ErrorCode    int32           `protobuf:"varint,2,opt,name=error_code,json=errorCode,proto3"`
	ErrorMessage string          `protobuf:"bytes,3,opt,name=error_message,json=errorMessage,proto3"`
	Ingest       *IngestResponse `protobuf:"bytes,4,opt,name=ingest,proto3"`
	Pong         *PongResponse   `protobuf:"bytes,5,opt,name=pong,proto3"`
	Health       *HealthResponse `protobuf:"bytes,6,opt,name=health,proto3"`
}

func (*SocketResponse) Reset()         {}
func (*SocketResponse) String() string { return "SocketResponse" }
func (*SocketResponse) ProtoMessage()  {}

// Term is the wire encoding of an rdf.Term within a QuadBatch message.
type Term struct {
	Kind     string `protobuf:"bytes,1,opt,name=kind,proto3"`
	Value    string `protobuf:"bytes,2,opt,name=value,proto3"`
	Lang     string `protobuf:"bytes,3,opt,name=lang,proto3"`
	Datatype string `protobuf:"bytes,4,opt,name=datatype,proto3"`
}

func (*Term) Reset()         {}
func (*Term) String() string { return "Term" }
func (*Term) ProtoMessage()  {}

// Quad is the wire encoding of an rdf.Quad. Graph is empty for the
// default graph.
type Quad struct {
	Subject   *Term  `protobuf:"bytes,1,opt,name=subject,proto3"`
	Predicate *Term  `protobuf:"bytes,2,opt,name=predicate,proto3"`
	Object    *Term  `protobuf:"bytes,3,opt,name=object,proto3"`
	Graph     string `protobuf:"bytes,4,opt,name=graph,proto3"`
}

func (*Quad) Reset()         {}
func (*Quad) String() string { return "Quad" }
func (*Quad) ProtoMessage()  {}

// IngestRequest is a QuadBatch: a stream URI, its quads, and the
// timestamp they all share.
type IngestRequest struct {
	StreamUri string  `protobuf:"bytes,1,opt,name=stream_uri,json=streamUri,proto3"`
	Quads     []*Quad `protobuf:"bytes,2,rep,name=quads,proto3"`
	Timestamp int64   `protobuf:"varint,3,opt,name=timestamp,proto3"`
}

func (*IngestRequest) Reset()         {}
func (*IngestRequest) String() string { return "IngestRequest" }
func (*IngestRequest) ProtoMessage()  {}

type IngestResponse struct {
	Accepted bool `protobuf:"varint,1,opt,name=accepted,proto3"`
}

func (*IngestResponse) Reset()         {}
func (*IngestResponse) String() string { return "IngestResponse" }
func (*IngestResponse) ProtoMessage()  {}

type PingRequest struct{}

func (*PingRequest) Reset()         {}
func (*PingRequest) String() string { return "PingRequest" }
func (*PingRequest) ProtoMessage()  {}

type PongResponse struct {
	UnixTimeNs int64 `protobuf:"varint,1,opt,name=unix_time_ns,json=unixTimeNs,proto3"`
}

func (*PongResponse) Reset()         {}
func (*PongResponse) String() string { return "PongResponse" }
func (*PongResponse) ProtoMessage()  {}

type HealthResponse struct {
	Ok      bool   `protobuf:"varint,1,opt,name=ok,proto3"`
	Message string `protobuf:"bytes,2,opt,name=message,proto3"`
}

func (*HealthResponse) Reset()         {}
func (*HealthResponse) String() string { return "HealthResponse" }
func (*HealthResponse) ProtoMessage()  {}

func MarshalMessage(msg proto.Message) ([]byte, error) { return proto.Marshal(msg) }

func UnmarshalRequest(payload []byte) (*SocketRequest, error) {
	var req SocketRequest
	if err := proto.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func UnmarshalResponse(payload []byte) (*SocketResponse, error) {
	var res SocketResponse
	if err := proto.Unmarshal(payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func ValidateRequest(req *SocketRequest) error {
	if req == nil {
		return fmt.Errorf("nil request")
	}
	if req.Operation == int32(OperationUnknown) {
		return fmt.Errorf("operation is required")
	}
	return nil
}
