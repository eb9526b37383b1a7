package socket

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"rspengine/internal/hashroute"
	"rspengine/internal/ingest"
	"rspengine/internal/rdf"
)

type Config struct {
	Network, Address, UnixSocketPath, AuthToken string
	MaxInflight, GlobalQueueLimit               int
	TLSConfig                                   *tls.Config
}

type Server struct {
	cfg     Config
	sink    ingest.Sink
	ln      net.Listener
	addr    atomic.Value
	globalQ chan struct{}
	partQ   []chan queuedRequest
	closed  atomic.Bool
	wg      sync.WaitGroup
}

type queuedRequest struct {
	ctx     context.Context
	req     *SocketRequest
	conn    *connection
	release func()
}
type connection struct {
	c        net.Conn
	writerQ  chan *SocketResponse
	inflight chan struct{}
}

func NewServer(cfg Config, sink ingest.Sink) *Server {
	if cfg.MaxInflight <= 0 {
		cfg.MaxInflight = 64
	}
	if cfg.GlobalQueueLimit <= 0 {
		cfg.GlobalQueueLimit = 4096
	}
	if cfg.Network == "" {
		cfg.Network = "tcp"
	}
	s := &Server{cfg: cfg, sink: sink, globalQ: make(chan struct{}, cfg.GlobalQueueLimit), partQ: make([]chan queuedRequest, hashroute.PartitionCount)}
	for i := range s.partQ {
		s.partQ[i] = make(chan queuedRequest, 128)
	}
	return s
}

func (s *Server) Addr() string {
	if v := s.addr.Load(); v != nil {
		return v.(string)
	}
	return ""
}

func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Address
	if s.cfg.Network == "unix" {
		addr = s.cfg.UnixSocketPath
	}
	ln, err := net.Listen(s.cfg.Network, addr)
	if err != nil {
		return err
	}
	if s.cfg.TLSConfig != nil {
		ln = tls.NewListener(ln, s.cfg.TLSConfig)
	}
	s.ln = ln
	s.addr.Store(ln.Addr().String())

	for i := range s.partQ {
		s.wg.Add(1)
		go s.runPartitionWorker(s.partQ[i])
	}
	go func() { <-ctx.Done(); _ = s.Close() }()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Temporary() {
				continue
			}
			return err
		}
		s.handleConn(ctx, conn)
	}
}

func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for _, q := range s.partQ {
		close(q)
	}
	s.wg.Wait()
	return nil
}

func (s *Server) handleConn(ctx context.Context, raw net.Conn) {
	conn := &connection{c: raw, writerQ: make(chan *SocketResponse, 256), inflight: make(chan struct{}, s.cfg.MaxInflight)}
	s.wg.Add(2)
	go func() { defer s.wg.Done(); s.writeLoop(conn) }()
	go func() { defer s.wg.Done(); defer raw.Close(); defer close(conn.writerQ); s.readLoop(ctx, conn) }()
}

func (s *Server) writeLoop(conn *connection) {
	w := bufio.NewWriter(conn.c)
	for res := range conn.writerQ {
		payload, err := MarshalMessage(res)
		if err != nil {
			continue
		}
		if err := WriteFrame(w, payload); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) readLoop(ctx context.Context, conn *connection) {
	r := bufio.NewReader(conn.c)
	for {
		payload, err := ReadFrame(r)
		if err != nil {
			return
		}
		req, err := UnmarshalRequest(payload)
		if err != nil {
			s.send(conn, &SocketResponse{ErrorCode: int32(ErrorCodeBadRequest), ErrorMessage: err.Error()})
			continue
		}
		if err := ValidateRequest(req); err != nil {
			s.send(conn, &SocketResponse{RequestId: req.RequestId, ErrorCode: int32(ErrorCodeBadRequest), ErrorMessage: err.Error()})
			continue
		}
		if s.cfg.AuthToken != "" && req.AuthToken != s.cfg.AuthToken {
			s.send(conn, &SocketResponse{RequestId: req.RequestId, ErrorCode: int32(ErrorCodeUnauthenticated), ErrorMessage: "invalid auth token"})
			continue
		}

		select {
		case conn.inflight <- struct{}{}:
		default:
			s.send(conn, &SocketResponse{RequestId: req.RequestId, ErrorCode: int32(ErrorCodeOverloaded), ErrorMessage: "connection inflight limit exceeded"})
			continue
		}
		releaseInflight := func() { <-conn.inflight }
		select {
		case s.globalQ <- struct{}{}:
		default:
			releaseInflight()
			s.send(conn, &SocketResponse{RequestId: req.RequestId, ErrorCode: int32(ErrorCodeOverloaded), ErrorMessage: "adapter queue overloaded"})
			continue
		}

		qr := queuedRequest{ctx: ctx, req: req, conn: conn, release: func() { <-s.globalQ; releaseInflight() }}
		q := s.partQ[partitionFor(req)]
		select {
		case q <- qr:
		default:
			qr.release()
			s.send(conn, &SocketResponse{RequestId: req.RequestId, ErrorCode: int32(ErrorCodeOverloaded), ErrorMessage: "partition queue overloaded"})
		}
	}
}

func (s *Server) runPartitionWorker(q chan queuedRequest) {
	defer s.wg.Done()
	for req := range q {
		res := s.handleRequest(req.ctx, req.req)
		req.release()
		s.send(req.conn, res)
	}
}

func (s *Server) send(conn *connection, res *SocketResponse) {
	select {
	case conn.writerQ <- res:
	default:
	}
}

func partitionFor(req *SocketRequest) int {
	if req.Ingest != nil {
		return hashroute.PartitionForStreamKey(req.Ingest.StreamUri)
	}
	return 0
}

func (s *Server) handleRequest(ctx context.Context, req *SocketRequest) *SocketResponse {
	res := &SocketResponse{RequestId: req.RequestId, ErrorCode: int32(ErrorCodeOK)}
	switch Operation(req.Operation) {
	case OperationPing:
		res.Pong = &PongResponse{UnixTimeNs: time.Now().UTC().UnixNano()}
	case OperationHealth:
		res.Health = &HealthResponse{Ok: true, Message: "ok"}
	case OperationIngest:
		return s.handleIngest(req, res)
	default:
		return badReq(req, "unknown operation")
	}
	return res
}

func badReq(req *SocketRequest, msg string) *SocketResponse {
	return &SocketResponse{RequestId: req.RequestId, ErrorCode: int32(ErrorCodeBadRequest), ErrorMessage: msg}
}

func (s *Server) handleIngest(req *SocketRequest, res *SocketResponse) *SocketResponse {
	if req.Ingest == nil || req.Ingest.StreamUri == "" {
		return badReq(req, "ingest stream_uri required")
	}
	quads, err := toRDFQuads(req.Ingest.Quads)
	if err != nil {
		return badReq(req, err.Error())
	}
	if err := s.sink.AddQuads(req.Ingest.StreamUri, quads, req.Ingest.Timestamp); err != nil {
		res.ErrorCode, res.ErrorMessage = int32(ErrorCodeInternal), err.Error()
		return res
	}
	res.Ingest = &IngestResponse{Accepted: true}
	return res
}

func toRDFQuads(wire []*Quad) ([]rdf.Quad, error) {
	out := make([]rdf.Quad, 0, len(wire))
	for i, q := range wire {
		if q == nil || q.Subject == nil || q.Predicate == nil || q.Object == nil {
			return nil, fmt.Errorf("quad %d: missing term", i)
		}
		wq := ingest.WireQuad{
			Subject:   ingest.WireTerm{Kind: q.Subject.Kind, Value: q.Subject.Value, Lang: q.Subject.Lang, Datatype: q.Subject.Datatype},
			Predicate: ingest.WireTerm{Kind: q.Predicate.Kind, Value: q.Predicate.Value, Lang: q.Predicate.Lang, Datatype: q.Predicate.Datatype},
			Object:    ingest.WireTerm{Kind: q.Object.Kind, Value: q.Object.Value, Lang: q.Object.Lang, Datatype: q.Object.Datatype},
			Graph:     q.Graph,
		}
		decoded, err := ingest.DecodeQuad(wq)
		if err != nil {
			return nil, fmt.Errorf("quad %d: %w", i, err)
		}
		out = append(out, decoded)
	}
	return out, nil
}

func DialAndRequest(ctx context.Context, network, address string, req *SocketRequest) (*SocketResponse, error) {
	conn, err := (&net.Dialer{}).DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	payload, err := MarshalMessage(req)
	if err != nil {
		return nil, err
	}
	if err := WriteFrame(conn, payload); err != nil {
		return nil, err
	}
	frame, err := ReadFrame(bufio.NewReader(conn))
	if err != nil {
		return nil, err
	}
	return UnmarshalResponse(frame)
}

func Retryable(code int32) bool              { return ErrorCode(code) == ErrorCodeOverloaded }
func Error(code ErrorCode, msg string) error { return fmt.Errorf("%d:%s", code, msg) }
