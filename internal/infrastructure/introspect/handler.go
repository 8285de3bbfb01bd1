// Package introspect exposes a World's runtime state over HTTP for
// external devtools, without requiring a generated .proto service: the
// request/response messages are the well-known structpb/emptypb types
// connect-go already knows how to marshal.
package introspect

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/AdelNorberg/ecsy/internal/domain/ecs"
	"github.com/AdelNorberg/ecsy/internal/infrastructure/pool"
)

const (
	procedureStats  = "/ecsy.introspect.v1.Introspect/GetStats"
	procedureQuery  = "/ecsy.introspect.v1.Introspect/GetQuery"
	procedureSystem = "/ecsy.introspect.v1.Introspect/GetSystem"
	queryParamKey   = "key"
	systemParamName = "name"
)

// Service answers introspection requests against a single World. It is
// not safe to point at a World that's being driven by Execute from
// another goroutine -- callers are expected to serialize access the
// same way the rest of this module assumes single-threaded World use.
type Service struct {
	world   *ecs.World
	buffers *pool.BufferPool
}

// NewService builds an introspection Service over world.
func NewService(world *ecs.World) *Service {
	return &Service{world: world, buffers: pool.NewBufferPool()}
}

// GetStats handles GetStats: the world's aggregate occupancy as a
// protobuf Struct.
func (s *Service) GetStats(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	stats, err := s.world.ToJSON()
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(stats), nil
}

// keyFromRequest reads a string field out of a request Struct, standing
// in for a generated request message's single field.
func keyFromRequest(s *structpb.Struct, field string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.Fields[field]
	if !ok {
		return "", false
	}
	return v.GetStringValue(), true
}

// GetQuery handles GetQuery: one query's predicate and current size,
// looked up by its canonical key under the "key" field of the request
// Struct.
func (s *Service) GetQuery(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	key, ok := keyFromRequest(req.Msg, queryParamKey)
	if !ok || key == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("missing %q field", queryParamKey))
	}
	q, ok := s.world.QueryByKey(ecs.QueryKey(key))
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("query %q not found", key))
	}
	out, err := q.ToJSON(s.world)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// GetSystem handles GetSystem: one registered system's scheduling state
// and bound queries, looked up by name under the "name" field.
func (s *Service) GetSystem(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	name, ok := keyFromRequest(req.Msg, systemParamName)
	if !ok || name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("missing %q field", systemParamName))
	}
	if s.world.GetSystem(name) == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("system %q not registered", name))
	}
	out, err := s.world.SystemJSON(name)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// debugStats serves the same data as GetStats but as plain JSON over a
// bare GET, for a curl/browser without a Connect client. It borrows its
// write buffer from the service's BufferPool rather than letting
// w.Write's underlying transport allocate one per request.
func (s *Service) debugStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.world.ToJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	body, err := ecs.MarshalJSON(stats)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	buf := s.buffers.Get(len(body))
	defer s.buffers.Put(buf)
	copy(buf, body)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf[:len(body)])
}

// NewHandler builds the mux routes for a Service: three unary Connect
// handlers under their procedure paths plus a plain-HTTP debug mirror of
// GetStats at /debug/stats. The returned path is the procedure prefix
// only; a caller that serves the mirror also mounts the handler at
// /debug/stats.
func NewHandler(svc *Service) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(procedureStats, connect.NewUnaryHandler(procedureStats, svc.GetStats))
	mux.Handle(procedureQuery, connect.NewUnaryHandler(procedureQuery, svc.GetQuery))
	mux.Handle(procedureSystem, connect.NewUnaryHandler(procedureSystem, svc.GetSystem))
	mux.HandleFunc("/debug/stats", svc.debugStats)
	return "/ecsy.introspect.v1.Introspect/", mux
}
