// Package session implements the per-connection state machine: Unauth ->
// Auth, and the per-request dispatch loop shared by every transport.
package session

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/nhr-fau/voidkv/internal/corelog"
	"github.com/nhr-fau/voidkv/internal/store"
	"github.com/nhr-fau/voidkv/internal/value"
	"github.com/nhr-fau/voidkv/internal/wire"
)

// Transport is the per-connection boundary a session dispatches against.
// The binary transport implements it directly on wire.Codec; WebSocket
// implements it over JSON text frames.
type Transport interface {
	Recv(ctx context.Context) (value.Request, error)
	Send(resp value.Response) error
}

// state is the C6 connection state machine.
type state uint8

const (
	stateUnauth state = iota
	stateAuth
)

// Session owns one connection's lifetime: it authenticates, dispatches
// requests against the shared store, and replies in strict request/
// response order.
type Session struct {
	id        string
	transport Transport
	store     *store.Store
	auth      *Authenticator
	state     state
}

// New constructs a session in the Unauth state. id is used only for log
// correlation (e.g. the remote address).
func New(id string, transport Transport, st *store.Store, auth *Authenticator) *Session {
	return &Session{id: id, transport: transport, store: st, auth: auth, state: stateUnauth}
}

// RejectConnLimit sends a single ConnLimit response without constructing
// a Session at all; called by the listener when admission control is
// already saturated.
func RejectConnLimit(transport Transport) {
	_ = transport.Send(value.StatusOnly(value.StatusConnLimit))
}

// Run drives the per-request loop until the connection closes or a fatal
// I/O error occurs. ctx is only handed to Recv; Run itself does not watch
// it, so cancellation ends a session only where the transport observes
// ctx (the codec's pooled decompression). Responses are always sent in the
// order their requests were received, since each iteration sends before
// reading the next request. A response too large to send is replaced by a
// ResponseTooLarge status.
func (s *Session) Run(ctx context.Context) {
	for {
		req, err := s.transport.Recv(ctx)
		if err != nil {
			switch classifyRecvError(err) {
			case recvClosed:
				return
			case recvContinue:
				continue
			case recvStatus:
				status := statusForRecvError(err)
				if sendErr := s.transport.Send(value.StatusOnly(status)); sendErr != nil {
					corelog.Debugf("session %s: send after recv error: %s", s.id, sendErr)
					return
				}
				continue
			case recvFatal:
				corelog.Debugf("session %s: fatal recv error: %s", s.id, err)
				return
			}
		}

		resp := s.dispatch(req)
		err = s.transport.Send(resp)
		if errors.Is(err, wire.ErrResponseTooLarge) {
			err = s.transport.Send(value.StatusOnly(value.StatusResponseTooLarge))
		}
		if err != nil {
			corelog.Debugf("session %s: send error: %s", s.id, err)
			return
		}
	}
}

// dispatch handles one request and always returns a response; it never
// returns an error because every failure mode here is request-level and
// status-bearing, not connection-fatal.
func (s *Session) dispatch(req value.Request) value.Response {
	if s.state == stateUnauth {
		switch req.Action {
		case value.ActionPing:
			return value.OK(value.PongPayload{})
		case value.ActionAuth:
			return s.handleAuth(req)
		default:
			return value.StatusOnly(value.StatusUnauthorized)
		}
	}

	switch req.Action {
	case value.ActionPing:
		return value.OK(value.PongPayload{})
	case value.ActionAuth:
		return s.handleAuth(req)
	case value.ActionListTables:
		return value.OK(value.TablesPayload{Tables: s.store.ListTables()})
	case value.ActionInsertTable:
		return s.handleInsertTable(req)
	case value.ActionGetTable:
		return s.handleGetTable(req)
	case value.ActionDeleteTable:
		s.store.DeleteTable(req.Table)
		return value.OKEmpty
	case value.ActionList:
		return s.handleListKeys(req)
	case value.ActionGet:
		return s.handleGet(req)
	case value.ActionDelete:
		return s.handleDelete(req)
	case value.ActionInsert:
		return s.handleInsert(req)
	default:
		return value.StatusOnly(value.StatusBadRequest)
	}
}

// handleAuth implements the decided re-auth semantics: a second AUTH
// while already authenticated always replies OK without re-checking the
// password, and the session stays Auth regardless of what was sent.
func (s *Session) handleAuth(req value.Request) value.Response {
	if s.state == stateAuth {
		return value.OKEmpty
	}
	if !s.auth.Check(req.Username, req.Password) {
		return value.StatusOnly(value.StatusBadCredentials)
	}
	s.state = stateAuth
	return value.OKEmpty
}

func (s *Session) handleInsertTable(req value.Request) value.Response {
	if err := s.store.InsertTable(req.Table, req.Contents); err != nil {
		return value.StatusOnly(statusForStoreError(err))
	}
	return value.OKEmpty
}

func (s *Session) handleGetTable(req value.Request) value.Response {
	tbl, err := s.store.GetTable(req.Table)
	if err != nil {
		return value.StatusOnly(statusForStoreError(err))
	}
	return value.OK(value.TablePayload{Table: tbl})
}

func (s *Session) handleListKeys(req value.Request) value.Response {
	keys, err := s.store.ListKeys(req.Table)
	if err != nil {
		return value.StatusOnly(statusForStoreError(err))
	}
	return value.OK(value.KeysPayload{Keys: keys})
}

func (s *Session) handleGet(req value.Request) value.Response {
	tv, err := s.store.Get(req.Table, req.Key)
	if err != nil {
		return value.StatusOnly(statusForStoreError(err))
	}
	return value.OK(value.TableValuePayload{Table: req.Table, Key: req.Key, Value: tv})
}

func (s *Session) handleDelete(req value.Request) value.Response {
	if err := s.store.Delete(req.Table, req.Key); err != nil {
		return value.StatusOnly(statusForStoreError(err))
	}
	return value.OKEmpty
}

func (s *Session) handleInsert(req value.Request) value.Response {
	if req.Value == nil {
		return value.StatusOnly(value.StatusBadRequest)
	}
	itv := value.InsertTableValue{Value: *req.Value, Lifetime: req.Lifetime}
	if err := s.store.Insert(req.Table, req.Key, itv); err != nil {
		return value.StatusOnly(statusForStoreError(err))
	}
	return value.OKEmpty
}

func statusForStoreError(err error) value.Status {
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return value.StatusAlreadyExists
	case errors.Is(err, store.ErrNoSuchTable):
		return value.StatusNoSuchTable
	case errors.Is(err, store.ErrNoSuchKey):
		return value.StatusNoSuchKey
	case errors.Is(err, store.ErrKeyExpired):
		return value.StatusKeyExpired
	default:
		return value.StatusServerError
	}
}

type recvOutcome uint8

const (
	recvClosed recvOutcome = iota
	recvContinue
	recvStatus
	recvFatal
)

// classifyRecvError sorts a Recv error into one of four propagation
// classes: clean close ends the session, framing/parse failures are
// status-bearing and the loop continues, network timeouts are retried,
// everything else is fatal.
func classifyRecvError(err error) recvOutcome {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return recvClosed
	}
	if errors.Is(err, wire.ErrRequestTooLarge) || errors.Is(err, wire.ErrBadFrame) {
		return recvStatus
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return recvContinue
	}
	return recvFatal
}

func statusForRecvError(err error) value.Status {
	switch {
	case errors.Is(err, wire.ErrRequestTooLarge):
		return value.StatusRequestTooLarge
	case errors.Is(err, wire.ErrBadFrame):
		return value.StatusBadRequest
	default:
		return value.StatusServerError
	}
}
