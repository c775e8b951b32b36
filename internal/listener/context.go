package listener

import (
	"github.com/nhr-fau/voidkv/internal/compress"
	"github.com/nhr-fau/voidkv/internal/session"
	"github.com/nhr-fau/voidkv/internal/store"
)

// ServerContext bundles the collaborators every listener and session
// needs, built once in voidserver.Run and shared by handle rather than
// reached for through package-level globals — the source's write-once
// globals (config, store, TLS acceptor) become this one immutable value
// instead.
type ServerContext struct {
	Store     *store.Store
	Auth      *session.Authenticator
	Admission *Admission
	Pool      *compress.Pool
}
