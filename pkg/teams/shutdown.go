package teams

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// pendingShutdown tracks one in-flight two-phase shutdown handshake:
// the controller sends shutdown_request, the teammate drains it,
// finishes its in-flight tool round, and sends back shutdown_response
// echoing the same request_id before exiting its loop.
type pendingShutdown struct {
	Team     string
	Name     string
	IssuedAt time.Time
}

// shutdownTracker is the registry-wide table of outstanding shutdown
// handshakes, keyed by request_id.
type shutdownTracker struct {
	mu      sync.Mutex
	pending map[string]pendingShutdown
}

func newShutdownTracker() *shutdownTracker {
	return &shutdownTracker{pending: make(map[string]pendingShutdown)}
}

// issue allocates a fresh request_id for a shutdown request and records it.
func (s *shutdownTracker) issue(team, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.pending[id] = pendingShutdown{Team: team, Name: name, IssuedAt: time.Now()}
	return id
}

// resolve removes a request_id once its shutdown_response has been
// observed. A caller may also proceed without ever observing the
// response: Registry.DeleteTeam flips member status to shutdown directly
// as a safety net, so an unresolved entry here is not itself an error:
// it just means the handshake's second phase was never witnessed.
func (s *shutdownTracker) resolve(requestID string) (pendingShutdown, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[requestID]
	if ok {
		delete(s.pending, requestID)
	}
	return p, ok
}
