package hub

import (
	"encoding/json"
	"sort"
)

// Presence broadcasts the online-user set to every live connection so client
// sidebars can show who is reachable right now.
type Presence struct {
	reg *Registry
}

// NewPresence subscribes to registry evictions: a connection torn down by a
// failed push counts as an unregister, so it re-announces like any other.
func NewPresence(reg *Registry) *Presence {
	p := &Presence{reg: reg}
	reg.NotifyEvictions(func(string) { p.Announce() })
	return p
}

// Announce pushes the current online-user set to all connections. Call it
// after any register or successful unregister; evictions announce through the
// registry callback.
func (p *Presence) Announce() {
	ids := p.reg.OnlineUserIDs()
	sort.Strings(ids)

	out, err := json.Marshal(onlineUsersEvent{Type: EventOnlineUsers, UserIDs: ids})
	if err != nil {
		return
	}
	p.reg.Broadcast(out)
}
