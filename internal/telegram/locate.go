package telegram

import (
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

// matchTarget resolves a configured target against the known groups. A
// numeric target is trusted even when no matching group has been seen yet,
// since sending by ID works without prior updates. Returns how the match
// was made for the connect log.
func matchTarget(groups []transport.Group, target string) (transport.Group, string, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return transport.Group{}, "", false
	}

	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		want := transport.NormalizeChatID(id)
		for _, g := range groups {
			if transport.NormalizeChatID(g.ID) == want {
				return g, "known id", true
			}
		}
		return transport.Group{ID: id}, "configured id", true
	}

	for _, g := range groups {
		if g.Broadcast {
			continue
		}
		if strings.EqualFold(g.Title, target) {
			return g, "title match", true
		}
	}
	return transport.Group{}, "", false
}

// firstUsable picks the first non-broadcast group, relying on the caller
// passing groups in most-recently-seen order.
func firstUsable(groups []transport.Group) (transport.Group, bool) {
	for _, g := range groups {
		if !g.Broadcast {
			return g, true
		}
	}
	return transport.Group{}, false
}
