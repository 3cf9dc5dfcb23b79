package transport

// NormalizeChatID maps the platform's marked supergroup IDs and their bare
// forms to one canonical value, so a chat configured either way still
// matches the IDs events arrive with.
func NormalizeChatID(id int64) int64 {
	const supergroupOffset = 1_000_000_000_000
	if id <= -supergroupOffset {
		return -id - supergroupOffset
	}
	if id < 0 {
		return -id
	}
	return id
}
