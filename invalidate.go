// invalidate.go
package mediagate

import "strconv"

// Invalidate evicts cache entries made stale by a successful remote mutation.
// It never fails: a stored key that cannot be parsed simply matches nothing
// and is skipped.
//
// Single-item entries are removed precisely, by matching each stored
// media-data key against the mutated (mediaId, username, mediaType) triple.
// List entries are removed coarsely, by clearing the whole user-data
// category: reconstructing the exact list key for every list-type/media-type
// combination the UI exposes is not proven exhaustive, so correctness wins
// over precision there. Search results are left alone; they do not reflect
// the user's personal list state and expire on their own short TTL.
func (m *Manager) Invalidate(inv Invalidation) {
	cache := m.config.cache
	mediaID := strconv.Itoa(inv.MediaID)

	removed := 0
	for _, key := range cache.Keys(CategoryMediaData) {
		fields := ParseKey(key)
		if fields["mediaId"] != mediaID {
			continue
		}
		// Username and media type narrow the match only when the mutation
		// reported them; a partial Invalidation still evicts by mediaId alone.
		if inv.Username != "" {
			if username, ok := fields["username"]; ok && username != inv.Username {
				continue
			}
		}
		if inv.MediaType != "" {
			if mediaType, ok := fields["mediaType"]; ok && mediaType != inv.MediaType {
				continue
			}
		}
		cache.Delete(CategoryMediaData, key)
		removed++
	}

	cache.ClearCategory(CategoryUserData)

	m.config.logger.Debug("cache invalidated after mutation",
		"mediaId", inv.MediaID,
		"username", inv.Username,
		"mediaType", inv.MediaType,
		"mediaDataRemoved", removed,
	)
}

// OnMediaMutated is a convenience wrapper for callers that track the mutated
// entity as loose values rather than an Invalidation.
func (m *Manager) OnMediaMutated(mediaID int, username, mediaType string) {
	m.Invalidate(Invalidation{MediaID: mediaID, Username: username, MediaType: mediaType})
}
