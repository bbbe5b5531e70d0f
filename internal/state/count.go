package state

// estimateTotal derives the displayed total from the cache length after a
// fetch or reload. The backend never reports a count, so the estimate is a
// UX device: when the most recent page came back full, the pagination
// control is offered exactly one more item than confirmed, which keeps a
// next-page affordance visible and triggers the next fetch on demand. When
// the page came back short, the collection end is known and the cache
// length is exact.
//
// The estimate is never used to validate fetch indices.
func estimateTotal(cacheLen, requestedPage, pageSize int) int {
	if cacheLen >= requestedPage*pageSize {
		return cacheLen + 1
	}
	return cacheLen
}
