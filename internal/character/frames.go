package character

// frameKey identifies a scaled frame.
type frameKey struct {
	pose          Pose
	width, height int
}

type frameEntry struct {
	pix   []byte
	atime int64
}

// frameCache keeps recently used frames. When it grows past its soft
// limit the least recently used quarter is evicted. A limit of 0
// disables caching. Callers hold Renderer.mu.
type frameCache struct {
	entries map[frameKey]*frameEntry
	limit   int
	tick    int64
	hits    uint64
	misses  uint64
}

func newFrameCache(limit int) *frameCache {
	return &frameCache{entries: make(map[frameKey]*frameEntry), limit: limit}
}

func (c *frameCache) get(k frameKey) ([]byte, bool) {
	e, ok := c.entries[k]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.tick++
	e.atime = c.tick
	return e.pix, true
}

func (c *frameCache) put(k frameKey, pix []byte) {
	if c.limit <= 0 {
		return
	}
	c.tick++
	c.entries[k] = &frameEntry{pix: pix, atime: c.tick}
	if len(c.entries) > c.limit {
		c.evict()
	}
}

// evict drops the oldest entries until the cache is at three quarters of
// its limit.
func (c *frameCache) evict() {
	keep := max(c.limit*3/4, 1)
	n := len(c.entries) - keep
	if n <= 0 {
		return
	}
	for ; n > 0; n-- {
		var (
			oldest frameKey
			atime  int64 = -1
		)
		for k, e := range c.entries {
			if atime < 0 || e.atime < atime {
				oldest, atime = k, e.atime
			}
		}
		delete(c.entries, oldest)
	}
}

func (c *frameCache) clear() {
	clear(c.entries)
	c.tick = 0
}

func (c *frameCache) len() int { return len(c.entries) }
