package metastore

import (
	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
)

// SetDotrain caches text as a Dotrain payload and binds uri to its hash.
// When uri was bound to a different hash and keepOld is false, the old
// payload is evicted unless another URI still references it.
func (s *Store) SetDotrain(text, uri string, keepOld bool) ir.Hash {
	payload := meta.EncodeDotrain(text)
	hash := ir.ContentHash(payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache[hash]; !ok {
		s.cache[hash] = payload
	}
	old, had := s.dotrains[uri]
	s.dotrains[uri] = hash
	if had && old != hash && !keepOld && !s.referencedLocked(old) {
		delete(s.cache, old)
		s.logger.Debug("evicted stale document", "uri", uri, "hash", old.String())
	}
	return hash
}

// DeleteDotrain unbinds uri. Unless keepMeta is set, the document payload is
// evicted too when no other URI references it.
func (s *Store) DeleteDotrain(uri string, keepMeta bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.dotrains[uri]
	if !ok {
		return
	}
	delete(s.dotrains, uri)
	if !keepMeta && !s.referencedLocked(hash) {
		delete(s.cache, hash)
	}
}

// GetDotrainHash returns the hash uri is bound to.
func (s *Store) GetDotrainHash(uri string) (ir.Hash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.dotrains[uri]
	return h, ok
}

// GetDotrainURI returns a URI bound to hash. When several URIs share the
// hash the lexically smallest is returned.
func (s *Store) GetDotrainURI(hash ir.Hash) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		best  string
		found bool
	)
	for uri, h := range s.dotrains {
		if h == hash && (!found || uri < best) {
			best, found = uri, true
		}
	}
	return best, found
}

// referencedLocked reports whether any URI is bound to hash. Caller holds mu.
func (s *Store) referencedLocked(hash ir.Hash) bool {
	for _, h := range s.dotrains {
		if h == hash {
			return true
		}
	}
	return false
}
