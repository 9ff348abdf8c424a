package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. The CLI scopes keys
// by build version so that an upgraded binary never reads artifacts an
// older renderer wrote.
//
//	keyer := cache.NewScopedKeyer(nil, "v0.3.0:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArtifactKey implements [Keyer].
func (k *ScopedKeyer) ArtifactKey(format, contentHash string) string {
	return k.prefix + k.inner.ArtifactKey(format, contentHash)
}
