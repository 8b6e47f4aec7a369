package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. The server scopes keys
// per deployment so instances sharing one Redis do not collide:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "coaldraw:staging:")
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

// SceneKey generates a prefixed scene key.
func (k *ScopedKeyer) SceneKey(treeHash string, opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(treeHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sceneHash, opts)
}
