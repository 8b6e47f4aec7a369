package cache

import (
	"maps"
	"slices"
)

// Keyer derives cache keys from the inputs of each pipeline stage.
type Keyer interface {
	// SceneKey identifies the drawing of a tree with the given options. It
	// is not stored itself; its hash feeds ArtifactKey.
	SceneKey(treeHash string, opts SceneKeyOpts) string

	// ArtifactKey identifies one exported file of a scene.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// SceneKeyOpts lists every option that changes a scene.
type SceneKeyOpts struct {
	Viz          string
	Width        float64
	Height       float64
	FontSize     float64
	NodeSize     float64
	NodeLabels   bool
	ShowInternal bool
	Detailed     bool
	JitterX      float64
	JitterY      float64
	IDPrefix     string
	Mutations    map[int]string
}

// ArtifactKeyOpts lists every option that changes an exported file.
type ArtifactKeyOpts struct {
	Format     string
	Scale      float64
	Class      string
	Background string
	CSSHash    string
}

// DefaultKeyer produces keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SceneKey implements [Keyer].
func (DefaultKeyer) SceneKey(treeHash string, opts SceneKeyOpts) string {
	// map iteration order is random; hash mutations in index order
	muts := make([]any, 0, 2*len(opts.Mutations))
	for _, i := range slices.Sorted(maps.Keys(opts.Mutations)) {
		muts = append(muts, i, opts.Mutations[i])
	}
	return hashKey("scene", treeHash, opts.Viz, opts.Width, opts.Height, opts.FontSize, opts.NodeSize,
		opts.NodeLabels, opts.ShowInternal, opts.Detailed, opts.JitterX, opts.JitterY, opts.IDPrefix, muts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts.Format, opts.Scale, opts.Class, opts.Background, opts.CSSHash)
}
