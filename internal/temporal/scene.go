package temporal

import "sync"

// Scene marks a span of the playback timeline with a semantic type ("medical",
// "combat", ...). Scene types reinforce categories whose route table entry
// lists them as an affinity.
type Scene struct {
	ID    string
	Type  string
	Start float64
	End   float64
}

// Contains reports whether the scene covers the given playback time.
func (s Scene) Contains(ts float64) bool {
	return ts >= s.Start && ts <= s.End
}

// maxScenes bounds the timeline regardless of retention so a misbehaving
// scene feed cannot grow memory without bound.
const maxScenes = 128

// SceneTimeline is the shared, read-mostly record of observed scenes. One
// timeline serves all category shards; writes come from the scene ingestion
// path and reads from every regularization call, so it carries its own lock
// unlike the per-category regularizer state.
type SceneTimeline struct {
	mu        sync.RWMutex
	retention float64
	scenes    []Scene
}

// NewSceneTimeline builds a timeline that forgets scenes ending more than
// retention seconds before the newest observation.
func NewSceneTimeline(retention float64) *SceneTimeline {
	if retention <= 0 {
		retention = 30
	}
	return &SceneTimeline{retention: retention}
}

// Observe records a scene span. Spans with a non-positive duration are
// ignored.
func (tl *SceneTimeline) Observe(scene Scene) {
	if scene.End <= scene.Start {
		return
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.scenes = append(tl.scenes, scene)
	tl.pruneLocked(scene.End)
}

// ActiveAt returns the scenes covering the given playback time.
func (tl *SceneTimeline) ActiveAt(ts float64) []Scene {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	var active []Scene
	for _, scene := range tl.scenes {
		if scene.Contains(ts) {
			active = append(active, scene)
		}
	}
	return active
}

// Len returns the number of retained scenes.
func (tl *SceneTimeline) Len() int {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return len(tl.scenes)
}

// Reset discards all scenes, e.g. when playback switches titles.
func (tl *SceneTimeline) Reset() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.scenes = nil
}

func (tl *SceneTimeline) pruneLocked(now float64) {
	cutoff := now - tl.retention
	kept := tl.scenes[:0]
	for _, scene := range tl.scenes {
		if scene.End >= cutoff {
			kept = append(kept, scene)
		}
	}
	tl.scenes = kept
	if overflow := len(tl.scenes) - maxScenes; overflow > 0 {
		tl.scenes = append(tl.scenes[:0], tl.scenes[overflow:]...)
	}
}
