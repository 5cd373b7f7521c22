package libutil

// ReleaseGroup collects owned handles while a group of resources is being
// acquired. Handles are deleted in reverse acquisition order.
type ReleaseGroup struct {
	deleters []Deleter
}

func (g *ReleaseGroup) Add(deleters ...Deleter) {
	for _, d := range deleters {
		if d != nil {
			g.deleters = append(g.deleters, d)
		}
	}
}

func (g *ReleaseGroup) AddFunc(fn func()) {
	g.Add(DeleterFunc(fn))
}

func (g *ReleaseGroup) Len() int {
	return len(g.deleters)
}

// Release deletes every collected handle. The group is empty afterwards and
// calling Release again is a no-op.
func (g *ReleaseGroup) Release() {
	for i := len(g.deleters) - 1; i >= 0; i-- {
		g.deleters[i].Delete()
	}
	g.deleters = nil
}

// ReleaseOnError is meant to be deferred by constructors with a named error
// result: on failure everything acquired so far is deleted.
func (g *ReleaseGroup) ReleaseOnError(err *error) {
	if err != nil && *err != nil {
		g.Release()
	}
}

// Disown hands ownership of the collected handles to the caller and empties the group.
func (g *ReleaseGroup) Disown() []Deleter {
	d := g.deleters
	g.deleters = nil
	return d
}
