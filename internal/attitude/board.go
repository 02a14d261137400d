package attitude

// Pair keys a view by subject (the holder) and object (the clan viewed).
type Pair[K comparable] struct {
	Subject K
	Object  K
}

// Model is a candidate model clan for one view, with the subject's
// committed prestige of it.
type Model[K comparable] struct {
	ID       K
	Prestige float64
}

// Board is the sparse double-buffered store of one kind of view.
type Board[K comparable, I Inference] struct {
	params Params
	views  map[Pair[K]]*Calc[K, I]
}

// NewBoard creates an empty board.
func NewBoard[K comparable, I Inference](p Params) *Board[K, I] {
	return &Board[K, I]{params: p, views: make(map[Pair[K]]*Calc[K, I])}
}

// Params returns the board's weights.
func (b *Board[K, I]) Params() Params { return b.params }

// Get returns the committed view of object held by subject.
func (b *Board[K, I]) Get(subject, object K) (float64, bool) {
	c, ok := b.views[Pair[K]{subject, object}]
	if !ok || !c.committed {
		return 0, false
	}
	return c.Value, true
}

// GetOr returns the committed view or fallback when none exists.
func (b *Board[K, I]) GetOr(subject, object K, fallback float64) float64 {
	if v, ok := b.Get(subject, object); ok {
		return v
	}
	return fallback
}

// Calc returns the full view record.
func (b *Board[K, I]) Calc(subject, object K) (*Calc[K, I], bool) {
	c, ok := b.views[Pair[K]{subject, object}]
	return c, ok
}

// Len is the number of stored views.
func (b *Board[K, I]) Len() int { return len(b.views) }

// ViewsOf returns every committed view held by subject.
func (b *Board[K, I]) ViewsOf(subject K) map[K]float64 {
	out := make(map[K]float64)
	for p, c := range b.views {
		if p.Subject == subject && c.committed {
			out[p.Object] = c.Value
		}
	}
	return out
}

// StartUpdate stages a new view of object held by subject. It reads only
// committed values, so any number of StartUpdate calls may precede Commit
// without order dependence. models lists the other co-resident clans the
// subject may learn from; they are used only when population is below the
// scale threshold and object != subject. Models equal to subject or object
// are skipped.
func (b *Board[K, I]) StartUpdate(subject, object K, inferred I, population int, models []Model[K]) {
	key := Pair[K]{subject, object}
	c, ok := b.views[key]
	if !ok {
		c = &Calc[K, I]{}
		b.views[key] = c
	}

	items := []Item[K]{{Kind: ItemInferred, Weight: b.params.InferredWeight, Value: inferred.Value()}}
	if c.Heritable {
		items = append(items, Item[K]{Kind: ItemHeritage, Weight: b.params.HeritageWeight, Value: c.Value})
	}
	if population < b.params.ScaleThreshold && subject != object {
		for _, m := range models {
			if m.ID == subject || m.ID == object {
				continue
			}
			mc, ok := b.views[Pair[K]{m.ID, object}]
			if !ok || !mc.committed {
				continue
			}
			items = append(items, Item[K]{
				Kind:   ItemModel,
				Model:  m.ID,
				Weight: b.params.weightFor(m.Prestige),
				Value:  mc.Value,
			})
		}
	}
	c.stage(inferred, items)
}

// Commit makes every staged view visible.
func (b *Board[K, I]) Commit() {
	for _, c := range b.views {
		c.commit()
	}
}

// Seed installs a committed, non-heritable view. Used to give a new clan
// its parent's opinions for model weighting before its first update.
func (b *Board[K, I]) Seed(subject, object K, value float64) {
	b.views[Pair[K]{subject, object}] = &Calc[K, I]{Value: value, committed: true}
}

// Inherit copies every committed view held by or about parent onto child.
func (b *Board[K, I]) Inherit(parent, child K) {
	type seed struct {
		p Pair[K]
		v float64
	}
	var seeds []seed
	for p, c := range b.views {
		switch {
		case p.Subject == parent && p.Object == parent:
			seeds = append(seeds,
				seed{Pair[K]{child, child}, c.Value},
				seed{Pair[K]{child, parent}, c.Value},
				seed{Pair[K]{parent, child}, c.Value})
		case p.Subject == parent:
			seeds = append(seeds, seed{Pair[K]{child, p.Object}, c.Value})
		case p.Object == parent:
			seeds = append(seeds, seed{Pair[K]{p.Subject, child}, c.Value})
		}
	}
	for _, s := range seeds {
		if _, exists := b.views[s.p]; !exists {
			b.Seed(s.p.Subject, s.p.Object, s.v)
		}
	}
}

// Remove deletes every view held by or about id.
func (b *Board[K, I]) Remove(id K) int {
	n := 0
	for p := range b.views {
		if p.Subject == id || p.Object == id {
			delete(b.views, p)
			n++
		}
	}
	return n
}

// Prune deletes every view for which keep returns false.
func (b *Board[K, I]) Prune(keep func(subject, object K) bool) int {
	n := 0
	for p := range b.views {
		if !keep(p.Subject, p.Object) {
			delete(b.views, p)
			n++
		}
	}
	return n
}
