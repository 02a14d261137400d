package social

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvariant marks a broken structural invariant. It is fatal for the
// turn in which it is detected.
var ErrInvariant = errors.New("invariant violation")

// Registry owns every clan, settlement and cluster by id.
type Registry struct {
	clans       map[int]*Clan
	settlements map[int]*Settlement
	clusters    map[int]*Cluster

	nextClan       int
	nextSettlement int
	nextCluster    int
}

// NewRegistry creates an empty registry. Ids start at 1.
func NewRegistry() *Registry {
	return &Registry{
		clans:          make(map[int]*Clan),
		settlements:    make(map[int]*Settlement),
		clusters:       make(map[int]*Cluster),
		nextClan:       1,
		nextSettlement: 1,
		nextCluster:    1,
	}
}

// NextClanID issues a fresh clan id.
func (r *Registry) NextClanID() int {
	id := r.nextClan
	r.nextClan++
	return id
}

// NextSettlementID issues a fresh settlement id.
func (r *Registry) NextSettlementID() int {
	id := r.nextSettlement
	r.nextSettlement++
	return id
}

// NextClusterID issues a fresh cluster id.
func (r *Registry) NextClusterID() int {
	id := r.nextCluster
	r.nextCluster++
	return id
}

// AddCluster registers a cluster.
func (r *Registry) AddCluster(c *Cluster) {
	r.clusters[c.ID] = c
	if c.ID >= r.nextCluster {
		r.nextCluster = c.ID + 1
	}
}

// AddSettlement registers a settlement and joins it to its cluster.
func (r *Registry) AddSettlement(s *Settlement) error {
	cl, ok := r.clusters[s.ClusterID]
	if !ok {
		return fmt.Errorf("settlement %d: unknown cluster %d: %w", s.ID, s.ClusterID, ErrInvariant)
	}
	r.settlements[s.ID] = s
	if !cl.HasSettlement(s.ID) {
		cl.Settlements = append(cl.Settlements, s.ID)
	}
	if s.ID >= r.nextSettlement {
		r.nextSettlement = s.ID + 1
	}
	return nil
}

// AddClan registers a clan and appends it to its settlement, or places it
// right after another resident when after is a resident clan id.
func (r *Registry) AddClan(c *Clan, after int) error {
	s, ok := r.settlements[c.SettlementID]
	if !ok {
		return fmt.Errorf("clan %d: unknown settlement %d: %w", c.ID, c.SettlementID, ErrInvariant)
	}
	r.clans[c.ID] = c
	s.addClan(c.ID, after)
	s.Population += c.Population()
	if c.ID >= r.nextClan {
		r.nextClan = c.ID + 1
	}
	return nil
}

// RemoveClan unregisters a clan and drops it from its settlement.
func (r *Registry) RemoveClan(id int) {
	c, ok := r.clans[id]
	if !ok {
		return
	}
	if s, ok := r.settlements[c.SettlementID]; ok && s.removeClan(id) {
		s.Population -= c.Population()
	}
	delete(r.clans, id)
}

// Clan looks up a clan.
func (r *Registry) Clan(id int) (*Clan, bool) {
	c, ok := r.clans[id]
	return c, ok
}

// Settlement looks up a settlement.
func (r *Registry) Settlement(id int) (*Settlement, bool) {
	s, ok := r.settlements[id]
	return s, ok
}

// Cluster looks up a cluster.
func (r *Registry) Cluster(id int) (*Cluster, bool) {
	c, ok := r.clusters[id]
	return c, ok
}

// Clans returns every clan ordered by id.
func (r *Registry) Clans() []*Clan {
	out := make([]*Clan, 0, len(r.clans))
	for _, c := range r.clans {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Settlements returns every settlement, abandoned included, ordered by id.
func (r *Registry) Settlements() []*Settlement {
	out := make([]*Settlement, 0, len(r.settlements))
	for _, s := range r.settlements {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LiveSettlements returns settlements that are not abandoned, ordered by id.
func (r *Registry) LiveSettlements() []*Settlement {
	var out []*Settlement
	for _, s := range r.Settlements() {
		if !s.Abandoned {
			out = append(out, s)
		}
	}
	return out
}

// Clusters returns every cluster ordered by id.
func (r *Registry) Clusters() []*Cluster {
	out := make([]*Cluster, 0, len(r.clusters))
	for _, c := range r.clusters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ClansOf returns a settlement's clans in residence order.
func (r *Registry) ClansOf(settlementID int) []*Clan {
	s, ok := r.settlements[settlementID]
	if !ok {
		return nil
	}
	out := make([]*Clan, 0, len(s.Clans))
	for _, id := range s.Clans {
		if c, ok := r.clans[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// SettlementsOf returns a cluster's live settlements in membership order.
func (r *Registry) SettlementsOf(clusterID int) []*Settlement {
	cl, ok := r.clusters[clusterID]
	if !ok {
		return nil
	}
	var out []*Settlement
	for _, id := range cl.Settlements {
		if s, ok := r.settlements[id]; ok && !s.Abandoned {
			out = append(out, s)
		}
	}
	return out
}

// ClusterOf returns the cluster a clan lives in.
func (r *Registry) ClusterOf(c *Clan) (*Cluster, bool) {
	s, ok := r.settlements[c.SettlementID]
	if !ok {
		return nil, false
	}
	return r.Cluster(s.ClusterID)
}

// CoResident reports whether two clans share a settlement.
func (r *Registry) CoResident(a, b int) bool {
	ca, ok1 := r.clans[a]
	cb, ok2 := r.clans[b]
	return ok1 && ok2 && ca.SettlementID == cb.SettlementID
}

// MoveClan moves a clan to the end of another settlement's list.
func (r *Registry) MoveClan(clanID, to int) error {
	c, ok := r.clans[clanID]
	if !ok {
		return fmt.Errorf("move: unknown clan %d: %w", clanID, ErrInvariant)
	}
	dst, ok := r.settlements[to]
	if !ok {
		return fmt.Errorf("move clan %d: unknown settlement %d: %w", clanID, to, ErrInvariant)
	}
	if src, ok := r.settlements[c.SettlementID]; ok && src.removeClan(clanID) {
		src.Population -= c.Population()
	}
	c.SettlementID = to
	dst.addClan(clanID, NoClan)
	dst.Population += c.Population()
	return nil
}

// RefreshPopulation recomputes a settlement's cached population.
func (r *Registry) RefreshPopulation(settlementID int) int {
	s, ok := r.settlements[settlementID]
	if !ok {
		return 0
	}
	s.Population = 0
	for _, c := range r.ClansOf(settlementID) {
		s.Population += c.Population()
	}
	return s.Population
}

// CheckInvariants verifies the structural invariants: non-negative
// cohorts, every clan resident where it says it is, and every settlement's
// population equal to the sum of its clans.
func (r *Registry) CheckInvariants() error {
	for _, c := range r.Clans() {
		if err := c.Cohorts.Validate(); err != nil {
			return fmt.Errorf("clan %d: %v: %w", c.ID, err, ErrInvariant)
		}
		s, ok := r.settlements[c.SettlementID]
		if !ok || !s.HasClan(c.ID) {
			return fmt.Errorf("clan %d not resident in settlement %d: %w", c.ID, c.SettlementID, ErrInvariant)
		}
	}
	for _, s := range r.Settlements() {
		sum := 0
		for _, id := range s.Clans {
			c, ok := r.clans[id]
			if !ok {
				return fmt.Errorf("settlement %d lists unknown clan %d: %w", s.ID, id, ErrInvariant)
			}
			sum += c.Population()
		}
		if sum != s.Population {
			return fmt.Errorf("settlement %d population %d != clan sum %d: %w", s.ID, s.Population, sum, ErrInvariant)
		}
		if s.Abandoned && len(s.Clans) > 0 {
			return fmt.Errorf("abandoned settlement %d has %d clans: %w", s.ID, len(s.Clans), ErrInvariant)
		}
	}
	return nil
}
