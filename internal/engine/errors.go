package engine

import "fmt"

// Turn phases, in pipeline order.
const (
	PhaseAttitudes   = "attitudes"
	PhaseLeadership  = "leadership"
	PhaseDecisions   = "decisions"
	PhaseCluster     = "cluster"
	PhaseReset       = "reset"
	PhaseDitching    = "ditching"
	PhaseProduce     = "produce"
	PhaseDistribute  = "distribute"
	PhaseExchange    = "exchange"
	PhaseRites       = "rites"
	PhaseConsume     = "consume"
	PhaseCommit      = "commit"
	PhaseSeniority   = "seniority"
	PhaseMarry       = "marry"
	PhasePopulation  = "population"
	PhaseTell        = "tell"
	PhaseLifecycle   = "lifecycle"
	PhaseMigration   = "migration"
	PhaseAbandonment = "abandonment"
	PhaseInvariants  = "invariants"
)

// TurnError aborts a turn with the phase and entities involved. There is
// no partial recovery: the world is left as it was when the error arose.
type TurnError struct {
	Turn         int
	Phase        string
	SettlementID int // 0 when not settlement-specific
	ClanID       int // 0 when not clan-specific
	Err          error
}

func (e *TurnError) Error() string {
	msg := fmt.Sprintf("turn %d %s", e.Turn, e.Phase)
	if e.SettlementID != 0 {
		msg += fmt.Sprintf(" settlement %d", e.SettlementID)
	}
	if e.ClanID != 0 {
		msg += fmt.Sprintf(" clan %d", e.ClanID)
	}
	return msg + ": " + e.Err.Error()
}

func (e *TurnError) Unwrap() error { return e.Err }

// fail wraps err for the current turn.
func (w *World) fail(phase string, settlementID, clanID int, err error) error {
	return &TurnError{Turn: w.Clock.Turn, Phase: phase, SettlementID: settlementID, ClanID: clanID, Err: err}
}
