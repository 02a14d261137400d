package attitude

// Ballots returns voter's rating of candidate. ok is false when the voter
// holds no view, which counts as a tie.
type Ballots[K comparable] func(voter, candidate K) (rating float64, ok bool)

// CondorcetResult is the pairwise win matrix and the leader, if any.
// Wins[i][j] is the number of ballots preferring Clans[i] over Clans[j].
type CondorcetResult[K comparable] struct {
	Clans  []K         `json:"clans"`
	Wins   [][]float64 `json:"wins"`
	Leader K           `json:"leader"`
	Found  bool        `json:"found"`
}

// Condorcet finds the clan that wins or ties every pairwise contest without
// tying all of them. Ballots for a pair come from every third clan; a tie
// gives each half a win. A lone clan leads itself. Cycles, universal ties,
// or more than one qualifying clan yield no leader.
func Condorcet[K comparable](clans []K, ballot Ballots[K]) CondorcetResult[K] {
	n := len(clans)
	res := CondorcetResult[K]{Clans: clans, Wins: make([][]float64, n)}
	for i := range res.Wins {
		res.Wins[i] = make([]float64, n)
	}
	if n == 1 {
		res.Leader, res.Found = clans[0], true
		return res
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				vi, oki := ballot(clans[k], clans[i])
				vj, okj := ballot(clans[k], clans[j])
				switch {
				case oki && okj && vi > vj:
					res.Wins[i][j]++
				case oki && okj && vj > vi:
					res.Wins[j][i]++
				default:
					res.Wins[i][j] += 0.5
					res.Wins[j][i] += 0.5
				}
			}
		}
	}

	found := 0
	for i := 0; i < n; i++ {
		beatsOrTies, strict := true, false
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if res.Wins[i][j] < res.Wins[j][i] {
				beatsOrTies = false
				break
			}
			if res.Wins[i][j] > res.Wins[j][i] {
				strict = true
			}
		}
		if beatsOrTies && strict {
			found++
			res.Leader = clans[i]
		}
	}
	if found != 1 {
		var zero K
		res.Leader = zero
		return res
	}
	res.Found = true
	return res
}
