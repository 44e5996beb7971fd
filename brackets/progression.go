package brackets

import (
	"fmt"
	"time"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/rating"
)

// RatingChange describes one applied rating adjustment.
type RatingChange struct {
	ParticipantID int `json:"participant_id"`
	OldRating     int `json:"old_rating"`
	NewRating     int `json:"new_rating"`
	Delta         int `json:"delta"`
}

// ProgressionOutcome describes everything a recorded result changed, so the
// caller can persist the bracket and emit notifications. The engine itself
// never calls out.
type ProgressionOutcome struct {
	BracketID        string         `json:"bracket_id"`
	NodeUID          string         `json:"node_uid"`
	WinnerID         *int           `json:"winner_id,omitempty"`
	LoserID          *int           `json:"loser_id,omitempty"`
	Draw             bool           `json:"draw,omitempty"`
	Forfeit          bool           `json:"forfeit,omitempty"`
	Corrected        bool           `json:"corrected,omitempty"`
	RatingChanges    []RatingChange `json:"rating_changes,omitempty"`
	EliminatedIDs    []int          `json:"eliminated_ids,omitempty"`
	ReadyNodeUIDs    []string       `json:"ready_node_uids,omitempty"`
	AppendedNodeUIDs []string       `json:"appended_node_uids,omitempty"`
	ResetScheduled   bool           `json:"reset_scheduled,omitempty"`
	Completed        bool           `json:"completed,omitempty"`
	ChampionID       *int           `json:"champion_id,omitempty"`
}

// ProgressionEngine advances a bracket one validated result at a time. It
// performs no I/O; callers serialize access per bracket and persist the new
// state after each call.
type ProgressionEngine struct {
	ratingCfg rating.Config
	now       func() time.Time
}

func NewProgressionEngine(cfg rating.Config) *ProgressionEngine {
	return &ProgressionEngine{ratingCfg: cfg, now: time.Now}
}

// SetClock replaces the timestamp source used for recorded results.
func (e *ProgressionEngine) SetClock(now func() time.Time) {
	e.now = now
}

// RecordResult validates and applies a result for the node. Submitting a
// result for a node that already has one is a correction: the previous
// rating deltas and advancement are reversed exactly before the new outcome
// is applied.
func (e *ProgressionEngine) RecordResult(b *models.Bracket, nodeUID string, score1, score2 int) (*ProgressionOutcome, error) {
	node := b.Node(nodeUID)
	if node == nil {
		return nil, fmt.Errorf("%w: node %q does not exist", ErrNodeNotReady, nodeUID)
	}
	if node.Result != nil {
		return e.correctResult(b, node, score1, score2)
	}
	if b.Status == models.BracketCompleted {
		return nil, fmt.Errorf("%w: bracket %s", ErrBracketAlreadyCompleted, b.ID)
	}
	if !node.Ready() {
		return nil, fmt.Errorf("%w: node %s", ErrNodeNotReady, nodeUID)
	}
	out, err := e.apply(b, node, score1, score2)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolvedResult is the interpreted outcome of a submitted score pair.
type resolvedResult struct {
	winnerID *int // nil means draw
	loserID  *int
	forfeit  bool
}

func resolveScores(format models.BracketFormat, node *models.BracketNode, score1, score2 int) (resolvedResult, error) {
	var res resolvedResult

	for _, s := range []int{score1, score2} {
		if s < 0 && s != models.ForfeitScore {
			return res, fmt.Errorf("%w: negative score %d", ErrInvalidResult, s)
		}
	}
	if score1 == models.ForfeitScore && score2 == models.ForfeitScore {
		return res, fmt.Errorf("%w: both sides cannot forfeit", ErrInvalidResult)
	}

	p1, p2 := node.Participant1ID, node.Participant2ID
	switch {
	case score1 == models.ForfeitScore:
		res.winnerID, res.loserID, res.forfeit = p2, p1, true
	case score2 == models.ForfeitScore:
		res.winnerID, res.loserID, res.forfeit = p1, p2, true
	case score1 > score2:
		res.winnerID, res.loserID = p1, p2
	case score2 > score1:
		res.winnerID, res.loserID = p2, p1
	default:
		if format == models.FormatSingleElimination || format == models.FormatDoubleElimination {
			return res, fmt.Errorf("%w: ties are not permitted in elimination formats", ErrInvalidResult)
		}
	}
	return res, nil
}

// apply records the result, adjusts ratings, and advances the bracket.
func (e *ProgressionEngine) apply(b *models.Bracket, node *models.BracketNode, score1, score2 int) (*ProgressionOutcome, error) {
	res, err := resolveScores(b.Format, node, score1, score2)
	if err != nil {
		return nil, err
	}

	p1 := b.Participant(*node.Participant1ID)
	p2 := b.Participant(*node.Participant2ID)
	if p1 == nil || p2 == nil {
		return nil, fmt.Errorf("%w: node %s references unknown participants", ErrInvalidResult, node.UID)
	}

	out := &ProgressionOutcome{
		BracketID: b.ID,
		NodeUID:   node.UID,
		WinnerID:  res.winnerID,
		LoserID:   res.loserID,
		Draw:      res.winnerID == nil,
		Forfeit:   res.forfeit,
	}

	// Rating adjustments, applied exactly once per validated result. A
	// forfeit moves only the forfeiting side, by a small capped amount.
	var d1, d2 int
	switch {
	case res.forfeit:
		if *res.loserID == p1.ID {
			d1 = e.ratingCfg.ForfeitDelta(p1.Rating)
		} else {
			d2 = e.ratingCfg.ForfeitDelta(p2.Rating)
		}
	case res.winnerID == nil:
		d1, d2 = e.ratingCfg.Deltas(p1.Rating, p1.MatchesPlayed, p2.Rating, p2.MatchesPlayed, rating.Draw)
	case *res.winnerID == p1.ID:
		d1, d2 = e.ratingCfg.Deltas(p1.Rating, p1.MatchesPlayed, p2.Rating, p2.MatchesPlayed, rating.AWins)
	default:
		d1, d2 = e.ratingCfg.Deltas(p1.Rating, p1.MatchesPlayed, p2.Rating, p2.MatchesPlayed, rating.BWins)
	}

	out.RatingChanges = []RatingChange{
		{ParticipantID: p1.ID, OldRating: p1.Rating, NewRating: p1.Rating + d1, Delta: d1},
		{ParticipantID: p2.ID, OldRating: p2.Rating, NewRating: p2.Rating + d2, Delta: d2},
	}
	p1.Rating += d1
	p2.Rating += d2
	p1.MatchesPlayed++
	p2.MatchesPlayed++
	node.RatingDelta1 = &d1
	node.RatingDelta2 = &d2

	node.Result = &models.MatchResult{
		NodeUID:    node.UID,
		Score1:     score1,
		Score2:     score2,
		WinnerID:   res.winnerID,
		Forfeit:    res.forfeit,
		RecordedAt: e.now().UTC(),
	}

	switch b.Format {
	case models.FormatSingleElimination, models.FormatDoubleElimination:
		e.advanceElimination(b, node, out)
	case models.FormatRoundRobin:
		e.checkRoundRobinCompletion(b, out)
	case models.FormatSwiss:
		e.advanceSwiss(b, node, out)
	}

	updateCurrentRound(b)
	out.ReadyNodeUIDs = b.ReadyNodeUIDs()
	return out, nil
}

func (e *ProgressionEngine) advanceElimination(b *models.Bracket, node *models.BracketNode, out *ProgressionOutcome) {
	winnerID, loserID := *out.WinnerID, *out.LoserID

	if node.GrandFinalReset {
		e.crown(b, out, winnerID, &loserID)
		return
	}
	if node.GrandFinal {
		gf2 := b.Node(GrandFinalResetUID)
		if winnerID == *node.Participant1ID {
			// The undefeated main-bracket winner held: no reset match.
			gf2.Voided = true
			e.crown(b, out, winnerID, &loserID)
			return
		}
		// The losers-bracket representative forced a bracket reset. The
		// second grand final is authoritative for completion.
		gf2.Participant1ID = intPtr(loserID)
		gf2.Participant2ID = intPtr(winnerID)
		out.ResetScheduled = true
		return
	}

	if node.WinnerToUID != nil {
		e.placeParticipant(b, *node.WinnerToUID, *node.WinnerToSlot, winnerID)
	} else {
		// Main-branch final of a single-elimination bracket.
		e.crown(b, out, winnerID, nil)
	}

	if node.LoserToUID != nil {
		e.placeParticipant(b, *node.LoserToUID, *node.LoserToSlot, loserID)
	} else {
		e.eliminate(b, out, loserID)
	}
}

// placeParticipant drops a participant into a downstream slot. If the node's
// other slot can never be filled the participant auto-advances further, with
// no match played and no rating update.
func (e *ProgressionEngine) placeParticipant(b *models.Bracket, uid string, slot, pid int) {
	node := b.Node(uid)
	if node == nil {
		return
	}
	node.SetParticipant(slot, intPtr(pid))

	otherBye := (slot == 1 && node.Slot2Bye) || (slot == 2 && node.Slot1Bye)
	if otherBye && !node.IsBye {
		node.IsBye = true
		node.ByeParticipantID = intPtr(pid)
		if node.WinnerToUID != nil {
			e.placeParticipant(b, *node.WinnerToUID, *node.WinnerToSlot, pid)
		}
	}
}

func (e *ProgressionEngine) eliminate(b *models.Bracket, out *ProgressionOutcome, pid int) {
	if p := b.Participant(pid); p != nil && p.Status == models.ParticipantActive {
		p.Status = models.ParticipantEliminated
	}
	out.EliminatedIDs = append(out.EliminatedIDs, pid)
}

func (e *ProgressionEngine) crown(b *models.Bracket, out *ProgressionOutcome, championID int, runnerUpID *int) {
	if runnerUpID != nil {
		e.eliminate(b, out, *runnerUpID)
	}
	if p := b.Participant(championID); p != nil {
		p.Status = models.ParticipantWinner
	}
	b.ChampionID = intPtr(championID)
	b.Status = models.BracketCompleted
	out.Completed = true
	out.ChampionID = b.ChampionID
}

func (e *ProgressionEngine) checkRoundRobinCompletion(b *models.Bracket, out *ProgressionOutcome) {
	for _, n := range b.Nodes {
		if n.Playable() && n.Result == nil {
			return
		}
	}
	standings := Standings(b)
	e.crown(b, out, standings[0].ParticipantID, nil)
}

func (e *ProgressionEngine) advanceSwiss(b *models.Bracket, node *models.BracketNode, out *ProgressionOutcome) {
	if !roundResolved(b, node.Round) {
		return
	}
	if node.Round < b.Options.SwissRounds {
		// Corrections re-resolve an old round; its successor already exists.
		if b.MaxRound(models.BranchMain) > node.Round {
			return
		}
		added := buildSwissRound(b, node.Round+1)
		for _, n := range added {
			out.AppendedNodeUIDs = append(out.AppendedNodeUIDs, n.UID)
		}
		return
	}
	standings := Standings(b)
	e.crown(b, out, standings[0].ParticipantID, nil)
}

func roundResolved(b *models.Bracket, round int) bool {
	for _, n := range b.NodesInRound(models.BranchMain, round) {
		if n.Playable() && n.Result == nil {
			return false
		}
	}
	return true
}

func updateCurrentRound(b *models.Bracket) {
	cur := 0
	for _, n := range b.Nodes {
		if n.Branch == models.BranchMain && n.Ready() {
			if cur == 0 || n.Round < cur {
				cur = n.Round
			}
		}
	}
	if cur > 0 {
		b.CurrentRound = cur
	}
}

// correctResult replaces an already recorded result. The previously applied
// rating deltas are reversed exactly from the history kept on the node, and
// any advancement is undone before the new outcome is applied, so ratings
// reflect every result exactly once. Corrections whose downstream matches
// were already played are rejected: the organizer must resolve those matches
// explicitly.
func (e *ProgressionEngine) correctResult(b *models.Bracket, node *models.BracketNode, score1, score2 int) (*ProgressionOutcome, error) {
	newRes, err := resolveScores(b.Format, node, score1, score2)
	if err != nil {
		return nil, err
	}

	winnerChanged := !sameWinner(node.Result.WinnerID, newRes.winnerID)
	if winnerChanged {
		switch b.Format {
		case models.FormatSwiss:
			// Later pairings were derived from this result.
			if b.MaxRound(models.BranchMain) > node.Round {
				return nil, fmt.Errorf("%w: round %d pairings already generated", ErrCascadingCorrection, node.Round+1)
			}
		case models.FormatSingleElimination, models.FormatDoubleElimination:
			if e.downstreamPlayed(b, node) {
				return nil, fmt.Errorf("%w: node %s", ErrCascadingCorrection, node.UID)
			}
		}
	}

	e.reverseRatings(b, node)
	if winnerChanged {
		e.unwindAdvancement(b, node)
	}
	node.Result = nil
	node.RatingDelta1 = nil
	node.RatingDelta2 = nil

	out, err := e.apply(b, node, score1, score2)
	if err != nil {
		return nil, err
	}
	out.Corrected = true
	return out, nil
}

func sameWinner(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// downstreamPlayed reports whether any match that received this node's
// winner or loser (following bye auto-advances) already has a result.
func (e *ProgressionEngine) downstreamPlayed(b *models.Bracket, node *models.BracketNode) bool {
	if node.GrandFinalReset {
		return false
	}
	if node.GrandFinal {
		gf2 := b.Node(GrandFinalResetUID)
		return gf2 != nil && gf2.Result != nil
	}

	oldWinner, oldLoser := node.Result.WinnerID, correctionLoser(node)
	if node.WinnerToUID != nil && chainPlayed(b, *node.WinnerToUID, *oldWinner) {
		return true
	}
	if node.LoserToUID != nil && chainPlayed(b, *node.LoserToUID, *oldLoser) {
		return true
	}
	return false
}

func chainPlayed(b *models.Bracket, uid string, pid int) bool {
	node := b.Node(uid)
	if node == nil {
		return false
	}
	if node.Result != nil {
		return true
	}
	if node.IsBye && node.ByeParticipantID != nil && *node.ByeParticipantID == pid && node.WinnerToUID != nil {
		return chainPlayed(b, *node.WinnerToUID, pid)
	}
	return false
}

func (e *ProgressionEngine) reverseRatings(b *models.Bracket, node *models.BracketNode) {
	p1 := b.Participant(*node.Participant1ID)
	p2 := b.Participant(*node.Participant2ID)
	if node.RatingDelta1 != nil {
		p1.Rating -= *node.RatingDelta1
	}
	if node.RatingDelta2 != nil {
		p2.Rating -= *node.RatingDelta2
	}
	p1.MatchesPlayed--
	p2.MatchesPlayed--
}

// unwindAdvancement removes the previously advancing participants from every
// downstream slot they were placed into and restores elimination statuses.
// Callers have already verified nothing downstream was played.
func (e *ProgressionEngine) unwindAdvancement(b *models.Bracket, node *models.BracketNode) {
	// A completed bracket reached here only if this node decided completion.
	if b.Status == models.BracketCompleted {
		if b.ChampionID != nil {
			if p := b.Participant(*b.ChampionID); p != nil && p.Status == models.ParticipantWinner {
				p.Status = models.ParticipantActive
			}
		}
		b.ChampionID = nil
		b.Status = models.BracketInProgress
	}

	oldWinner, oldLoser := node.Result.WinnerID, correctionLoser(node)
	if oldLoser != nil {
		if p := b.Participant(*oldLoser); p != nil && p.Status == models.ParticipantEliminated {
			p.Status = models.ParticipantActive
		}
	}

	switch {
	case node.GrandFinalReset:
		// Participants of the reset match stay as the grand final left them.
	case node.GrandFinal:
		gf2 := b.Node(GrandFinalResetUID)
		gf2.Voided = false
		gf2.Participant1ID = nil
		gf2.Participant2ID = nil
	default:
		if oldWinner != nil && node.WinnerToUID != nil {
			removeFromChain(b, *node.WinnerToUID, *node.WinnerToSlot, *oldWinner)
		}
		if oldLoser != nil && node.LoserToUID != nil {
			removeFromChain(b, *node.LoserToUID, *node.LoserToSlot, *oldLoser)
		}
	}
}

// correctionLoser returns the non-winning side of a decided result, or nil
// for a draw.
func correctionLoser(node *models.BracketNode) *int {
	if node.Result == nil || node.Result.WinnerID == nil {
		return nil
	}
	if *node.Result.WinnerID == *node.Participant1ID {
		return node.Participant2ID
	}
	return node.Participant1ID
}

func removeFromChain(b *models.Bracket, uid string, slot, pid int) {
	node := b.Node(uid)
	if node == nil {
		return
	}
	cur := node.Participant(slot)
	if cur == nil || *cur != pid {
		return
	}
	node.SetParticipant(slot, nil)
	if node.IsBye && node.ByeParticipantID != nil && *node.ByeParticipantID == pid {
		node.IsBye = false
		node.ByeParticipantID = nil
		if node.WinnerToUID != nil {
			removeFromChain(b, *node.WinnerToUID, *node.WinnerToSlot, pid)
		}
	}
}
