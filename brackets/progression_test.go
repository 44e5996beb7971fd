package brackets

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/rating"
)

func testEngine() *ProgressionEngine {
	e := NewProgressionEngine(rating.DefaultConfig())
	e.SetClock(func() time.Time {
		return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	})
	return e
}

func mustRecord(t *testing.T, e *ProgressionEngine, b *models.Bracket, uid string, s1, s2 int) *ProgressionOutcome {
	t.Helper()
	out, err := e.RecordResult(b, uid, s1, s2)
	require.NoError(t, err, uid)
	return out
}

// Four participants rated 1600/1500/1400/1300 play out a single-elimination
// bracket with the favorites winning every match.
func TestProgression_SingleEliminationRunThrough(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatSingleElimination, 4)
	b.Participants[0].Rating = 1600
	b.Participants[1].Rating = 1500
	b.Participants[2].Rating = 1400
	b.Participants[3].Rating = 1300

	out := mustRecord(t, e, b, "R1M1", 2, 0)
	assert.Equal(t, 1, *out.WinnerID)
	assert.Equal(t, []int{4}, out.EliminatedIDs)
	assert.False(t, out.Completed)
	assert.Equal(t, 1605, b.Participant(1).Rating)
	assert.Equal(t, 1295, b.Participant(4).Rating)

	mustRecord(t, e, b, "R1M2", 2, 1)
	assert.Equal(t, 1512, b.Participant(2).Rating)
	assert.Equal(t, 1388, b.Participant(3).Rating)

	final := b.Node("R2M1")
	require.True(t, final.Ready())
	assert.Equal(t, 1, *final.Participant1ID)
	assert.Equal(t, 2, *final.Participant2ID)

	out = mustRecord(t, e, b, "R2M1", 3, 2)
	assert.True(t, out.Completed)
	assert.Equal(t, 1, *out.ChampionID)
	assert.Equal(t, models.BracketCompleted, b.Status)
	assert.Equal(t, 1617, b.Participant(1).Rating)
	assert.Equal(t, 1500, b.Participant(2).Rating)
	assert.Equal(t, models.ParticipantWinner, b.Participant(1).Status)
	assert.Equal(t, models.ParticipantEliminated, b.Participant(2).Status)

	// Ratings are conserved and exactly N-1 matches were decided.
	sum := 0
	decided := 0
	for _, p := range b.Participants {
		sum += p.Rating
	}
	for _, n := range b.Nodes {
		if n.Result != nil {
			decided++
		}
	}
	assert.Equal(t, 5800, sum)
	assert.Equal(t, len(b.Participants)-1, decided)
	assert.Equal(t, 2, b.Participant(1).MatchesPlayed)
	assert.Equal(t, 1, b.Participant(4).MatchesPlayed)
}

func TestProgression_NodeNotReady(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatSingleElimination, 4)

	_, err := e.RecordResult(b, "R2M1", 1, 0)
	assert.ErrorIs(t, err, ErrNodeNotReady)

	_, err = e.RecordResult(b, "R9M9", 1, 0)
	assert.ErrorIs(t, err, ErrNodeNotReady)
}

func TestProgression_InvalidResults(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatSingleElimination, 4)

	_, err := e.RecordResult(b, "R1M1", 1, 1)
	assert.ErrorIs(t, err, ErrInvalidResult, "tie in elimination")

	_, err = e.RecordResult(b, "R1M1", -2, 1)
	assert.ErrorIs(t, err, ErrInvalidResult, "negative score")

	_, err = e.RecordResult(b, "R1M1", models.ForfeitScore, models.ForfeitScore)
	assert.ErrorIs(t, err, ErrInvalidResult, "double forfeit")

	// Nothing was applied.
	assert.Nil(t, b.Node("R1M1").Result)
	assert.Equal(t, 0, b.Participant(1).MatchesPlayed)
}

func TestProgression_Forfeit(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatSingleElimination, 4)

	out := mustRecord(t, e, b, "R1M1", models.ForfeitScore, 0)
	assert.True(t, out.Forfeit)
	assert.Equal(t, 4, *out.WinnerID)

	// Fixed penalty for the forfeiter, opponent untouched.
	assert.Equal(t, 1592, b.Participant(1).Rating)
	assert.Equal(t, 1570, b.Participant(4).Rating)
	assert.Equal(t, 1, b.Participant(1).MatchesPlayed)
	assert.Equal(t, 1, b.Participant(4).MatchesPlayed)
	assert.True(t, b.Node("R2M1").Contains(4))
}

// Three participants in a round robin, including a draw.
func TestProgression_RoundRobinRunThrough(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatRoundRobin, 3)

	out := mustRecord(t, e, b, "R1M1", 2, 1) // 2 beats 3
	assert.False(t, out.Completed)
	assert.Empty(t, out.EliminatedIDs)

	out = mustRecord(t, e, b, "R2M1", 1, 1) // 1 draws 3
	assert.True(t, out.Draw)
	assert.Nil(t, out.WinnerID)

	out = mustRecord(t, e, b, "R3M1", 2, 0) // 1 beats 2
	require.True(t, out.Completed)
	assert.Equal(t, 1, *out.ChampionID)

	standings := Standings(b)
	assert.Equal(t, []int{1, 2, 3}, []int{
		standings[0].ParticipantID, standings[1].ParticipantID, standings[2].ParticipantID,
	})
	assert.Equal(t, 4, standings[0].Points)
	assert.Equal(t, 3, standings[1].Points)
	assert.Equal(t, 1, standings[2].Points)

	// Round robin eliminates nobody.
	assert.Equal(t, models.ParticipantWinner, b.Participant(1).Status)
	assert.Equal(t, models.ParticipantActive, b.Participant(2).Status)
	assert.Equal(t, models.ParticipantActive, b.Participant(3).Status)
}

// Four participants in double elimination where the losers-bracket
// representative forces and wins the bracket reset.
func TestProgression_DoubleEliminationBracketReset(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatDoubleElimination, 4)

	mustRecord(t, e, b, "R1M1", 2, 0) // 1 beats 4
	mustRecord(t, e, b, "R1M2", 2, 0) // 2 beats 3
	mustRecord(t, e, b, "R2M1", 2, 1) // 1 beats 2, 2 drops

	lr1 := b.Node("LR1M1")
	assert.True(t, lr1.Contains(4))
	assert.True(t, lr1.Contains(3))
	out := mustRecord(t, e, b, "LR1M1", 2, 1) // 4 beats 3
	assert.Equal(t, []int{3}, out.EliminatedIDs)

	lr2 := b.Node("LR2M1")
	assert.True(t, lr2.Contains(4))
	assert.True(t, lr2.Contains(2))
	out = mustRecord(t, e, b, "LR2M1", 0, 2) // 2 beats 4
	assert.Equal(t, []int{4}, out.EliminatedIDs)

	gf := b.Node(GrandFinalUID)
	require.True(t, gf.Ready())
	assert.Equal(t, 1, *gf.Participant1ID)
	assert.Equal(t, 2, *gf.Participant2ID)

	// The losers-side representative wins game one: reset, not title.
	out = mustRecord(t, e, b, GrandFinalUID, 1, 2)
	assert.True(t, out.ResetScheduled)
	assert.False(t, out.Completed)
	assert.Equal(t, models.BracketInProgress, b.Status)

	gf2 := b.Node(GrandFinalResetUID)
	require.True(t, gf2.Ready())
	assert.Equal(t, 1, *gf2.Participant1ID)
	assert.Equal(t, 2, *gf2.Participant2ID)

	out = mustRecord(t, e, b, GrandFinalResetUID, 1, 2)
	require.True(t, out.Completed)
	assert.Equal(t, 2, *out.ChampionID)
	assert.Equal(t, models.ParticipantWinner, b.Participant(2).Status)
	assert.Equal(t, models.ParticipantEliminated, b.Participant(1).Status)
}

func TestProgression_DoubleEliminationNoReset(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatDoubleElimination, 4)

	mustRecord(t, e, b, "R1M1", 2, 0)
	mustRecord(t, e, b, "R1M2", 2, 0)
	mustRecord(t, e, b, "R2M1", 2, 0)
	mustRecord(t, e, b, "LR1M1", 2, 0)
	mustRecord(t, e, b, "LR2M1", 0, 2)

	// The undefeated main-bracket winner holds: the reset never happens.
	out := mustRecord(t, e, b, GrandFinalUID, 2, 0)
	require.True(t, out.Completed)
	assert.Equal(t, 1, *out.ChampionID)
	assert.True(t, b.Node(GrandFinalResetUID).Voided)

	_, err := e.RecordResult(b, GrandFinalResetUID, 2, 0)
	assert.ErrorIs(t, err, ErrBracketAlreadyCompleted)
}

// A loser dropping into a losers-bracket slot whose counterpart can never
// fill auto-advances one round further.
func TestProgression_LosersByeCascade(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatDoubleElimination, 5)

	mustRecord(t, e, b, "R1M2", 0, 2) // 5 beats 4, 4 drops

	lr1 := b.Node("LR1M1")
	assert.True(t, lr1.IsBye)
	assert.Equal(t, 4, *lr1.ByeParticipantID)
	assert.Equal(t, 4, *b.Node("LR2M1").Participant1ID)
}

func TestProgression_SwissRoundsAppendOnResolve(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatSwiss, 4)
	require.Equal(t, 2, b.Options.SwissRounds)

	out := mustRecord(t, e, b, "R1M1", 2, 0) // 1 beats 3
	assert.Empty(t, out.AppendedNodeUIDs, "round not resolved yet")

	out = mustRecord(t, e, b, "R1M2", 2, 0) // 2 beats 4
	assert.Equal(t, []string{"R2M1", "R2M2"}, out.AppendedNodeUIDs)
	assert.Equal(t, 2, b.CurrentRound)

	// Winners meet winners, losers meet losers, no rematches.
	r2m1 := b.Node("R2M1")
	assert.True(t, r2m1.Contains(1) && r2m1.Contains(2))
	r2m2 := b.Node("R2M2")
	assert.True(t, r2m2.Contains(3) && r2m2.Contains(4))

	mustRecord(t, e, b, "R2M1", 2, 1)
	out = mustRecord(t, e, b, "R2M2", 2, 1)
	require.True(t, out.Completed)
	assert.Equal(t, 1, *out.ChampionID)
	assert.Equal(t, models.ParticipantActive, b.Participant(2).Status)
}

func TestProgression_CorrectionScoreOnly(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatSingleElimination, 4)
	b.Participants[0].Rating = 1600
	b.Participants[3].Rating = 1300

	mustRecord(t, e, b, "R1M1", 2, 0)
	require.Equal(t, 1605, b.Participant(1).Rating)

	out, err := e.RecordResult(b, "R1M1", 3, 1)
	require.NoError(t, err)
	assert.True(t, out.Corrected)
	assert.Equal(t, 1, *out.WinnerID)

	// Same winner: the net rating effect is unchanged, applied once.
	assert.Equal(t, 1605, b.Participant(1).Rating)
	assert.Equal(t, 1295, b.Participant(4).Rating)
	assert.Equal(t, 1, b.Participant(1).MatchesPlayed)
	assert.Equal(t, 3, b.Node("R1M1").Result.Score1)
}

func TestProgression_CorrectionFlipsWinner(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatSingleElimination, 4)
	b.Participants[0].Rating = 1600
	b.Participants[3].Rating = 1300

	mustRecord(t, e, b, "R1M1", 2, 0)
	assert.True(t, b.Node("R2M1").Contains(1))

	out, err := e.RecordResult(b, "R1M1", 0, 2)
	require.NoError(t, err)
	assert.True(t, out.Corrected)
	assert.Equal(t, 4, *out.WinnerID)

	// The first result was fully reversed before the upset was applied.
	assert.Equal(t, 1573, b.Participant(1).Rating)
	assert.Equal(t, 1327, b.Participant(4).Rating)
	assert.Equal(t, 1, b.Participant(1).MatchesPlayed)
	assert.Equal(t, models.ParticipantEliminated, b.Participant(1).Status)
	assert.Equal(t, models.ParticipantActive, b.Participant(4).Status)
	assert.False(t, b.Node("R2M1").Contains(1))
	assert.True(t, b.Node("R2M1").Contains(4))

	// Correcting back restores the original state exactly.
	_, err = e.RecordResult(b, "R1M1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 1605, b.Participant(1).Rating)
	assert.Equal(t, 1295, b.Participant(4).Rating)
	assert.True(t, b.Node("R2M1").Contains(1))
}

func TestProgression_CorrectionCascadeRejected(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatSingleElimination, 4)

	mustRecord(t, e, b, "R1M1", 2, 0)
	mustRecord(t, e, b, "R1M2", 2, 0)
	mustRecord(t, e, b, "R2M1", 2, 0)

	_, err := e.RecordResult(b, "R1M1", 0, 2)
	assert.ErrorIs(t, err, ErrCascadingCorrection)

	// A score-only correction of the same match is still allowed.
	out, err := e.RecordResult(b, "R1M1", 3, 1)
	require.NoError(t, err)
	assert.True(t, out.Corrected)
	assert.Equal(t, models.BracketCompleted, b.Status)
	assert.Equal(t, 1, *b.ChampionID)
}

func TestProgression_CorrectionReopensFinal(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatSingleElimination, 4)
	b.Participants[0].Rating = 1600
	b.Participants[1].Rating = 1500
	b.Participants[2].Rating = 1400
	b.Participants[3].Rating = 1300

	mustRecord(t, e, b, "R1M1", 2, 0)
	mustRecord(t, e, b, "R1M2", 2, 1)
	mustRecord(t, e, b, "R2M1", 3, 2)
	require.Equal(t, 1, *b.ChampionID)

	// The final itself has nothing downstream, so flipping it is allowed
	// even on a completed bracket.
	out, err := e.RecordResult(b, "R2M1", 0, 2)
	require.NoError(t, err)
	assert.True(t, out.Corrected)
	assert.True(t, out.Completed)
	assert.Equal(t, 2, *b.ChampionID)
	assert.Equal(t, models.ParticipantWinner, b.Participant(2).Status)
	assert.Equal(t, models.ParticipantEliminated, b.Participant(1).Status)
	assert.Equal(t, 1585, b.Participant(1).Rating)
	assert.Equal(t, 1532, b.Participant(2).Rating)
}

func TestProgression_SwissCorrectionAfterPairings(t *testing.T) {
	e := testEngine()
	b := buildTestBracket(t, models.FormatSwiss, 4)

	mustRecord(t, e, b, "R1M1", 2, 0)
	mustRecord(t, e, b, "R1M2", 2, 0)

	// Round two pairings were derived from this winner.
	_, err := e.RecordResult(b, "R1M1", 0, 2)
	assert.ErrorIs(t, err, ErrCascadingCorrection)

	out, err := e.RecordResult(b, "R1M1", 3, 1)
	require.NoError(t, err)
	assert.True(t, out.Corrected)
}

// Identical inputs produce byte-identical snapshots.
func TestProgression_Deterministic(t *testing.T) {
	run := func() []byte {
		e := testEngine()
		b := buildTestBracket(t, models.FormatSingleElimination, 8)
		for _, step := range []struct {
			uid    string
			s1, s2 int
		}{
			{"R1M1", 2, 0}, {"R1M2", 2, 1}, {"R1M3", 0, 2}, {"R1M4", 2, 0},
			{"R2M1", 2, 1}, {"R2M2", 1, 2}, {"R3M1", 2, 0},
		} {
			mustRecord(t, e, b, step.uid, step.s1, step.s2)
		}
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		return raw
	}

	assert.Equal(t, string(run()), string(run()))
}
