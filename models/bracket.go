package models

import "time"

// BracketFormat identifies the bracket topology of a tournament.
type BracketFormat string

const (
	FormatSingleElimination BracketFormat = "SingleElimination"
	FormatDoubleElimination BracketFormat = "DoubleElimination"
	FormatRoundRobin        BracketFormat = "RoundRobin"
	FormatSwiss             BracketFormat = "Swiss"
)

// BracketStatus represents the bracket lifecycle. Completed is terminal;
// a correction of the deciding match reopens the bracket explicitly.
type BracketStatus string

const (
	BracketBuilding   BracketStatus = "building"
	BracketInProgress BracketStatus = "in_progress"
	BracketCompleted  BracketStatus = "completed"
)

// BracketBranch distinguishes the main bracket from the losers bracket.
// Only double elimination uses the losers branch.
type BracketBranch string

const (
	BranchMain   BracketBranch = "main"
	BranchLosers BracketBranch = "losers"
)

// BracketOptions carries per-format build settings.
type BracketOptions struct {
	// SwissRounds is the number of swiss rounds to play. Zero means
	// ceil(log2(N)) is chosen at build time.
	SwissRounds int `json:"swiss_rounds,omitempty"`
}

// BracketNode is a single match slot in the node arena. Nodes reference each
// other by stable UID strings (for example "R2M1", "LR3M2", "GF"), never by
// pointer, so the whole graph serializes and round-trips exactly.
type BracketNode struct {
	UID          string        `json:"uid"`
	Round        int           `json:"round"`
	OrderInRound int           `json:"order_in_round"`
	Branch       BracketBranch `json:"branch"`

	Participant1ID *int `json:"participant1_id,omitempty"`
	Participant2ID *int `json:"participant2_id,omitempty"`

	SourceNode1UID *string `json:"source_node1_uid,omitempty"`
	SourceNode2UID *string `json:"source_node2_uid,omitempty"`
	// SourceNIsLoser marks inputs fed by the loser of the source node
	// (losers-bracket drop-in slots).
	Source1IsLoser bool `json:"source1_is_loser,omitempty"`
	Source2IsLoser bool `json:"source2_is_loser,omitempty"`

	// SlotNBye marks an input that will never receive a participant.
	Slot1Bye bool `json:"slot1_bye,omitempty"`
	Slot2Bye bool `json:"slot2_bye,omitempty"`

	// IsBye marks a node that is never played: its single participant
	// auto-advances without a result and without a rating update.
	IsBye            bool `json:"is_bye,omitempty"`
	ByeParticipantID *int `json:"bye_participant_id,omitempty"`

	WinnerToUID  *string `json:"winner_to_uid,omitempty"`
	WinnerToSlot *int    `json:"winner_to_slot,omitempty"`
	LoserToUID   *string `json:"loser_to_uid,omitempty"`
	LoserToSlot  *int    `json:"loser_to_slot,omitempty"`

	GrandFinal      bool `json:"grand_final,omitempty"`
	GrandFinalReset bool `json:"grand_final_reset,omitempty"`
	// Voided marks the reset match when the main-bracket representative
	// won the grand final and no second match is needed.
	Voided bool `json:"voided,omitempty"`

	Result *MatchResult `json:"result,omitempty"`
	// Applied rating deltas, kept so a correction can reverse them exactly.
	RatingDelta1 *int `json:"rating_delta1,omitempty"`
	RatingDelta2 *int `json:"rating_delta2,omitempty"`
}

// Ready reports whether the node is awaiting a result with both input slots
// holding concrete participants.
func (n *BracketNode) Ready() bool {
	return !n.IsBye && !n.Voided && n.Result == nil &&
		n.Participant1ID != nil && n.Participant2ID != nil
}

// Playable reports whether the node represents a match that is (or will be)
// actually contested.
func (n *BracketNode) Playable() bool {
	return !n.IsBye && !n.Voided
}

// Participant returns the participant id in the given slot (1 or 2), or nil.
func (n *BracketNode) Participant(slot int) *int {
	if slot == 1 {
		return n.Participant1ID
	}
	return n.Participant2ID
}

// SetParticipant assigns the participant id to the given slot (1 or 2).
func (n *BracketNode) SetParticipant(slot int, id *int) {
	if slot == 1 {
		n.Participant1ID = id
	} else {
		n.Participant2ID = id
	}
}

// Contains reports whether the participant occupies either slot.
func (n *BracketNode) Contains(id int) bool {
	return (n.Participant1ID != nil && *n.Participant1ID == id) ||
		(n.Participant2ID != nil && *n.Participant2ID == id)
}

// Bracket is the full node arena for one tournament. It is created once by
// the builder and mutated in place by the progression engine; the node graph
// is never restructured after creation, except that swiss formats append
// whole rounds.
type Bracket struct {
	ID           string         `json:"id"`
	TournamentID int            `json:"tournament_id"`
	Format       BracketFormat  `json:"format"`
	Options      BracketOptions `json:"options"`
	Status       BracketStatus  `json:"status"`
	CurrentRound int            `json:"current_round"`
	ChampionID   *int           `json:"champion_id,omitempty"`
	Participants []*Participant `json:"participants"`
	Nodes        []*BracketNode `json:"nodes"`
	CreatedAt    time.Time      `json:"created_at"`

	nodeIndex        map[string]*BracketNode
	participantIndex map[int]*Participant
}

// Reindex rebuilds the lookup maps from the serialized slices. Call after
// unmarshalling a snapshot and after appending nodes.
func (b *Bracket) Reindex() {
	b.nodeIndex = make(map[string]*BracketNode, len(b.Nodes))
	for _, n := range b.Nodes {
		b.nodeIndex[n.UID] = n
	}
	b.participantIndex = make(map[int]*Participant, len(b.Participants))
	for _, p := range b.Participants {
		b.participantIndex[p.ID] = p
	}
}

// Node returns the node with the given UID, or nil.
func (b *Bracket) Node(uid string) *BracketNode {
	if b.nodeIndex == nil {
		b.Reindex()
	}
	return b.nodeIndex[uid]
}

// Participant returns the tournament participant with the given id, or nil.
func (b *Bracket) Participant(id int) *Participant {
	if b.participantIndex == nil {
		b.Reindex()
	}
	return b.participantIndex[id]
}

// AddNode appends a node to the arena and indexes it.
func (b *Bracket) AddNode(n *BracketNode) {
	if b.nodeIndex == nil {
		b.Reindex()
	}
	b.Nodes = append(b.Nodes, n)
	b.nodeIndex[n.UID] = n
}

// NodesInRound returns the nodes of one round of one branch, in order.
func (b *Bracket) NodesInRound(branch BracketBranch, round int) []*BracketNode {
	var out []*BracketNode
	for _, n := range b.Nodes {
		if n.Branch == branch && n.Round == round {
			out = append(out, n)
		}
	}
	return out
}

// MaxRound returns the highest round number present in the given branch.
func (b *Bracket) MaxRound(branch BracketBranch) int {
	max := 0
	for _, n := range b.Nodes {
		if n.Branch == branch && n.Round > max {
			max = n.Round
		}
	}
	return max
}

// ReadyNodeUIDs lists every node currently awaiting a result, in arena order.
func (b *Bracket) ReadyNodeUIDs() []string {
	var out []string
	for _, n := range b.Nodes {
		if n.Ready() {
			out = append(out, n.UID)
		}
	}
	return out
}
