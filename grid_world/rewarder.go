package grid_world

// Rewarder computes the reward for the agent's latest move from a read-only view of the
// environment. Rewarders must be stateless and free of side effects.
type Rewarder interface {
	Reward(View) float64
}

// RewarderFunc adapts a plain function to a Rewarder.
type RewarderFunc func(View) float64

func (fn RewarderFunc) Reward(view View) float64 {
	return fn(view)
}

// TileRewarder rewards the tile under the agent. Tiles missing from Rewards fall back to
// their default reward.
type TileRewarder struct {
	Rewards map[Tile]float64
}

func (tr TileRewarder) Reward(view View) float64 {
	return tr.tileReward(view.AgentTile())
}

func (tr TileRewarder) tileReward(tile Tile) float64 {
	if reward, ok := tr.Rewards[tile]; ok {
		return reward
	}
	return tile.DefaultReward()
}

// RevisitPenalty subtracts Penalty from the Base reward whenever the agent steps onto a
// position it already stepped onto earlier in the episode. The entry appended for the
// current move is not counted, and the initial position only counts once stepped onto.
type RevisitPenalty struct {
	Base    Rewarder
	Penalty float64
}

func (rp RevisitPenalty) Reward(view View) float64 {
	reward := rp.Base.Reward(view)
	if Revisited(view) {
		reward -= rp.Penalty
	}
	return reward
}

// Revisited reports whether the agent's current position occurs earlier in its path.
func Revisited(view View) bool {
	return view.VisitedBefore(view.AgentPosition())
}

// DEMO_REVISIT_PENALTY is the penalty used by the demo rewarder.
const DEMO_REVISIT_PENALTY = 1.5

// DemoRewarder is the alternate demo strategy: richer gem and goal rewards, and a penalty
// for revisiting positions.
func DemoRewarder() Rewarder {
	return RevisitPenalty{
		Base: TileRewarder{
			Rewards: map[Tile]float64{
				Gem:  10,
				Goal: 30,
			},
		},
		Penalty: DEMO_REVISIT_PENALTY,
	}
}
