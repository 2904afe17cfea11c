package reinforcement

/*
Tabular control on a deterministic grid world. A single agent learns action values for
every (position, direction) pair with one of two one-step bootstraps:

  - SARSA (on-policy): the target uses the value of the action the behavior policy
    actually chose in the successor state.
  - Q-learning (off-policy): the target uses the best value among the actions legal in
    the successor state, regardless of what the behavior policy does next.

Both use the same epsilon-greedy behavior policy, restricted to legal moves, with epsilon
decayed once per episode. The loop is single threaded and does no I/O; the only hooks are
the synchronous progress callback and the reward reporter called once training completes.
*/

import (
	"errors"
	"fmt"

	. "gemgrid/grid_world"

	"golang.org/x/exp/rand"
)

// Algorithm selects the bootstrap rule.
type Algorithm string

const (
	QLearning Algorithm = "q-learning"
	SARSA     Algorithm = "sarsa"
)

// ErrUnknownAlgorithm is returned for an unsupported algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ParseAlgorithm validates an algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch alg := Algorithm(name); alg {
	case QLearning, SARSA:
		return alg, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// AlgorithmParameters are the learning hyper-parameters.
type AlgorithmParameters struct {
	// DiscountRate (gamma) in (0,1]: how much to value successor state values.
	DiscountRate float64
	// LearningRate (alpha) in (0,1].
	LearningRate float64
	// Epsilon in [0,1] is the initial exploration probability.
	Epsilon float64
	// MinEpsilon in (0,Epsilon] is the floor of the decay schedule.
	MinEpsilon float64
	// NumTimesteps caps the length of each episode.
	NumTimesteps int
	NumEpisodes  int
	Decay        Decay
}

// DefaultAlgorithmParameters returns the demo hyper-parameters.
func DefaultAlgorithmParameters() AlgorithmParameters {
	return AlgorithmParameters{
		DiscountRate: 0.95,
		LearningRate: 0.1,
		Epsilon:      1.0,
		MinEpsilon:   0.01,
		NumTimesteps: 1000,
		NumEpisodes:  500,
		Decay:        Geometric,
	}
}

// ErrInvalidParameter is returned when a hyper-parameter is out of range.
var ErrInvalidParameter = errors.New("invalid parameter")

// Validate checks every parameter's range.
func (p AlgorithmParameters) Validate() error {
	switch {
	case p.DiscountRate <= 0 || p.DiscountRate > 1:
		return fmt.Errorf("%w: discount rate %v not in (0,1]", ErrInvalidParameter, p.DiscountRate)
	case p.LearningRate <= 0 || p.LearningRate > 1:
		return fmt.Errorf("%w: learning rate %v not in (0,1]", ErrInvalidParameter, p.LearningRate)
	case p.Epsilon < 0 || p.Epsilon > 1:
		return fmt.Errorf("%w: epsilon %v not in [0,1]", ErrInvalidParameter, p.Epsilon)
	case p.MinEpsilon <= 0 || p.MinEpsilon > p.Epsilon:
		return fmt.Errorf("%w: min epsilon %v not in (0,%v]", ErrInvalidParameter, p.MinEpsilon, p.Epsilon)
	case p.NumTimesteps <= 0:
		return fmt.Errorf("%w: timesteps %d must be positive", ErrInvalidParameter, p.NumTimesteps)
	case p.NumEpisodes <= 0:
		return fmt.Errorf("%w: episodes %d must be positive", ErrInvalidParameter, p.NumEpisodes)
	}
	return nil
}

// RewardReporter receives the per-episode returns once training completes.
type RewardReporter interface {
	ReportRewards(returns []float64)
}

// EnvParameters describe how to build the environment for a run.
type EnvParameters struct {
	Size                 int
	TileOverrides        map[Position]Tile
	InitialAgentPosition Position
	Rewarder             Rewarder
	// Reporter is optional.
	Reporter RewardReporter
}

// DefaultEnvParameters returns the demo board with flat tile rewards.
func DefaultEnvParameters() EnvParameters {
	return EnvParameters{
		Size:          DEMO_SIZE,
		TileOverrides: DemoTiles(),
		Rewarder:      TileRewarder{},
	}
}

// NewEnv builds a fresh environment from the parameters.
func (p EnvParameters) NewEnv() (*Env, error) {
	return NewEnv(p.TileOverrides, p.Size, p.InitialAgentPosition, p.Rewarder)
}

// EpisodeStats are the diagnostics recorded for one episode.
type EpisodeStats struct {
	Episode int
	Return  float64
	// Epsilon is the exploration rate in effect during the episode.
	Epsilon     float64
	Timesteps   int
	ReachedGoal bool
}

// Diagnostics accumulate per-episode statistics over a run.
type Diagnostics struct {
	Returns   []float64
	Epsilons  []float64
	Timesteps []int
	Goals     int
}

func (d *Diagnostics) record(stats EpisodeStats) {
	d.Returns = append(d.Returns, stats.Return)
	d.Epsilons = append(d.Epsilons, stats.Epsilon)
	d.Timesteps = append(d.Timesteps, stats.Timesteps)
	if stats.ReachedGoal {
		d.Goals++
	}
}

// ProgressFunc is called synchronously after every episode, before epsilon decays.
// It runs inside the training loop and must complete quickly.
type ProgressFunc func(EpisodeStats)

// Trainer owns the environment, the value table and the behavior policy for one run.
type Trainer struct {
	algorithm   Algorithm
	params      AlgorithmParameters
	env         *Env
	space       *StateSpace
	table       *ValueTable
	policy      *EpsilonGreedy
	schedule    *EpsilonSchedule
	reporter    RewardReporter
	progressFn  ProgressFunc
	diagnostics Diagnostics
}

// NewTrainer validates the configuration and builds the environment and a zeroed table.
// All exploration draws come from src.
func NewTrainer(
	algorithm Algorithm,
	params AlgorithmParameters,
	envParams EnvParameters,
	src rand.Source,
) (*Trainer, error) {
	if _, err := ParseAlgorithm(string(algorithm)); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	env, err := envParams.NewEnv()
	if err != nil {
		return nil, err
	}

	schedule, err := NewEpsilonSchedule(params.Decay, params.Epsilon, params.MinEpsilon, params.NumEpisodes)
	if err != nil {
		return nil, err
	}

	space := NewStateSpace(env.Board().Positions())
	table := NewValueTable(space.NumStates(), space.NumActions())

	return &Trainer{
		algorithm: algorithm,
		params:    params,
		env:       env,
		space:     space,
		table:     table,
		policy:    NewEpsilonGreedy(table, src),
		schedule:  schedule,
		reporter:  envParams.Reporter,
	}, nil
}

// WithProgress registers a per-episode progress hook.
func (t *Trainer) WithProgress(fn ProgressFunc) *Trainer {
	t.progressFn = fn
	return t
}

// Table returns the value table being trained.
func (t *Trainer) Table() *ValueTable {
	return t.table
}

// StateSpace returns the position encoding used by the table.
func (t *Trainer) StateSpace() *StateSpace {
	return t.space
}

// Diagnostics returns the statistics recorded so far.
func (t *Trainer) Diagnostics() Diagnostics {
	return t.diagnostics
}

// Train runs every episode, hands the returns to the reporter, and returns the table.
func (t *Trainer) Train() *ValueTable {
	epsilon := t.schedule.Initial()
	for episode := 1; episode <= t.params.NumEpisodes; episode++ {
		stats := t.runEpisode(epsilon)
		stats.Episode = episode

		t.diagnostics.record(stats)
		if t.progressFn != nil {
			t.progressFn(stats)
		}

		epsilon = t.schedule.After(episode)
	}

	if t.reporter != nil {
		t.reporter.ReportRewards(append([]float64(nil), t.diagnostics.Returns...))
	}
	return t.table
}

// runEpisode plays one episode from reset until the goal is reached (termination) or the
// timestep cap is exceeded (truncation), updating the table after every step.
func (t *Trainer) runEpisode(epsilon float64) EpisodeStats {
	t.env.Reset()
	state := t.space.State(t.env.AgentPosition())
	moves := t.env.AvailableActions()
	action := t.policy.Choose(state, moves.Allows, epsilon)

	total := 0.0
	steps := 0
	for !t.env.ReachedGoal() && steps < t.params.NumTimesteps {
		reward := t.env.Step(moves[action])
		successor := t.space.State(t.env.AgentPosition())

		// The successor action is always chosen: SARSA bootstraps from it, and both
		// algorithms follow it on the next step.
		moves = t.env.AvailableActions()
		nextAction := t.policy.Choose(successor, moves.Allows, epsilon)

		t.update(state, action, reward, successor, nextAction, moves.Allows)

		total += reward
		state, action = successor, nextAction
		steps++
	}

	return EpisodeStats{
		Return:      total,
		Epsilon:     epsilon,
		Timesteps:   steps,
		ReachedGoal: t.env.ReachedGoal(),
	}
}

// update applies one step of the configured rule to Q(state, action). SARSA bootstraps
// from Q(successor, nextAction); Q-learning from the best value among the actions legal
// in the successor.
func (t *Trainer) update(
	state State,
	action Action,
	reward float64,
	successor State,
	nextAction Action,
	legal func(Action) bool,
) {
	alpha, gamma := t.params.LearningRate, t.params.DiscountRate

	var bootstrap float64
	switch t.algorithm {
	case SARSA:
		bootstrap = t.table.Get(successor, nextAction)
	default:
		bootstrap = t.table.MaxAllowed(successor, legal)
	}

	q := t.table.Get(state, action)
	t.table.Set(state, action, q+alpha*(reward+gamma*bootstrap-q))
}

// Train builds a trainer and runs it to completion.
func Train(
	algorithm Algorithm,
	params AlgorithmParameters,
	envParams EnvParameters,
	src rand.Source,
) (*ValueTable, error) {
	trainer, err := NewTrainer(algorithm, params, envParams, src)
	if err != nil {
		return nil, err
	}
	return trainer.Train(), nil
}
