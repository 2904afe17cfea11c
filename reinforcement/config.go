package reinforcement

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	. "gemgrid/grid_world"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OuterConfig is the config file envelope: the kind of algorithm and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// TrainingConfig encodes algorithmic, training and environment parameters outside of code.
// Viper folds keys to lower case, so the yaml tags are all lower case as well.
type TrainingConfig struct {
	// Kind is the algorithm selector, taken from the envelope.
	Kind string `yaml:"-"`
	// HyperParams is a key-val pair of param names and their value.
	HyperParams []HyperParameter `yaml:"hyperparams"`
	// Decay is the epsilon schedule: geometric or linear.
	Decay string `yaml:"decay"`
	// TrainingDeadline is a duration bounding how long the application runs.
	TrainingDeadline map[string]string `yaml:"trainingdeadline"`
	Environment      EnvConfig         `yaml:"environment"`
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// EnvConfig describes the board, the agent's start and the reward strategy.
type EnvConfig struct {
	Size     int            `yaml:"size"`
	Start    PositionConfig `yaml:"start"`
	Tiles    []TileConfig   `yaml:"tiles"`
	Rewarder RewarderConfig `yaml:"rewarder"`
}

type PositionConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type TileConfig struct {
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	Tile string `yaml:"tile"`
}

// RewarderConfig selects a reward strategy: "flat" tile rewards, or "revisit" which
// subtracts Penalty for stepping onto an already visited position. Rewards overrides the
// default reward of named tiles.
type RewarderConfig struct {
	Kind    string             `yaml:"kind"`
	Penalty float64            `yaml:"penalty"`
	Rewards map[string]float64 `yaml:"rewards"`
}

// ErrUnknownRewarder is returned for an unsupported rewarder kind.
var ErrUnknownRewarder = errors.New("unknown rewarder")

// Hyper-parameter keys.
const (
	GAMMA_KEY          = "gamma"
	ALPHA_KEY          = "alpha"
	EPSILON_KEY        = "epsilon"
	MIN_EPSILON_KEY    = "minepsilon"
	TIMESTEPS_KEY      = "timesteps"
	EPISODES_KEY       = "episodes"
	EVAL_TIMESTEPS_KEY = "evaltimesteps"
	SEED_KEY           = "seed"
)

func (cfg *TrainingConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// WithTrainingDeadline returns a context extended by the training deadline, if one is specified.
func (cfg *TrainingConfig) WithTrainingDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.TrainingDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, err
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// Algorithm returns the algorithm named by the envelope's kind.
func (cfg *TrainingConfig) Algorithm() (Algorithm, error) {
	return ParseAlgorithm(cfg.Kind)
}

// AlgorithmParameters reads the hyper-parameters, defaulting missing ones to the demo values.
func (cfg *TrainingConfig) AlgorithmParameters() (AlgorithmParameters, error) {
	def := DefaultAlgorithmParameters()
	params := AlgorithmParameters{
		DiscountRate: cfg.GetHyperParamOrDefault(GAMMA_KEY, def.DiscountRate),
		LearningRate: cfg.GetHyperParamOrDefault(ALPHA_KEY, def.LearningRate),
		Epsilon:      cfg.GetHyperParamOrDefault(EPSILON_KEY, def.Epsilon),
		MinEpsilon:   cfg.GetHyperParamOrDefault(MIN_EPSILON_KEY, def.MinEpsilon),
		NumTimesteps: int(cfg.GetHyperParamOrDefault(TIMESTEPS_KEY, float64(def.NumTimesteps))),
		NumEpisodes:  int(cfg.GetHyperParamOrDefault(EPISODES_KEY, float64(def.NumEpisodes))),
		Decay:        Decay(cfg.Decay),
	}
	if params.Decay == "" {
		params.Decay = def.Decay
	}
	return params, params.Validate()
}

// EvalTimesteps is the greedy replay's step cap, defaulting to the training cap.
func (cfg *TrainingConfig) EvalTimesteps() int {
	timesteps := cfg.GetHyperParamOrDefault(TIMESTEPS_KEY, float64(DefaultAlgorithmParameters().NumTimesteps))
	return int(cfg.GetHyperParamOrDefault(EVAL_TIMESTEPS_KEY, timesteps))
}

// Seed returns the configured seed, or the fallback if none is given.
func (cfg *TrainingConfig) Seed(fallback uint64) uint64 {
	return uint64(cfg.GetHyperParamOrDefault(SEED_KEY, float64(fallback)))
}

// ErrSizeWithoutTiles is returned when a board size is configured without any tiles.
var ErrSizeWithoutTiles = errors.New("environment size given without tiles")

// EnvParameters builds the environment parameters. An empty tile list selects the demo
// board, in which case no size may be given; the board itself is validated when the
// environment is constructed.
func (cfg *TrainingConfig) EnvParameters() (EnvParameters, error) {
	env := cfg.Environment
	params := EnvParameters{
		Size:                 env.Size,
		InitialAgentPosition: Position{X: env.Start.X, Y: env.Start.Y},
	}
	if len(env.Tiles) == 0 {
		if env.Size != 0 {
			return params, fmt.Errorf("%w: size %d", ErrSizeWithoutTiles, env.Size)
		}
		params.Size = DEMO_SIZE
		params.TileOverrides = DemoTiles()
	} else {
		params.TileOverrides = make(map[Position]Tile, len(env.Tiles))
		for _, tc := range env.Tiles {
			tile, err := ParseTile(tc.Tile)
			if err != nil {
				return params, err
			}
			params.TileOverrides[Position{X: tc.X, Y: tc.Y}] = tile
		}
	}

	rewarder, err := env.Rewarder.Build()
	if err != nil {
		return params, err
	}
	params.Rewarder = rewarder
	return params, nil
}

// Build converts the config into a Rewarder.
func (rc RewarderConfig) Build() (Rewarder, error) {
	rewards := make(map[Tile]float64, len(rc.Rewards))
	for name, val := range rc.Rewards {
		tile, err := ParseTile(name)
		if err != nil {
			return nil, err
		}
		rewards[tile] = val
	}
	base := TileRewarder{Rewards: rewards}

	switch rc.Kind {
	case "", "flat":
		return base, nil
	case "revisit":
		return RevisitPenalty{Base: base, Penalty: rc.Penalty}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRewarder, rc.Kind)
}

// FromYaml reads the config envelope with viper, then decodes its definition.
func FromYaml(path string) (*TrainingConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}

	var spec []byte
	if spec, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := &TrainingConfig{}
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, err
	}
	innerConfig.Kind = outerConfig.Kind

	return innerConfig, nil
}
