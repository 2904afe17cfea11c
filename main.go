/*
Gemgrid trains a tabular agent (Q-learning or SARSA) to cross a small grid world,
collecting gems and avoiding curses on its way to the goal, then replays the learned
greedy policy in the terminal. Training can be watched live in a browser: the value
table, greedy policy and episode diagnostics are pushed to the page over a websocket.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	. "gemgrid/grid_world"
	"gemgrid/reinforcement"
	"gemgrid/reporting"
	"gemgrid/server"
	"gemgrid/server/cell_views"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

const (
	// Episodes between progress log lines.
	LOG_EVERY = 100
	// Episodes between value-table snapshots pushed to the web view.
	SNAPSHOT_EVERY = 10
)

var (
	configPath = flag.String("config", "", "path to a training config yaml; the demo board is used if empty")
	dbg        = flag.Bool("debug", false, "debug mode")
	serve      = flag.Bool("serve", false, "serve the live training view")
	host       = flag.String("host", "localhost", "The host ip")
	port       = flag.String("port", "8080", "The host port")
	render     = flag.Bool("render", true, "animate the greedy replay in the terminal")
	frameDelay = flag.Duration("frame-delay", reporting.DEFAULT_FRAME_DELAY, "pause between replay frames")
	chartPath  = flag.String("chart", reporting.DEFAULT_CHART_PATH, "rewards chart output file; empty disables")
	seed       = flag.Uint64("seed", 0, "random seed; 0 uses the config's seed, else the clock")
)

// run is everything needed to train and replay once.
type run struct {
	algorithm     reinforcement.Algorithm
	params        reinforcement.AlgorithmParameters
	envParams     reinforcement.EnvParameters
	evalTimesteps int
	seed          uint64
	config        *reinforcement.TrainingConfig
}

// loadRun reads the config at path, or returns the demo run when path is empty.
// A non-zero seedOverride takes precedence over the config.
func loadRun(path string, seedOverride uint64) (*run, error) {
	fallbackSeed := uint64(time.Now().UnixNano())
	if seedOverride != 0 {
		fallbackSeed = seedOverride
	}

	if path == "" {
		params := reinforcement.DefaultAlgorithmParameters()
		envParams := reinforcement.DefaultEnvParameters()
		envParams.Rewarder = DemoRewarder()
		return &run{
			algorithm:     reinforcement.QLearning,
			params:        params,
			envParams:     envParams,
			evalTimesteps: params.NumTimesteps,
			seed:          fallbackSeed,
		}, nil
	}

	cfg, err := reinforcement.FromYaml(path)
	if err != nil {
		return nil, err
	}
	alg, err := cfg.Algorithm()
	if err != nil {
		return nil, err
	}
	params, err := cfg.AlgorithmParameters()
	if err != nil {
		return nil, err
	}
	envParams, err := cfg.EnvParameters()
	if err != nil {
		return nil, err
	}

	r := &run{
		algorithm:     alg,
		params:        params,
		envParams:     envParams,
		evalTimesteps: cfg.EvalTimesteps(),
		seed:          cfg.Seed(fallbackSeed),
		config:        cfg,
	}
	if seedOverride != 0 {
		r.seed = seedOverride
	}
	return r, nil
}

// lifetime bounds how long the web view outlives training: the config's training
// deadline if one is given, else until interrupted.
func (r *run) lifetime(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if r.config == nil {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, nil
	}
	return r.config.WithTrainingDeadline(ctx)
}

// publisher hands value-table snapshots to the web view without ever blocking training.
type publisher struct {
	snapshots chan cell_views.Snapshot
	tiles     [][]Tile
	trainer   *reinforcement.Trainer
}

func newPublisher(trainer *reinforcement.Trainer, tiles [][]Tile) *publisher {
	return &publisher{
		snapshots: make(chan cell_views.Snapshot, 1),
		tiles:     tiles,
		trainer:   trainer,
	}
}

func (pub *publisher) snapshot(stats reinforcement.EpisodeStats) cell_views.Snapshot {
	return cell_views.Snapshot{
		Table: pub.trainer.Table().Clone(),
		Space: pub.trainer.StateSpace(),
		Tiles: pub.tiles,
		Stats: stats,
	}
}

// offer drops the snapshot if the view has not consumed the previous one.
func (pub *publisher) offer(stats reinforcement.EpisodeStats) {
	select {
	case pub.snapshots <- pub.snapshot(stats):
	default:
	}
}

// final blocks until the last snapshot is taken or ctx ends.
func (pub *publisher) final(ctx context.Context, stats reinforcement.EpisodeStats) {
	select {
	case pub.snapshots <- pub.snapshot(stats):
	case <-ctx.Done():
	}
}

func runApp(ctx context.Context) error {
	if *dbg {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	r, err := loadRun(*configPath, *seed)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *chartPath != "" {
		r.envParams.Reporter = reporting.NewChartReporter(*chartPath, reporting.DEFAULT_WINDOW)
	}
	log.Printf("training %s for %d episodes, seed %d", r.algorithm, r.params.NumEpisodes, r.seed)

	trainer, err := reinforcement.NewTrainer(r.algorithm, r.params, r.envParams, rand.NewSource(r.seed))
	if err != nil {
		return fmt.Errorf("build trainer: %w", err)
	}
	env, err := r.envParams.NewEnv()
	if err != nil {
		return err
	}
	board := env.Board()
	reinforcement.ShowGrid(board)

	progress := reinforcement.NewProgress()
	returnsLog := reporting.NewReturnsLog()
	pub := newPublisher(trainer, env.Snapshot().Tiles)
	var last reinforcement.EpisodeStats
	trainer.WithProgress(func(stats reinforcement.EpisodeStats) {
		last = stats
		progress.Observe(stats)
		returnsLog.Observe(stats)
		if *serve && stats.Episode%SNAPSHOT_EVERY == 0 {
			pub.offer(stats)
		}
		if stats.Episode%LOG_EVERY == 0 {
			log.Printf("Episode %d of %d, total reward %.2f, epsilon %.4f",
				stats.Episode, r.params.NumEpisodes, stats.Return, stats.Epsilon)
		}
		if *dbg {
			log.Printf("%+v", stats)
		}
	})

	appCtx, appCancel, err := r.lifetime(ctx)
	if err != nil {
		return err
	}
	defer appCancel()

	group, groupCtx := errgroup.WithContext(appCtx)
	if *serve {
		srv, err := server.NewServer(
			groupCtx,
			*host+":"+*port,
			pub.snapshot(reinforcement.EpisodeStats{}),
			pub.snapshots,
			progress,
			returnsLog.Returns)
		if err != nil {
			return err
		}
		group.Go(func() error {
			return srv.Serve(groupCtx)
		})
	}

	group.Go(func() error {
		table := trainer.Train()
		diag := trainer.Diagnostics()
		log.Printf("training done: goal reached in %d of %d episodes", diag.Goals, len(diag.Returns))
		if *serve {
			pub.final(groupCtx, last)
		}

		space := trainer.StateSpace()
		reinforcement.ShowPolicy(table, space, board)
		reinforcement.ShowMaxValues(table, space, board)
		return replay(table, r)
	})

	return group.Wait()
}

func replay(table *reinforcement.ValueTable, r *run) error {
	renderer := reporting.NewTerminalRenderer(os.Stdout, *frameDelay, true)
	var frames reinforcement.FrameRenderer
	if *render {
		frames = renderer
		renderer.HideCursor()
		defer renderer.ShowCursor()
	}

	rollout, err := reinforcement.GreedyRollout(table, r.envParams, r.evalTimesteps, frames)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	renderer.PrintRollout(rollout)
	return nil
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runApp(ctx); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
