package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zarux/qtictactoe/internal/app"
	"github.com/Zarux/qtictactoe/pkg/mcts"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
	"github.com/Zarux/qtictactoe/services/trainer"
)

var (
	evalGames      int
	evalWorkers    int
	evalIterations int
	evalThinkTime  time.Duration
	evalSeed       uint64

	evaluateCmd = &cobra.Command{
		Use:   "evaluate",
		Short: "Play the stored agents greedily against a tree search opponent",
		RunE:  runEvaluate,
	}
)

func init() {
	evaluateCmd.Flags().IntVarP(&evalGames, "games", "n", 100, "games per agent")
	evaluateCmd.Flags().IntVar(&evalWorkers, "mcts-workers", 2, "parallel search workers")
	evaluateCmd.Flags().IntVar(&evalIterations, "mcts-iterations", 500, "search iterations per worker and move")
	evaluateCmd.Flags().DurationVar(&evalThinkTime, "mcts-think-time", time.Second, "upper bound on search time per move")
	evaluateCmd.Flags().Uint64Var(&evalSeed, "seed", 0, "seed for the opponent and the first-mover draw, 0 for random")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	seed := evalSeed
	if seed == 0 {
		seed = rand.Uint64()
	}

	ctx := cmd.Context()
	rng := rand.New(rand.NewPCG(seed, seed>>1))
	opp := mcts.New(evalWorkers, evalIterations, mcts.WithSeed(seed), mcts.WithThinkTime(evalThinkTime))

	for _, mark := range []tictactoe.Player{tictactoe.P1, tictactoe.P2} {
		e, err := app.LoadGreedy(ctx, cfg, log, store, mark)
		if err != nil {
			return err
		}

		name := app.KnowledgeFor(cfg, mark)
		agent := &trainer.Agent{Name: name, Mark: mark, Knowledge: name, Learner: e}
		stats, err := trainer.Evaluate(ctx, agent, opp, evalGames, rng)
		if err != nil {
			return fmt.Errorf("evaluating %s: %w", name, err)
		}

		log.Info("evaluation finished", "knowledge", name, "games", stats.Games,
			"wins", stats.Wins, "losses", stats.Losses, "draws", stats.Draws)
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", name, mark.Mark(), stats)
	}

	return nil
}
