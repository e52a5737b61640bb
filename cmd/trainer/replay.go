package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Zarux/qtictactoe/internal/app"
	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

var replayCmd = &cobra.Command{
	Use:   "replay <game.json>",
	Short: "Step through a saved game with the stored agents' values for each move",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	played, err := tictactoe.LoadGame(data)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	engines := map[tictactoe.Player]*qlearning.Engine{}
	for _, mark := range []tictactoe.Player{tictactoe.P1, tictactoe.P2} {
		e, err := app.LoadGreedy(cmd.Context(), cfg, log, store, mark)
		if err != nil {
			return err
		}
		engines[mark] = e
	}

	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(out, "ply\tplayer\tcell\tvalue\tgreedy\t")

	g := tictactoe.NewGame(played.First)
	for i, move := range played.Moves {
		p := g.Next
		state := g.Board.State()
		e := engines[p]

		fmt.Fprintf(out, "%d\t%s\t%d\t%.6f\t%s\t\n", i+1, p.Mark(), move, e.Value(state, move),
			greedyMoves(e, state, g.Board.LegalMoves()))

		if err := g.Play(move, p); err != nil {
			return err
		}
	}
	if err := out.Flush(); err != nil {
		return err
	}

	result := "unfinished"
	switch g.Board.Evaluate() {
	case tictactoe.Win:
		result = g.Board.CheckWinner().Mark() + " wins"
	case tictactoe.Draw:
		result = "draw"
	}
	fmt.Fprint(cmd.OutOrStdout(), "\n", g.Board.String(), result, "\n")

	return nil
}

// greedyMoves lists every action tied for the best value on state.
func greedyMoves(e *qlearning.Engine, state tictactoe.State, actions []int) string {
	values := e.Values(state, actions)
	best := slices.Max(values)

	var moves []string
	for i, a := range actions {
		if values[i] == best {
			moves = append(moves, strconv.Itoa(a))
		}
	}

	return strings.Join(moves, ",")
}
