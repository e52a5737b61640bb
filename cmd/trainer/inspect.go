package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Zarux/qtictactoe/internal/app"
	"github.com/Zarux/qtictactoe/internal/config"
	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/qstore"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

var (
	inspectBoard string
	inspectMark  string
	exportDir    string

	inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Show table sizes, or the Q-values of one board",
		RunE:  runInspect,
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export both agents' tables to parquet files",
		RunE:  runExport,
	}

	importCmd = &cobra.Command{
		Use:   "import <knowledge> <file.parquet>",
		Short: "Replace a stored table with one read from a parquet file",
		Args:  cobra.ExactArgs(2),
		RunE:  runImport,
	}
)

func init() {
	inspectCmd.Flags().StringVarP(&inspectBoard, "board", "b", "", `board as 9 cells of X, O or ".", row by row`)
	inspectCmd.Flags().StringVarP(&inspectMark, "player", "p", "O", "mark whose table to read")
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "export", "directory for the parquet files")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer out.Flush()

	if inspectBoard == "" {
		return listTables(ctx, out, cfg, store)
	}

	state, err := tictactoe.ParseState(inspectBoard)
	if err != nil {
		return err
	}

	var mark tictactoe.Player
	switch inspectMark {
	case "X", "x":
		mark = tictactoe.P1
	case "O", "o":
		mark = tictactoe.P2
	default:
		return fmt.Errorf("player must be X or O, got %q", inspectMark)
	}

	e, err := app.LoadGreedy(ctx, cfg, log, store, mark)
	if err != nil {
		return err
	}

	board := tictactoe.FromState(state)
	fmt.Fprint(cmd.OutOrStdout(), board.String(), "\n")

	actions := board.LegalMoves()
	if len(actions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no legal moves")
		return nil
	}

	values := e.Values(state, actions)
	best := slices.Max(values)

	fmt.Fprintln(out, "cell\tx\ty\tvalue\tlearned\t")
	for i, a := range actions {
		m := board.GetMove(a)
		_, known := e.Table().Lookup(state, a)
		marker := ""
		if values[i] == best {
			marker = "*"
		}
		fmt.Fprintf(out, "%d\t%d\t%d\t%.6f\t%t\t%s\n", a, m.X+1, m.Y+1, values[i], known, marker)
	}

	return nil
}

// listTables prints every stored table plus the two configured ones, which
// show up with zero entries before the first training run.
func listTables(ctx context.Context, out io.Writer, cfg config.Config, store app.Store) error {
	ids, err := store.IDs()
	if err != nil {
		return err
	}

	roles := map[string]string{
		app.KnowledgeFor(cfg, tictactoe.P1): tictactoe.P1.Mark(),
		app.KnowledgeFor(cfg, tictactoe.P2): tictactoe.P2.Mark(),
	}
	for id := range roles {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	fmt.Fprintln(out, "knowledge\tplays\tentries\tblobs\t")
	for _, id := range ids {
		entries := "0"
		got, err := store.Load(ctx, id)
		switch {
		case err == nil:
			entries = strconv.Itoa(len(got))
		case !errors.Is(err, qlearning.ErrEmptyStore):
			entries = "unreadable"
		}

		blobs, err := store.Blobs(id)
		if err != nil {
			return fmt.Errorf("count blobs of %s: %w", id, err)
		}

		fmt.Fprintf(out, "%s\t%s\t%s\t%d\t\n", id, roles[id], entries, blobs)
	}

	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, mark := range []tictactoe.Player{tictactoe.P1, tictactoe.P2} {
		id := app.KnowledgeFor(cfg, mark)
		entries, err := store.Load(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("load %s: %w", id, err)
		}

		path := filepath.Join(exportDir, id+".parquet")
		if err := qstore.WriteParquet(path, id, entries); err != nil {
			return err
		}
		log.Info("exported table", "knowledge", id, "entries", len(entries), "path", path)
	}

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	id, path := args[0], args[1]
	entries, err := qstore.ReadParquet(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for _, e := range entries {
		if e.Action < 0 || e.Action >= tictactoe.Cells {
			return fmt.Errorf("%w: action %d", qstore.ErrCorruptBlob, e.Action)
		}
	}

	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(cmd.Context(), id, entries); err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}

	log.Info("imported table", "knowledge", id, "entries", len(entries))
	return nil
}
