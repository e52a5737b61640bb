package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestTrainExportImport(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "missing.yaml")
	store := filepath.Join(dir, "knowledge")
	chart := filepath.Join(dir, "chart.html")

	execute(t, "train", "-c", cfgPath, "--store-dir", store, "--log-level", "error",
		"-n", "200", "--window", "50", "--chart", chart)

	for _, f := range []string{"first-player.json", "second-player.json"} {
		_, err := os.Stat(filepath.Join(store, f))
		require.NoError(t, err)
	}
	_, err := os.Stat(chart)
	require.NoError(t, err)

	out := execute(t, "inspect", "-c", cfgPath, "--store-dir", store)
	require.Contains(t, out, "first-player")
	require.Contains(t, out, "second-player")
	require.Contains(t, out, "blobs")
	require.NotContains(t, out, "unreadable")

	out = execute(t, "inspect", "-c", cfgPath, "--store-dir", store, "-b", "X........", "-p", "O")
	require.Contains(t, out, "learned")

	exported := filepath.Join(dir, "export")
	execute(t, "export", "-c", cfgPath, "--store-dir", store, "-o", exported)
	parquetPath := filepath.Join(exported, "second-player.parquet")
	_, err = os.Stat(parquetPath)
	require.NoError(t, err)

	other := filepath.Join(dir, "other")
	execute(t, "import", "-c", cfgPath, "--store-dir", other, "second-player", parquetPath)
	_, err = os.Stat(filepath.Join(other, "second-player.json"))
	require.NoError(t, err)

	out = execute(t, "evaluate", "-c", cfgPath, "--store-dir", store, "--log-level", "error",
		"-n", "3", "--mcts-iterations", "50", "--seed", "3")
	require.Contains(t, out, "first-player (X): 3 games")
	require.Contains(t, out, "second-player (O): 3 games")

	g := tictactoe.NewGame(tictactoe.P1)
	for i, m := range []int{0, 3, 1, 4, 2} {
		p := tictactoe.P1
		if i%2 == 1 {
			p = tictactoe.P2
		}
		require.NoError(t, g.Play(m, p))
	}
	data, err := g.Save()
	require.NoError(t, err)
	replayPath := filepath.Join(dir, "game.json")
	require.NoError(t, os.WriteFile(replayPath, data, 0o644))

	out = execute(t, "replay", "-c", cfgPath, "--store-dir", store, replayPath)
	require.Contains(t, out, "greedy")
	require.Contains(t, out, "X wins")
}
