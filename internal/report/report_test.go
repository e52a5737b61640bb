package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zarux/qtictactoe/services/trainer"
)

func TestTrainingCurve(t *testing.T) {
	windows := []trainer.WindowStats{
		{End: 100, Games: 100, Wins: [2]int{60, 30}, Draws: 10, TableSize: [2]int{300, 250}},
		{End: 200, Games: 100, Wins: [2]int{40, 20}, Draws: 40, TableSize: [2]int{500, 420}},
	}

	var buf bytes.Buffer
	require.NoError(t, TrainingCurve(&buf, [2]string{"first", "second"}, windows))
	require.Contains(t, buf.String(), "first wins")
	require.Contains(t, buf.String(), "Table entries")

	path := filepath.Join(t.TempDir(), "charts", "training.html")
	require.NoError(t, WriteFile(path, [2]string{"first", "second"}, windows))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestTrainingCurveEmpty(t *testing.T) {
	require.ErrorIs(t, TrainingCurve(&bytes.Buffer{}, [2]string{}, nil), ErrNoWindows)
}
