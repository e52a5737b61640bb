package game

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
	"github.com/Zarux/qtictactoe/services/game/game"
	"github.com/Zarux/qtictactoe/services/game/settings"
)

// BotFactory returns the computer player for the given mark.
type BotFactory func(mark tictactoe.Player) (*QBot, error)

type Service struct {
	newBot    BotFactory
	rng       *rand.Rand
	logger    *slog.Logger
	replayDir string
}

type Option func(*Service)

// WithReplayDir saves every finished game as a JSON replay file in dir.
func WithReplayDir(dir string) Option {
	return func(s *Service) {
		s.replayDir = dir
	}
}

func New(newBot BotFactory, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		newBot: newBot,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger: logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Play() error {
	settingsModel := settings.InitialModel(header())
	p := tea.NewProgram(settingsModel, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("settings screen: %w", err)
	}

	cfg := settingsModel.GetSettings()
	if cfg.Cancelled {
		return nil
	}

	var bot game.Bot
	if cfg.Opponent == settings.Computer {
		b, err := s.newBot(-cfg.P)
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}
		bot = b
	}

	first := s.randomFirst()
	for {
		gameModel := game.InitialModel(header(), tictactoe.NewGame(first), bot, cfg.P)

		p = tea.NewProgram(gameModel, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("game screen: %w", err)
		}

		if err := gameModel.Err(); err != nil {
			return err
		}

		winner, draw, over := gameModel.Result()
		if over {
			s.logger.Debug("game finished", slog.String("winner", winner.Mark()), slog.Bool("draw", draw))
			if err := s.saveReplay(gameModel.Game()); err != nil {
				return err
			}
		}

		if !gameModel.Replay {
			return nil
		}

		first = s.nextFirst(first, winner, draw)
	}
}

// saveReplay writes g under a fresh name in the replay dir, if one is set.
func (s *Service) saveReplay(g *tictactoe.Game) error {
	if s.replayDir == "" {
		return nil
	}

	data, err := g.Save()
	if err != nil {
		return fmt.Errorf("encode replay: %w", err)
	}

	if err := os.MkdirAll(s.replayDir, 0o755); err != nil {
		return fmt.Errorf("create replay dir: %w", err)
	}

	path := filepath.Join(s.replayDir, uuid.NewString()+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write replay: %w", err)
	}

	s.logger.Debug("saved replay", slog.String("path", path))
	return nil
}

func (s *Service) randomFirst() tictactoe.Player {
	if s.rng.IntN(2) == 0 {
		return tictactoe.P1
	}
	return tictactoe.P2
}

// nextFirst keeps the winner on move for the next game and reshuffles after
// a draw.
func (s *Service) nextFirst(first, winner tictactoe.Player, draw bool) tictactoe.Player {
	switch {
	case draw:
		return s.randomFirst()
	case winner != tictactoe.Empty:
		return winner
	}

	return first
}

var (
	headerStyle1 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#4204b5ff", Dark: "#4204b5ff"}).Render
	headerStyle2 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#19b504ff", Dark: "#19b504ff"}).Render
	headerStyle3 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b55404ff", Dark: "#b55404ff"}).Render
)

func header() string {
	return fmt.Sprintf(
		"%s %s %s %s %s\n\n",
		headerStyle2("---"),
		headerStyle1("Q"),
		headerStyle2("Tic"),
		headerStyle3("TacToe"),
		headerStyle2("---"),
	)
}
