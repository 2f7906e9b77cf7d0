package browser

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"
)

// Run starts the browser and blocks until the user quits or ctx is done.
// The TUI renders to stderr so stdout stays free for piping.
func Run(ctx context.Context, cfg Config) error {
	profile := colorprofile.Detect(os.Stderr, os.Environ())
	if cfg.Profile == colorprofile.Unknown {
		cfg.Profile = profile
	}

	m := New(ctx, cfg)
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithOutput(os.Stderr),
		tea.WithColorProfile(profile),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, tea.ErrInterrupted) {
			return nil
		}
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
