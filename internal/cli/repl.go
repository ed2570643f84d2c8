package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/neoclaw-ai/tgharness/internal/config"
	"github.com/neoclaw-ai/tgharness/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newREPLCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Chat with the demo bot through the harness",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config %s: %w", cfg.ConfigPath(), err)
			}
			if err := applyLogLevel(cfg.Log, *verbose); err != nil {
				return err
			}

			p, err := newPlayground(cfg, logging.Logger())
			if err != nil {
				return err
			}
			defer p.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runREPL(ctx, p, cfg.REPL, cfg.HistoryPath(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// applyLogLevel sets the process log level from cfg unless verbose already
// raised it to debug.
func applyLogLevel(cfg config.LogConfig, verbose bool) error {
	if verbose {
		return nil
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logging.SetLevel(level)
	return nil
}

type replChannel interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}

type readlineChannel struct {
	rl  *readline.Instance
	out io.Writer
}

func newReadlineChannel(in io.Reader, out io.Writer, cfg config.REPLConfig, historyPath string) (*readlineChannel, error) {
	stdin, ok := in.(io.ReadCloser)
	if !ok {
		return nil, fmt.Errorf("stdin is not read-closer")
	}
	inFile, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(inFile.Fd())) {
		return nil, fmt.Errorf("stdin is not terminal")
	}
	outFile, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(outFile.Fd())) {
		return nil, fmt.Errorf("stdout is not terminal")
	}

	historyLimit := cfg.HistoryLimit
	if historyPath == "" {
		historyLimit = -1
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		HistoryFile:     historyPath,
		HistoryLimit:    historyLimit,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
		Stdin:           stdin,
		Stdout:          out,
		Stderr:          out,
	})
	if err != nil {
		return nil, err
	}
	return &readlineChannel{rl: rl, out: out}, nil
}

func (c *readlineChannel) Read(_ context.Context) (string, error) {
	line, err := c.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", err
	}
	return line, nil
}

func (c *readlineChannel) Write(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.out, "%s\n\n", text)
	return err
}

func (c *readlineChannel) Close() error {
	return c.rl.Close()
}

type stdioChannel struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

func newStdioChannel(in io.Reader, out io.Writer, prompt string) *stdioChannel {
	return &stdioChannel{in: bufio.NewReader(in), out: out, prompt: prompt}
}

func (c *stdioChannel) Read(_ context.Context) (string, error) {
	if _, err := fmt.Fprint(c.out, c.prompt); err != nil {
		return "", err
	}
	line, err := c.in.ReadString('\n')
	if err != nil {
		if len(line) > 0 {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

func (c *stdioChannel) Write(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.out, "%s\n\n", text)
	return err
}

func runREPL(ctx context.Context, p *playground, cfg config.REPLConfig, historyPath string, in io.Reader, out io.Writer) error {
	var channel replChannel
	if rl, err := newReadlineChannel(in, out, cfg, historyPath); err == nil {
		channel = rl
		defer rl.Close()
	} else {
		logging.Logger().Debug("readline unavailable, using line reader", "err", err)
		channel = newStdioChannel(in, out, cfg.Prompt)
	}
	return runLoop(ctx, p, channel)
}

func runLoop(ctx context.Context, p *playground, channel replChannel) error {
	if err := channel.Write(ctx, "Harness playground. Type :help for meta commands or :quit to stop."); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		raw, err := channel.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		output, quit, err := p.Handle(ctx, raw)
		if quit {
			return nil
		}
		if err != nil {
			if writeErr := channel.Write(ctx, fmt.Sprintf("error: %v", err)); writeErr != nil {
				return writeErr
			}
			continue
		}
		if output == "" {
			continue
		}
		if err := channel.Write(ctx, output); err != nil {
			return err
		}
	}
}
