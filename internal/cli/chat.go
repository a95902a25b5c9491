package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/chris/cetes/config"
	"github.com/chris/cetes/internal/agent"
	"github.com/chris/cetes/internal/db"
	"github.com/chris/cetes/internal/history"
	"github.com/chris/cetes/internal/scheduler"
)

const replPrompt = "tú> "

func newChatCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the advisor in the terminal",
		Long: "Interactive chat. Commands: /audio <ruta> sends a recording, " +
			"/datos shows the data status, /reset clears the conversation, exit quits.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()
			a.ensureData(cmd.Context())

			s := &chatSession{responder: a.responder, db: a.db, now: time.Now}
			return runREPL(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	return cmd
}

// chatSession keeps one terminal conversation.
type chatSession struct {
	responder *agent.Responder
	db        *db.DB
	now       func() time.Time
	pairs     []history.Pair
}

// handle processes one input line and returns what to print. done is true
// when the user asked to quit.
func (s *chatSession) handle(ctx context.Context, line string) (out string, done bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return "", false
	case line == "exit" || line == "quit":
		return "", true
	case line == "/reset":
		s.pairs = nil
		return "🧹 Conversación reiniciada.", false
	case line == "/datos":
		last, err := s.db.LastRefresh()
		if err != nil {
			return "Error: " + err.Error(), false
		}
		return scheduler.Status(last, s.now()), false
	}

	in := agent.TurnInput{
		History: history.FromPairs(s.pairs),
		Shape:   history.ShapeMessages,
		Data:    agent.LoadDataContext(s.db),
	}
	if path, ok := strings.CutPrefix(line, "/audio "); ok {
		in.AudioPath = strings.TrimSpace(path)
	} else {
		in.Text = line
	}

	res := s.responder.Respond(ctx, in)
	if res.Error != "" {
		return res.Error, false
	}
	s.pairs = res.Pairs

	var b strings.Builder
	if in.AudioPath != "" {
		fmt.Fprintf(&b, "%s\n", res.Display)
	}
	b.WriteString(res.Reply)
	if res.AudioPath != "" {
		fmt.Fprintf(&b, "\n🔊 %s", res.AudioPath)
	}
	return b.String(), false
}

type lineReader interface {
	Read() (string, error)
}

type readlineReader struct{ rl *readline.Instance }

func (r readlineReader) Read() (string, error) {
	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", io.EOF
	}
	return line, err
}

type stdioReader struct {
	in  *bufio.Reader
	out io.Writer
}

func (r stdioReader) Read() (string, error) {
	fmt.Fprint(r.out, replPrompt)
	line, err := r.in.ReadString('\n')
	if err != nil && len(line) > 0 {
		return line, nil
	}
	return line, err
}

// newLineReader uses readline on an interactive terminal and plain line
// reads otherwise.
func newLineReader(in io.Reader, out io.Writer) (lineReader, func()) {
	f, ok := in.(*os.File)
	if ok {
		if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          replPrompt,
				HistoryFile:     filepath.Join(os.TempDir(), ".asesor_history"),
				HistoryLimit:    200,
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdin:           f,
				Stdout:          out,
				Stderr:          out,
			})
			if err == nil {
				return readlineReader{rl: rl}, func() { rl.Close() }
			}
		}
	}
	return stdioReader{in: bufio.NewReader(in), out: out}, func() {}
}

func runREPL(ctx context.Context, s *chatSession, in io.Reader, out io.Writer) error {
	reader, closeReader := newLineReader(in, out)
	defer closeReader()

	fmt.Fprintln(out, "💰 Mi Asesor CETES. Escribe tu pregunta o \"exit\" para salir.")
	for {
		line, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		reply, done := s.handle(ctx, line)
		if done {
			return nil
		}
		if reply == "" {
			continue
		}
		if _, err := fmt.Fprintf(out, "asesor> %s\n\n", reply); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
