package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/multichat/multichat-go/internal/provider/echo"
	"github.com/multichat/multichat-go/internal/session"
)

func chatCmd() *cobra.Command {
	var label, model string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal",
		Long:  "Chat in the terminal. Type /reset to clear the conversation and /quit to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			if label == "" {
				label = a.session.Registry().Default().Label
			}
			return repl(cmd.Context(), a.session, label, model, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&label, "provider", "p", "", "provider label (defaults to the first provider)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model identifier (defaults to the provider's first model)")
	return cmd
}

// repl reads one user turn per line and prints the assistant reply. It
// returns when input ends, on /quit, or as soon as ctx is cancelled, even
// while waiting for a line.
func repl(ctx context.Context, sess *session.Session, label, model string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, scanErr := scanLines(ctx, in)
	for {
		fmt.Fprintf(out, "%s> ", label)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			line = l
		}
		switch strings.TrimSpace(line) {
		case "/quit":
			return nil
		case "/reset":
			if err := sess.Reset(); err != nil {
				fmt.Fprintln(out, err)
			}
		default:
			turn, err := sess.Submit(ctx, label, model, line)
			if err != nil {
				fmt.Fprintln(out, session.ErrorPrefix+err.Error())
			} else {
				fmt.Fprintln(out, turn.Assistant.Content)
			}
		}
	}
}

// scanLines feeds lines from in until it ends or ctx is cancelled. The
// error channel receives the scanner's error once lines is closed.
func scanLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}

func echoUpstreamCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "echo-upstream",
		Short: "Run a local upstream that echoes the last user message",
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{Addr: addr, Handler: echo.Handler()}
			go func() {
				<-cmd.Context().Done()
				_ = srv.Shutdown(context.Background())
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "echo upstream on %s (%s, %s)\n", addr, echo.ChatCompletionsPath, echo.AnthropicMessagesPath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "address", ":8081", "listen address")
	return cmd
}
