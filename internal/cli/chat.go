package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/app"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/appointment"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/config"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/conversation"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/db"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

const chatGreeting = `Hi! Ask me anything about the ingested documents, or say "call me" to book a callback.
Commands: /form shows the appointment form, /reset starts over, /quit exits.`

// Chatter is the part of conversation.Manager the chat loop drives.
type Chatter interface {
	Create(ctx context.Context) (conversation.Session, error)
	Send(ctx context.Context, id, text string) (conversation.Reply, error)
	Reset(ctx context.Context, id string) (form.Status, error)
	FormStatus(ctx context.Context, id string) (form.Status, error)
}

func newChatCmd(newLogger loggerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat in the terminal",
		Long: `Starts a conversation that lives for the duration of the process.
Completed appointments are stored in Postgres when POSTGRES_DSN is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			ctx := cmd.Context()

			docs, store, err := app.OpenDocuments(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			var handoff conversation.Handoff
			if cfg.PostgresDSN != "" {
				connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				pool, err := db.ConnectPostgres(connCtx, cfg.PostgresDSN)
				if err == nil {
					err = db.Migrate(connCtx, pool)
				}
				cancel()
				if err != nil {
					return err
				}
				defer pool.Close()
				handoff = appointment.NewService(appointment.NewPgRepository(pool), nil, logger)
			}

			assistant := app.NewAssistant(cfg, app.CompletionClient(cfg), docs, handoff, logger)
			mgr := conversation.NewManager(assistant, conversation.NewMemoryStore(), conversation.NewLocalLocker(), logger)

			return runChat(ctx, mgr, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runChat(ctx context.Context, c Chatter, in io.Reader, out io.Writer) error {
	sess, err := c.Create(ctx)
	if err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}

	fmt.Fprintln(out, chatGreeting)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if _, err := c.Reset(ctx, sess.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Conversation cleared.")
		case "/form":
			st, err := c.FormStatus(ctx, sess.ID)
			if err != nil {
				return err
			}
			printForm(out, st)
		default:
			reply, err := c.Send(ctx, sess.ID, line)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, reply.Reply)
		}
	}
}

func printForm(out io.Writer, st form.Status) {
	fmt.Fprintf(out, "state: %s\n", st.State)
	if st.CurrentField != "" {
		fmt.Fprintf(out, "waiting for: %s\n", st.CurrentField)
	}
	for _, f := range form.Fields {
		value := "-"
		if v := st.Fields[f]; v != nil {
			value = *v
		}
		fmt.Fprintf(out, "  %-17s %s\n", f, value)
	}
}
