package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lukman83/pricehub/internal/chat"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Message sellers and businesses",
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your conversations",
	RunE:  runChatList,
}

var chatOpenCmd = &cobra.Command{
	Use:   "open [conversation-id]",
	Short: "Show a conversation and mark it read",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatOpen,
}

var chatSendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send a message to a conversation or start one with --to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChatSend,
}

var chatWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a conversation; lines typed on stdin are sent",
	RunE:  runChatWatch,
}

func init() {
	chatSendCmd.Flags().String("conversation", "", "Conversation ID")
	chatSendCmd.Flags().String("to", "", "Recipient ID; reuses an existing conversation with them")
	chatWatchCmd.Flags().String("conversation", "", "Conversation ID")
	chatWatchCmd.Flags().String("to", "", "Recipient ID")
	chatWatchCmd.Flags().Duration("interval", 0, "Poll interval (default from $PRICEHUB_CHAT_POLL or 20s)")

	chatCmd.AddCommand(chatListCmd, chatOpenCmd, chatSendCmd, chatWatchCmd)
	for _, action := range []chat.Action{chat.ActionClear, chat.ActionDelete, chat.ActionBlock, chat.ActionReport} {
		chatCmd.AddCommand(newChatActionCmd(action))
	}
	rootCmd.AddCommand(chatCmd)
}

// openWidget builds a widget for the signed-in user with the conversation
// list loaded.
func openWidget(ctx context.Context, interval time.Duration) (*chat.Widget, error) {
	svc, err := newServices()
	if err != nil {
		return nil, err
	}
	user, err := svc.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = cfg.ChatPollInterval
	}
	w := chat.NewWidget(svc.chat, user.ID, interval)
	if err := w.Refresh(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// target selects --conversation or starts with --to.
func target(ctx context.Context, cmd *cobra.Command, w *chat.Widget) error {
	cid, _ := cmd.Flags().GetString("conversation")
	to, _ := cmd.Flags().GetString("to")
	switch {
	case cid != "" && to != "":
		return errors.New("use either --conversation or --to, not both")
	case cid != "":
		return w.Select(ctx, cid)
	case to != "":
		return w.StartWith(ctx, to)
	default:
		return errors.New("--conversation or --to is required")
	}
}

func runChatList(cmd *cobra.Command, args []string) error {
	w, err := openWidget(context.Background(), 0)
	if err != nil {
		return err
	}
	printConversations(os.Stdout, w.State().Conversations)
	return nil
}

func runChatOpen(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	w, err := openWidget(ctx, 0)
	if err != nil {
		return err
	}
	if err := w.Select(ctx, args[0]); err != nil {
		return err
	}
	thread := w.State().Thread()
	if len(thread) == 0 {
		fmt.Fprintln(os.Stdout, "No messages yet.")
	}
	for _, m := range thread {
		printMessage(os.Stdout, m)
	}
	return nil
}

func runChatSend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	w, err := openWidget(ctx, 0)
	if err != nil {
		return err
	}
	if err := target(ctx, cmd, w); err != nil {
		return err
	}
	if err := w.Send(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	st := w.State()
	fmt.Fprintf(os.Stdout, "Sent to conversation %s\n", st.ActiveID)
	return nil
}

func runChatWatch(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := openWidget(ctx, interval)
	if err != nil {
		return err
	}
	if err := target(ctx, cmd, w); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Watching conversation. Type a message and press enter to send; Ctrl-C to stop.")

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	seen := make(map[string]bool)
	show := func() {
		st := w.State()
		for _, m := range st.Thread() {
			if seen[m.ID] || strings.HasPrefix(m.ID, "tmp-") {
				continue
			}
			seen[m.ID] = true
			printMessage(os.Stdout, m)
		}
		if st.Banner != "" {
			fmt.Fprintln(os.Stderr, st.Banner)
			w.DismissBanner()
		}
	}
	show()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Poll(ctx) })
	g.Go(func() error {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick.C:
				show()
			case line, ok := <-lines:
				if !ok {
					lines = nil
					continue
				}
				if err := w.Send(ctx, line); err != nil {
					fmt.Fprintf(os.Stderr, "not sent: %v\n", err)
				}
				show()
			}
		}
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out <- line
		}
	}
}

// newChatActionCmd builds the clear/delete/block/report subcommands, which
// all ask for confirmation first.
func newChatActionCmd(action chat.Action) *cobra.Command {
	c := &cobra.Command{
		Use:   string(action) + " [conversation-id]",
		Short: strings.ToUpper(string(action[:1])) + string(action[1:]) + " a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			yes, _ := cmd.Flags().GetBool("yes")
			reason, _ := cmd.Flags().GetString("reason")

			w, err := openWidget(ctx, 0)
			if err != nil {
				return err
			}
			w.RequestConfirm(action, args[0])
			if !yes && !confirm(cmd, fmt.Sprintf("%s conversation %s? [y/N] ", action, args[0])) {
				w.Dismiss()
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err := w.Confirm(ctx, reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Conversation %s: %s done.\n", args[0], action)
			return nil
		},
	}
	c.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	if action == chat.ActionReport {
		c.Flags().String("reason", "", "Why you are reporting this conversation")
	}
	return c
}

func confirm(cmd *cobra.Command, question string) bool {
	answer := prompt(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), question)
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}
