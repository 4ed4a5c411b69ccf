package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/overlay/pkg/config"
	"github.com/DeBrosOfficial/overlay/pkg/session"
)

func newSessionCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the stored session",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored role and topics",
		Args:  cobra.NoArgs,
		RunE: g.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *runtime, args []string) error {
			sess, err := rt.loadSession(ctx)
			if err != nil {
				return err
			}
			st := sess.Snapshot()
			out := cmd.OutOrStdout()

			if g.format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "STORE\t%s\n", rt.cfg.Session.Store)
			fmt.Fprintf(w, "ROUTER\t%t\n", st.IsRouter)
			fmt.Fprintf(w, "TOPICS\t%d\n", len(st.Topics))
			for _, topic := range st.Topics {
				fmt.Fprintf(w, "\t%s\n", topic)
			}
			return w.Flush()
		}),
	}

	var keepRole bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored subscription",
		Args:  cobra.NoArgs,
		RunE: g.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *runtime, args []string) error {
			if rt.store == nil {
				return fmt.Errorf("session.store is %q; nothing to clear", config.StoreNone)
			}
			sess, err := rt.store.Load(ctx)
			switch {
			case errors.Is(err, session.ErrNotSaved):
				sess = session.New()
			case err != nil:
				return err
			}
			n := sess.Len()
			sess.Clear()
			if !keepRole {
				sess.SetRouter(false)
			}
			if err := rt.store.Save(ctx, sess.Snapshot()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d topic(s)\n", n)
			return nil
		}),
	}
	clearCmd.Flags().BoolVar(&keepRole, "keep-role", false, "Keep the router role")

	cmd.AddCommand(show, clearCmd)
	return cmd
}
