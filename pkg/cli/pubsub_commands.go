package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/overlay/pkg/client"
	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
	"github.com/DeBrosOfficial/overlay/pkg/logging"
	"github.com/DeBrosOfficial/overlay/pkg/protocol"
	"github.com/DeBrosOfficial/overlay/pkg/push"
)

type streamFlags struct {
	count    int
	duration time.Duration
}

func (f *streamFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.count, "count", 0, "Exit after this many packages (0 = no limit)")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "Exit after this long (0 = until interrupted)")
}

func newListenCmd(g *globalFlags) *cobra.Command {
	var sf streamFlags
	cmd := &cobra.Command{
		Use:   "listen [topic...]",
		Short: "Subscribe to topics and print incoming messages",
		Long:  "Subscribe to the given topics (in addition to the stored session) and print every message received.",
		RunE: g.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *runtime, args []string) error {
			c, err := rt.newClient(ctx)
			if err != nil {
				return err
			}
			for _, topic := range args {
				if err := c.Subscribe(ctx, topic); err != nil {
					return err
				}
			}
			if err := c.Open(ctx); err != nil {
				return err
			}
			rt.logger.ComponentInfo(logging.ComponentClient, "Listening",
				zap.Strings("topics", c.Session().Topics))
			return stream(ctx, c, sf, newPrinter(cmd.OutOrStdout(), g.format))
		}),
	}
	sf.register(cmd)
	return cmd
}

func newWatchCmd(g *globalFlags) *cobra.Command {
	var sf streamFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Register as a router and print subscription traffic",
		Args:  cobra.NoArgs,
		RunE: g.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *runtime, args []string) error {
			c, err := rt.newClient(ctx)
			if err != nil {
				return err
			}
			if err := c.SetRouter(ctx, true); err != nil {
				return err
			}
			if err := c.Open(ctx); err != nil {
				return err
			}
			return stream(ctx, c, sf, newPrinter(cmd.OutOrStdout(), g.format))
		}),
	}
	sf.register(cmd)
	return cmd
}

func newPublishCmd(g *globalFlags) *cobra.Command {
	var (
		viaHTTP bool
		nodeURL string
	)
	cmd := &cobra.Command{
		Use:   "publish <topic> <payload>",
		Short: "Publish one message",
		Args:  cobra.ExactArgs(2),
		RunE: g.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *runtime, args []string) error {
			topic, payload := args[0], []byte(args[1])
			if err := protocol.ValidateTopic(topic); err != nil {
				return err
			}

			if viaHTTP {
				target := rt.cfg.Push.NodeURL
				if nodeURL != "" {
					target = nodeURL
				}
				p := push.New(rt.cfg.Push.Timeout, rt.logger.For(logging.ComponentPush))
				if err := p.Send(ctx, target, protocol.NewMessage(topic, payload)); err != nil {
					return err
				}
			} else {
				c, err := rt.newClient(ctx)
				if err != nil {
					return err
				}
				if err := c.Publish(ctx, topic, payload); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Published %d bytes to topic: %s\n", len(payload), topic)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&viaHTTP, "http", false, "Send through the node's HTTP endpoint instead of a streaming connection")
	cmd.Flags().StringVar(&nodeURL, "node-url", "", "Node HTTP URL, overrides push.node_url")
	return cmd
}

// stream prints packages from c.Next until the limits in sf are reached,
// ctx ends, or the client gives up.
func stream(ctx context.Context, c *client.Client, sf streamFlags, emit func(protocol.Package) error) error {
	if sf.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sf.duration)
		defer cancel()
	}

	for n := 0; sf.count == 0 || n < sf.count; n++ {
		p, err := c.Next(ctx)
		if err != nil {
			if overlayerrors.IsCancelled(err) && ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := emit(p); err != nil {
			return err
		}
	}
	return nil
}

type packageRecord struct {
	Time     string `json:"time"`
	Kind     string `json:"kind"`
	Topic    string `json:"topic,omitempty"`
	Payload  string `json:"payload,omitempty"`
	IsSub    *bool  `json:"subscribe,omitempty"`
	IsRouter *bool  `json:"router,omitempty"`
}

func recordFor(p protocol.Package, now time.Time) packageRecord {
	rec := packageRecord{Time: now.Format(time.RFC3339), Kind: p.Kind().String()}
	switch pkg := p.(type) {
	case protocol.Message:
		rec.Topic = pkg.Topic
		rec.Payload = string(pkg.Payload)
	case protocol.Subscribe:
		rec.Topic = pkg.Topic
		isSub := pkg.IsSub
		rec.IsSub = &isSub
	case protocol.Registration:
		isRouter := pkg.IsRouter
		rec.IsRouter = &isRouter
	}
	return rec
}

func newPrinter(w io.Writer, format string) func(protocol.Package) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		return func(p protocol.Package) error {
			return enc.Encode(recordFor(p, time.Now()))
		}
	}
	return func(p protocol.Package) error {
		_, err := fmt.Fprintln(w, formatPackage(p, time.Now()))
		return err
	}
}

func formatPackage(p protocol.Package, now time.Time) string {
	ts := now.Format("15:04:05")
	switch pkg := p.(type) {
	case protocol.Message:
		return fmt.Sprintf("[%s] %s: %s", ts, pkg.Topic, string(pkg.Payload))
	case protocol.Subscribe:
		verb := "unsubscribe"
		if pkg.IsSub {
			verb = "subscribe"
		}
		return fmt.Sprintf("[%s] %s %s", ts, verb, pkg.Topic)
	case protocol.Registration:
		role := "client"
		if pkg.IsRouter {
			role = "router"
		}
		return fmt.Sprintf("[%s] registration %s", ts, role)
	default:
		return fmt.Sprintf("[%s] %s", ts, p.Kind())
	}
}
