package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/internal/viewer"
	pkglog "github.com/classcast/classcast/pkg/log"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8086", "classcast server base URL")
		wsURL     = flag.String("ws", "ws://localhost:8086/ws", "classcast websocket URL")
		session   = flag.String("session", "", "session slug or id (required)")
		name      = flag.String("name", "viewer", "display name")
		replay    = flag.Bool("replay", false, "replay an ended session from the start")
		logLevel  = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	pkglog.Init(pkglog.Config{Level: *logLevel, ServiceName: "classcast-viewer"})
	logger := pkglog.L()

	if *session == "" {
		fmt.Fprintln(os.Stderr, "usage: viewer -session <slug> [-name <display name>]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := viewer.NewAPIClient(*serverURL)

	info, err := api.GetSession(ctx, *session)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to fetch session")
	}
	fmt.Printf("%s  [%s]\n", info.Title, info.Status)

	join, err := api.Join(ctx, *session, *name)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to join session")
	}
	fmt.Printf("joined as %s\n", join.DisplayName)

	presence := viewer.NewPresenceAggregator()
	chat := viewer.NewChatLog(func(msg domain.ChatMessage) {
		prefix := ""
		if msg.Type == domain.ChatTypeAdmin {
			prefix = "* "
		}
		fmt.Printf("%s[%s] %s: %s\n", prefix, msg.CreatedAt.Format("15:04:05"), msg.SenderName, msg.Body)
	})

	stream := viewer.NewStream(*wsURL, api.Token(), info.ID, chat, presence)
	if err := stream.Connect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect live stream")
	}

	history, err := api.ChatHistory(ctx, info.ID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load chat history")
	} else {
		chat.LoadHistory(history)
	}

	player := viewer.NewHeadlessPlayer()
	sync := viewer.NewSynchronizer(info, player, api.Trigger, viewer.SynchronizerOptions{
		OnState: func(s viewer.State) {
			fmt.Printf("-- %s --\n", s)
		},
		OnCountdown: func(remaining time.Duration) {
			fmt.Printf("starts in %s\n", remaining.Round(time.Second))
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return stream.Run(gctx) })
	g.Go(func() error {
		if *replay {
			// Give the first tick a chance to settle into the ended state.
			sync.Tick(gctx)
			if !sync.StartReplay() {
				fmt.Println("session is not over yet, watching live instead")
			}
		}
		return sync.Run(gctx)
	})
	g.Go(func() error { return readInput(gctx, api, info.ID) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("viewer exited with error")
	}
}

// readInput sends each stdin line as a chat message.
func readInput(ctx context.Context, api *viewer.APIClient, sessionID string) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := api.SendChat(ctx, sessionID, line); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		}
	}
	return scanner.Err()
}
