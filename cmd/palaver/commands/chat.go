package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"palaver/internal/domain"
	"palaver/internal/engine"
	"palaver/internal/room"
)

func chatCmd() *cobra.Command {
	var nickname string

	cmd := &cobra.Command{
		Use:   "chat <room>",
		Short: "Join a room and converse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if nickname == "" {
				return fmt.Errorf("nickname required (-n)")
			}
			id, err := wire.Identity.LoadIdentity(passphrase)
			if err != nil {
				return err
			}
			return runChat(args[0], nickname, id)
		},
	}

	cmd.Flags().StringVarP(&nickname, "nick", "n", "", "nickname to use in the room")
	return cmd
}

// runChat drives one interactive room session. All engine access is
// serialized through the events channel; the poller, the timer scheduler
// and the stdin reader only enqueue closures.
func runChat(roomName, nickname string, id domain.Identity) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan func(), 64)
	enqueue := func(fn func()) {
		select {
		case events <- fn:
		case <-ctx.Done():
		}
	}

	ops := &room.Ops{
		Client: wire.Room,
		Timers: room.NewTimers(clockwork.NewRealClock(), enqueue),
		Log:    wire.Log,
		OnJoin: func(r, nick string) {
			fmt.Printf("* %s joined %s\n", nick, r)
		},
		OnLeave: func(r, nick string) {
			fmt.Printf("* %s left %s\n", nick, r)
		},
		OnMessage: func(r, sender, text string) {
			fmt.Printf("<%s> %s\n", sender, text)
		},
	}

	eng, err := engine.New(nickname, ops, wire.Log,
		engine.WithIdentity(id),
		engine.WithTiming(wire.Timing))
	if err != nil {
		return err
	}

	members, lastSeq, err := wire.Room.Join(roomName, nickname)
	if err != nil {
		return err
	}
	roster := make([]domain.UnauthenticatedParticipant, 0, len(members))
	for _, m := range members {
		roster = append(roster, domain.UnauthenticatedParticipant{
			ID: domain.ParticipantID{Nickname: m},
		})
	}
	if err := eng.JoinRoom(roomName, roster); err != nil {
		return err
	}
	fmt.Printf("Joined %s as %s. /quit to leave.\n", roomName, nickname)

	go pollRoom(ctx, roomName, lastSeq, enqueue, eng)
	go readStdin(ctx, cancel, roomName, enqueue, eng)

	for {
		select {
		case fn := <-events:
			fn()
		case <-ctx.Done():
			if err := eng.LeaveRoom(roomName); err != nil {
				wire.Log.Warn("leave room", zap.Error(err))
			}
			if err := wire.Room.Leave(roomName, nickname); err != nil {
				wire.Log.Warn("leave transport", zap.Error(err))
			}
			return nil
		}
	}
}

func pollRoom(ctx context.Context, roomName string, after uint32, enqueue func(func()), eng *engine.Engine) {
	for {
		msgs, err := wire.Room.Poll(ctx, roomName, after)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wire.Log.Warn("room poll failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		for _, m := range msgs {
			m := m
			after = m.Seq
			enqueue(func() {
				action, err := eng.Receive(roomName, m.Sender, m.Body, m.Seq)
				if err != nil {
					return
				}
				if action.Type == domain.ActionWarning {
					fmt.Printf("! %s\n", action.Message)
				}
			})
		}
	}
}

func readStdin(ctx context.Context, cancel context.CancelFunc, roomName string, enqueue func(func()), eng *engine.Engine) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := sc.Text()
		if line == "/quit" {
			break
		}
		if line == "" {
			continue
		}
		enqueue(func() {
			if err := eng.Send(roomName, line); err != nil {
				fmt.Printf("! send failed: %v\n", err)
			}
		})
		if ctx.Err() != nil {
			return
		}
	}
	cancel()
}
