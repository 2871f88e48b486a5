package core

import (
	"context"
	"fmt"
	"testing"
)

// benchBuffer holds every setup event so no client is dropped before the
// drain goroutines start.
const benchBuffer = 4096

func benchmarkChannelBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(b)
	hub := NewHub(env.coord, nil)
	go hub.Run(ctx)

	join := func(c *Client, name string) {
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandRegister, Username: name}
		c.Commands <- &Command{Kind: CommandJoinChannel, Channel: "genel"}
	}

	sender := NewClient("sender", benchBuffer)
	join(sender, "sender")
	go func() {
		for range sender.Events {
		}
	}()

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient(fmt.Sprintf("c%d", i), benchBuffer)
		join(c, fmt.Sprintf("client-%d", i))
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}
	// Wait until the target has seen every join.
	seen := 0
	for seen < recipients {
		if ev := <-target.Events; ev.Kind == EventUserJoined {
			seen++
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandSendMessage, Content: "payload"}
		for {
			if ev := <-target.Events; ev.Kind == EventReceiveMessage {
				break
			}
		}
	}
}

func BenchmarkChannelBroadcast_10(b *testing.B)  { benchmarkChannelBroadcast(b, 10) }
func BenchmarkChannelBroadcast_100(b *testing.B) { benchmarkChannelBroadcast(b, 100) }
func BenchmarkChannelBroadcast_500(b *testing.B) { benchmarkChannelBroadcast(b, 500) }
