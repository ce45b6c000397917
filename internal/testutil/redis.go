package testutil

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
)

// CommandLog records the commands sent to a RecordingRedis client
type CommandLog struct {
	mu   sync.Mutex
	cmds []string
}

// Reset forgets every recorded command
func (l *CommandLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cmds = nil
}

// Commands returns the recorded commands as space joined arguments
func (l *CommandLog) Commands() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.cmds...)
}

func (l *CommandLog) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

// ProcessHook records the command and answers it without a server. GET is a
// miss and every other command succeeds with an empty reply.
func (l *CommandLog) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		parts := make([]string, 0, len(cmd.Args()))
		for _, arg := range cmd.Args() {
			if s, ok := arg.(string); ok {
				parts = append(parts, s)
			}
		}
		l.mu.Lock()
		l.cmds = append(l.cmds, strings.Join(parts, " "))
		l.mu.Unlock()
		if cmd.Name() == "get" {
			cmd.SetErr(redis.Nil)
			return redis.Nil
		}
		return nil
	}
}

func (l *CommandLog) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

// NewRecordingRedis returns a client that never reaches a server and logs
// every command it is asked to run
func NewRecordingRedis(t *testing.T) (*redis.Client, *CommandLog) {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	log := &CommandLog{}
	rdb.AddHook(log)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, log
}
