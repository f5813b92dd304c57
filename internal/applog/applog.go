// Package applog is the application audit log: a fire-and-forget,
// DB-backed record of operations and failures. Logging must never fail
// the calling operation, so every error path here degrades to stderr.
package applog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Entry is one audit log row.
type Entry struct {
	Level   string         `json:"level"`
	Source  string         `json:"source"`
	Action  string         `json:"action"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Logger records audit entries. Implementations must be safe for concurrent
// use and must never propagate failures to the caller.
type Logger interface {
	Log(ctx context.Context, level, source, action, message string, details map[string]any)
}

type nopLogger struct{}

func (nopLogger) Log(context.Context, string, string, string, string, map[string]any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

// DBLogger collects entries in memory and periodically flushes them to the
// _app_logs table in a batch insert.
type DBLogger struct {
	mu      sync.Mutex
	entries []Entry
	pool    *pgxpool.Pool
	maxSize int
	ticker  *time.Ticker
	done    chan struct{}
}

// New creates a DBLogger that flushes on a timer or when the buffer fills.
func New(pool *pgxpool.Pool, bufferSize int, flushIntervalMs int) *DBLogger {
	if bufferSize <= 0 {
		bufferSize = 200
	}
	if flushIntervalMs <= 0 {
		flushIntervalMs = 250
	}
	l := &DBLogger{
		pool:    pool,
		maxSize: bufferSize,
		done:    make(chan struct{}),
	}
	l.ticker = time.NewTicker(time.Duration(flushIntervalMs) * time.Millisecond)
	go l.run()
	return l
}

func (l *DBLogger) run() {
	for {
		select {
		case <-l.done:
			return
		case <-l.ticker.C:
			l.Flush()
		}
	}
}

// Log enqueues an entry. If the buffer is full, a flush is triggered
// asynchronously.
func (l *DBLogger) Log(_ context.Context, level, source, action, message string, details map[string]any) {
	l.mu.Lock()
	l.entries = append(l.entries, Entry{
		Level:   level,
		Source:  source,
		Action:  action,
		Message: message,
		Details: details,
	})
	shouldFlush := len(l.entries) >= l.maxSize
	l.mu.Unlock()
	if shouldFlush {
		go l.Flush()
	}
}

// Flush writes all buffered entries to the database in a single batch insert.
func (l *DBLogger) Flush() {
	l.mu.Lock()
	if len(l.entries) == 0 {
		l.mu.Unlock()
		return
	}
	batch := l.entries
	l.entries = nil
	l.mu.Unlock()

	ctx := context.Background()
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		log.Printf("ERROR: applog begin tx: %v", err)
		return
	}

	if _, err := tx.Exec(ctx, "SET LOCAL synchronous_commit = off"); err != nil {
		tx.Rollback(ctx)
		log.Printf("ERROR: applog set sync commit: %v", err)
		return
	}

	sql, args := BatchInsertSQL(batch)
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		tx.Rollback(ctx)
		log.Printf("ERROR: applog insert: %v", err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("ERROR: applog commit: %v", err)
	}
}

// Stop halts the background ticker and flushes remaining entries.
func (l *DBLogger) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
	close(l.done)
	l.Flush()
}

// BatchInsertSQL builds one multi-row insert for a batch of entries.
func BatchInsertSQL(batch []Entry) (string, []any) {
	cols := []string{"level", "source", "action", "message", "details"}
	var placeholders []string
	var args []any
	for i, e := range batch {
		offset := i * len(cols)
		ph := make([]string, len(cols))
		for j := range cols {
			ph[j] = fmt.Sprintf("$%d", offset+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")

		var detailsJSON any
		if e.Details != nil {
			b, _ := json.Marshal(e.Details)
			detailsJSON = string(b)
		}
		args = append(args, e.Level, e.Source, e.Action, e.Message, detailsJSON)
	}

	sql := fmt.Sprintf("INSERT INTO _app_logs (%s) VALUES %s",
		strings.Join(cols, ","), strings.Join(placeholders, ","))
	return sql, args
}
