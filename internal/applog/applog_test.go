package applog

import (
	"context"
	"strings"
	"testing"
)

func TestNopIsSafe(t *testing.T) {
	l := Nop()
	l.Log(context.Background(), LevelInfo, "test", "noop", "nothing happens", nil)
	l.Log(context.Background(), LevelError, "", "", "", map[string]any{"k": "v"})
}

func TestBatchInsertSQL_SingleEntry(t *testing.T) {
	sql, args := BatchInsertSQL([]Entry{{
		Level:   LevelInfo,
		Source:  "engine",
		Action:  "create",
		Message: "created entities",
		Details: map[string]any{"id": "abc"},
	}})

	if !strings.HasPrefix(sql, "INSERT INTO _app_logs (level,source,action,message,details) VALUES ") {
		t.Fatalf("unexpected sql: %s", sql)
	}
	if !strings.Contains(sql, "($1,$2,$3,$4,$5)") {
		t.Fatalf("expected one placeholder group, got %s", sql)
	}
	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d", len(args))
	}
	if args[0] != LevelInfo || args[3] != "created entities" {
		t.Fatalf("args out of order: %v", args)
	}
	details, ok := args[4].(string)
	if !ok || !strings.Contains(details, `"id":"abc"`) {
		t.Fatalf("details must marshal to JSON text, got %v", args[4])
	}
}

func TestBatchInsertSQL_MultiRowNumbering(t *testing.T) {
	sql, args := BatchInsertSQL([]Entry{
		{Level: LevelInfo, Message: "first"},
		{Level: LevelWarn, Message: "second"},
		{Level: LevelError, Message: "third"},
	})

	if !strings.Contains(sql, "($6,$7,$8,$9,$10)") {
		t.Fatalf("placeholder numbering must continue across rows: %s", sql)
	}
	if !strings.Contains(sql, "($11,$12,$13,$14,$15)") {
		t.Fatalf("placeholder numbering must continue across rows: %s", sql)
	}
	if len(args) != 15 {
		t.Fatalf("expected 15 args, got %d", len(args))
	}
	// nil details stay nil so the column is SQL NULL, not the string "null"
	if args[4] != nil {
		t.Fatalf("expected nil details arg, got %v", args[4])
	}
	if args[5] != LevelWarn || args[10] != LevelError {
		t.Fatalf("rows out of order: %v", args)
	}
}
