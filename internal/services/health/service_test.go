package health

import (
	"context"
	"errors"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		db   Pinger
		want Status
	}{
		{name: "memory", db: nil, want: Status{OK: true, Database: "memory"}},
		{name: "healthy", db: pingerFunc(func(context.Context) error { return nil }), want: Status{OK: true, Database: "ok"}},
		{name: "down", db: pingerFunc(func(context.Context) error { return errors.New("refused") }), want: Status{OK: false, Database: "unreachable"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewService(tt.db).Check(context.Background()); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
