package storage

import "context"

// fakeRepo is a no-op Repository test double.
type fakeRepo struct{}

func (*fakeRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	return int64(len(rows)), nil
}
func (*fakeRepo) Exec(context.Context, string) error { return nil }
func (*fakeRepo) Close()                             {}
