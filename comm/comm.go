// Package comm describes the distributed-execution context an evaluation round runs in.
// It only answers questions (world size, rank, primary process); coordination between
// processes is the launcher's job.
package comm

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Environment variables set by common multi-process launchers.
const (
	EnvWorldSize = "WORLD_SIZE"
	EnvRank      = "RANK"
)

// Context reports where the current worker sits in a (possibly) distributed run.
type Context interface {
	// WorldSize is the number of worker processes, 1 when not distributed.
	WorldSize() int
	// Rank is this worker's index in [0, WorldSize).
	Rank() int
	// IsMainProcess is true for the single worker producing the authoritative result.
	IsMainProcess() bool
}

// DeviceSync is a barrier forcing outstanding asynchronous device work to complete.
type DeviceSync interface {
	Synchronize(ctx context.Context) error
}

// SyncFunc adapts a function to a DeviceSync.
type SyncFunc func(ctx context.Context) error

// Synchronize calls f.
func (f SyncFunc) Synchronize(ctx context.Context) error {
	return f(ctx)
}

// NoopSync is the barrier for hosts without asynchronous accelerator work.
var NoopSync DeviceSync = SyncFunc(func(context.Context) error { return nil })

type static struct {
	worldSize int
	rank      int
}

// Local returns the context of a non-distributed run.
func Local() Context {
	return static{worldSize: 1, rank: 0}
}

// New returns a fixed context for the given world size and rank.
func New(worldSize, rank int) (Context, error) {
	if worldSize < 1 {
		return nil, errors.Errorf("world size must be positive, got %d", worldSize)
	}
	if rank < 0 || rank >= worldSize {
		return nil, errors.Errorf("rank %d out of range for world size %d", rank, worldSize)
	}
	return static{worldSize: worldSize, rank: rank}, nil
}

// FromEnv builds a context from WORLD_SIZE and RANK. Missing variables mean a local run.
func FromEnv() (Context, error) {
	rawSize, hasSize := os.LookupEnv(EnvWorldSize)
	rawRank, hasRank := os.LookupEnv(EnvRank)
	if !hasSize && !hasRank {
		return Local(), nil
	}
	worldSize, rank := 1, 0
	var err error
	if hasSize {
		if worldSize, err = cast.ToIntE(rawSize); err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvWorldSize)
		}
	}
	if hasRank {
		if rank, err = cast.ToIntE(rawRank); err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvRank)
		}
	}
	return New(worldSize, rank)
}

func (s static) WorldSize() int {
	return s.worldSize
}

func (s static) Rank() int {
	return s.rank
}

func (s static) IsMainProcess() bool {
	return s.rank == 0
}
