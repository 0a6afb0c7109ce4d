package dispatch

import (
	"os"
	"strconv"
)

// RankSource tells the dispatcher which rank of the package it runs as.
type RankSource interface {
	// Rank is zero based.
	Rank() int
	Size() int
}

// FixedRank is a RankSource for a known rank, e.g. when ranks are started locally.
type FixedRank struct {
	R int
	S int
}

func (f FixedRank) Rank() int { return f.R }
func (f FixedRank) Size() int { return f.S }

var (
	rankVariables = []string{"OMPI_COMM_WORLD_RANK", "PMIX_RANK", "PMI_RANK", "MV2_COMM_WORLD_RANK", "SLURM_PROCID"}
	sizeVariables = []string{"OMPI_COMM_WORLD_SIZE", "PMI_SIZE", "MV2_COMM_WORLD_SIZE", "SLURM_NTASKS"}
)

// EnvRankSource reads the rank from the variables MPI launchers export.
// Outside of an MPI launch it falls back to rank 0 of 1.
type EnvRankSource struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

func (e EnvRankSource) Rank() int {
	return e.first(rankVariables, 0)
}

func (e EnvRankSource) Size() int {
	return e.first(sizeVariables, 1)
}

func (e EnvRankSource) first(keys []string, fallback int) int {
	lookup := e.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range keys {
		value, ok := lookup(key)
		if !ok {
			continue
		}
		if i, err := strconv.Atoi(value); err == nil && i >= 0 {
			return i
		}
	}
	return fallback
}
