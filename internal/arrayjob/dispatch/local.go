package dispatch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/armadaproject/arrayjob/internal/arrayjob/provider"
)

// RunPackageLocally runs every rank of the package described by args concurrently on this machine,
// for trying out a template without a scheduler. If ranks is not positive, the package size is used.
// It returns the exit code of every rank; a non-zero exit code of one rank does not stop its siblings.
func (d *Dispatcher) RunPackageLocally(ctx context.Context, args Args, ranks int) ([]int, error) {
	if ranks < 1 {
		p, err := d.newProvider(args, false)
		if err != nil {
			return nil, err
		}
		ranks, err = provider.PackageSize(p, args.Forwarded, args.PackSize, args.PackageId)
		if err != nil {
			return nil, err
		}
	}

	codes := make([]int, ranks)
	// A failing rank must not cancel its siblings.
	var g errgroup.Group
	for rank := 0; rank < ranks; rank++ {
		rank := rank
		g.Go(func() error {
			code, err := d.runRank(ctx, args, rank, ranks)
			codes[rank] = code
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return codes, err
	}
	return codes, nil
}
