// Package simdb provides jobs from a simulation database: a SQLite file (conventionally *.msl)
// with a JobModels table. Jobs whose output already records a finished simulation are skipped,
// so resubmitting the same selector only starts the outstanding work.
package simdb

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/armadaproject/arrayjob/internal/arrayjob/provider"
	"github.com/armadaproject/arrayjob/internal/arrayjob/selector"
	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
	"github.com/armadaproject/arrayjob/internal/common/logging"
	"github.com/armadaproject/arrayjob/internal/common/slices"
)

const (
	// DatabaseMarker identifies the database among the two submit arguments.
	DatabaseMarker = ".msl"
	// StdoutFile is the file, relative to the job directory, the simulation writes its output to.
	StdoutFile = "stdout.log"
	// AbortReason is written by the simulation once it has finished.
	AbortReason = "ABORT_REASON"

	cacheSize = 64
)

// CompletionFunc reports whether the job with the given directory has already finished.
type CompletionFunc func(jobDir string) (bool, error)

// AbortReasonCompletion treats a job as finished once its stdout file contains AbortReason.
func AbortReasonCompletion(jobDir string) (bool, error) {
	content, err := os.ReadFile(filepath.Join(jobDir, StdoutFile))
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, errors.WithStack(err)
	}
	return bytes.Contains(content, []byte(AbortReason)), nil
}

// Provider implements provider.Provider over a simulation database.
// The submit arguments are the database path and a selector such as "all" or "1-10,15".
type Provider struct {
	workDir    string
	isComplete CompletionFunc
	log        *log.Entry
	// Incomplete job indices by canonical selector.
	incomplete *lru.Cache
}

func NewProvider(workDir string, isComplete CompletionFunc, logger *log.Entry) (*Provider, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if isComplete == nil {
		isComplete = AbortReasonCompletion
	}
	return &Provider{
		workDir:    workDir,
		isComplete: isComplete,
		log:        logger,
		incomplete: cache,
	}, nil
}

// Factory registers the provider with a provider.Registry.
func Factory(opts provider.Options) (provider.Provider, error) {
	return NewProvider(opts.WorkDir, AbortReasonCompletion, logging.EntryFor(opts.Silent))
}

func (p *Provider) AllExecutionArgs(submitArgs []string) ([][]string, error) {
	dbPath, indices, err := p.jobs(submitArgs)
	if err != nil {
		return nil, err
	}
	args := make([][]string, 0, len(indices))
	for _, i := range indices {
		jobDir, err := p.ensureJobDir(i)
		if err != nil {
			return nil, err
		}
		args = append(args, []string{
			"-jobId", strconv.Itoa(i),
			"-dbPath", dbPath,
			"-ioPath", jobDir,
			"-stdout", StdoutFile,
		})
	}
	return args, nil
}

func (p *Provider) AllExecutionPaths(submitArgs []string) ([]string, error) {
	_, indices, err := p.jobs(submitArgs)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(indices))
	for _, i := range indices {
		jobDir, err := p.ensureJobDir(i)
		if err != nil {
			return nil, err
		}
		paths = append(paths, jobDir)
	}
	return paths, nil
}

// jobs returns the absolute database path and the indices of the unfinished jobs the submit arguments select.
func (p *Provider) jobs(submitArgs []string) (string, []int, error) {
	dbPath, sel, err := splitArgs(submitArgs)
	if err != nil {
		return "", nil, err
	}
	dbPath = p.abs(dbPath)

	indices, err := selector.Parse(sel, func() ([]int, error) { return JobIds(dbPath) })
	if err != nil {
		return "", nil, err
	}
	incomplete, err := p.incompleteJobs(indices)
	if err != nil {
		return "", nil, err
	}
	return dbPath, incomplete, nil
}

func (p *Provider) incompleteJobs(indices selector.IndexSet) ([]int, error) {
	key := selector.Compact(indices)
	if cached, ok := p.incomplete.Get(key); ok {
		return cached.([]int), nil
	}

	unfinished := make([]int, 0, len(indices))
	for _, i := range indices {
		jobDir, err := p.ensureJobDir(i)
		if err != nil {
			return nil, err
		}
		done, err := p.isComplete(jobDir)
		if err != nil {
			return nil, errors.WithMessagef(err, "error checking completion of job %d", i)
		}
		if !done {
			unfinished = append(unfinished, i)
		}
	}
	finished := slices.Subtract(indices, unfinished)

	p.incomplete.Add(key, unfinished)
	p.log.WithFields(log.Fields{
		"finished":   selector.Compact(finished),
		"unfinished": selector.Compact(unfinished),
	}).Info("only unfinished simulations will be started")
	return unfinished, nil
}

func (p *Provider) ensureJobDir(index int) (string, error) {
	jobDir := filepath.Join(p.workDir, fmt.Sprintf("Job%05d", index))
	// Ranks of the same package may race to create the directory.
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "error creating job directory %s", jobDir)
	}
	return jobDir, nil
}

func (p *Provider) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.workDir, path)
}

// splitArgs separates the database path from the selector. Exactly two arguments are expected,
// one of which contains DatabaseMarker.
func splitArgs(submitArgs []string) (string, string, error) {
	if len(submitArgs) != 2 {
		return "", "", errors.WithStack(&arrayerrors.ErrInvalidArgument{
			Name:    "args",
			Value:   strings.Join(submitArgs, " "),
			Message: "expected a database path and a job selector",
		})
	}
	switch {
	case strings.Contains(submitArgs[0], DatabaseMarker):
		return submitArgs[0], submitArgs[1], nil
	case strings.Contains(submitArgs[1], DatabaseMarker):
		return submitArgs[1], submitArgs[0], nil
	default:
		return "", "", errors.WithStack(&arrayerrors.ErrInvalidArgument{
			Name:    "args",
			Value:   strings.Join(submitArgs, " "),
			Message: fmt.Sprintf("no argument is a %s database path", DatabaseMarker),
		})
	}
}

// JobIds returns the ids of all jobs in the database, in ascending order.
func JobIds(dbPath string) ([]int, error) {
	if _, err := os.Stat(dbPath); err != nil {
		// sql.Open would silently create an empty database.
		return nil, errors.WithStack(&arrayerrors.ErrNotFound{Type: "database", Value: dbPath, Message: err.Error()})
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening sqlite DB from %s", dbPath)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warnf("error closing database: %v", err)
		}
	}()

	rows, err := db.Query("SELECT Id FROM JobModels ORDER BY Id")
	if err != nil {
		return nil, errors.Wrapf(err, "error reading job models from %s", dbPath)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, errors.WithStack(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return ids, nil
}
