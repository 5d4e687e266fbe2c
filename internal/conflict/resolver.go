// Package conflict decides what happens when a sorted file's destination
// already exists.
package conflict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Policy names a destination-conflict strategy.
type Policy string

const (
	// PolicySkip leaves the source file in place.
	PolicySkip Policy = "skip"
	// PolicyOverwrite replaces the existing destination file.
	PolicyOverwrite Policy = "overwrite"
	// PolicyRename picks a free numbered variant of the destination name.
	PolicyRename Policy = "rename"
)

// renameCap bounds the numbered-suffix search so a pathological directory
// cannot spin the resolver forever.
const renameCap = 10000

// Resolver applies one conflict policy to destination paths. An unknown
// policy degrades to rename with a single warning.
type Resolver struct {
	policy   Policy
	logger   *zap.Logger
	warnOnce sync.Once
}

// New creates a resolver for the given policy. logger may be nil.
func New(policy Policy, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{policy: policy, logger: logger}
}

// Policy returns the configured policy.
func (r *Resolver) Policy() Policy { return r.policy }

// Resolve maps a desired destination path to the path that should actually
// be written. proceed is false when the file must not be written at all
// (skip policy with an existing destination). When the destination is
// free, every policy returns it unchanged.
func (r *Resolver) Resolve(desired string) (path string, proceed bool, err error) {
	if !exists(desired) {
		return desired, true, nil
	}
	switch r.policy {
	case PolicySkip:
		return desired, false, nil
	case PolicyOverwrite:
		return desired, true, nil
	case PolicyRename:
		return r.rename(desired)
	default:
		r.warnOnce.Do(func() {
			r.logger.Warn("unknown conflict policy, falling back to rename",
				zap.String("policy", string(r.policy)))
		})
		return r.rename(desired)
	}
}

// rename returns the first free "stem_N.ext" variant, counting from 1.
func (r *Resolver) rename(desired string) (string, bool, error) {
	dir := filepath.Dir(desired)
	ext := filepath.Ext(desired)
	stem := strings.TrimSuffix(filepath.Base(desired), ext)
	for n := 1; n <= renameCap; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if !exists(candidate) {
			return candidate, true, nil
		}
	}
	return "", false, fmt.Errorf("no free name for %s after %d attempts", desired, renameCap)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
