package engine

import (
	"fmt"
	"strings"
	"time"
)

// DuplicateAssetError reports two asset files claiming the same qualified
// name.
type DuplicateAssetError struct {
	Name      string
	Path      string
	OtherPath string
}

func (e *DuplicateAssetError) Error() string {
	return fmt.Sprintf("duplicate asset %s: defined in both %s and %s", e.Name, e.OtherPath, e.Path)
}

// UnknownDependencyError reports a declared dependency with no corresponding
// asset.
type UnknownDependencyError struct {
	Asset      string
	Path       string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("asset %s (%s) depends on unknown asset %s", e.Asset, e.Path, e.Dependency)
}

// CyclicDependencyError reports a dependency cycle. Members holds the cycle
// path starting and ending at the same asset.
type CyclicDependencyError struct {
	Members []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Members, " -> "))
}

// UnknownTargetError reports a requested target that no discovered asset
// provides.
type UnknownTargetError struct {
	Target string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown asset %s", e.Target)
}

// MaterializationError reports a failed materialization of one asset.
type MaterializationError struct {
	Asset string
	Path  string
	Cause error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("failed to materialize %s (%s): %v", e.Asset, e.Path, e.Cause)
}

func (e *MaterializationError) Unwrap() error { return e.Cause }

// ScriptTimeoutError reports an external-process asset exceeding its time
// budget.
type ScriptTimeoutError struct {
	Asset   string
	Timeout time.Duration
}

func (e *ScriptTimeoutError) Error() string {
	return fmt.Sprintf("script for %s exceeded %s timeout", e.Asset, e.Timeout)
}
