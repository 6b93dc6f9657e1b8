package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pverenik/lexcite/internal/model"
)

// Resolver defines the interface for resolving one document
type Resolver interface {
	ResolveFile(ctx context.Context, path string) (*model.Report, error)
}

// ResolveJob represents one document resolution job
type ResolveJob struct {
	Path     string
	Resolver Resolver
}

// Execute executes the resolution job
func (j *ResolveJob) Execute(ctx context.Context) Result {
	report, err := j.Resolver.ResolveFile(ctx, j.Path)
	if err != nil {
		return &ResolveResult{Path: j.Path, Error: err}
	}
	return &ResolveResult{Path: j.Path, Report: report}
}

// ResolveResult represents the result of a document resolution job
type ResolveResult struct {
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the resolution result
func (r *ResolveResult) GetError() error {
	return r.Error
}

// BatchProcessor resolves multiple documents concurrently
type BatchProcessor struct {
	resolver    Resolver
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(resolver Resolver, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		resolver:    resolver,
		concurrency: concurrency,
	}
}

// ProcessPaths resolves multiple document paths concurrently
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*ResolveResult {
	if len(paths) == 0 {
		return []*ResolveResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&ResolveJob{Path: path, Resolver: b.resolver})
	}

	results := pool.Wait()

	resolveResults := make([]*ResolveResult, len(results))
	for i, result := range results {
		resolveResults[i] = result.(*ResolveResult)
	}
	return resolveResults
}

// ProcessManifest reads document paths from a manifest file and resolves
// them concurrently.
func (b *BatchProcessor) ProcessManifest(ctx context.Context, manifestPath string) ([]*ResolveResult, error) {
	paths, err := ReadPathsFromFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths from a file (one per line).
// Empty lines and # comments are skipped; duplicates are dropped.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
