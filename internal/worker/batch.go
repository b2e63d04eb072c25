package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/proofpilot/internal/model"
)

// Auditor audits one document input (file path, URL or "-")
type Auditor interface {
	AuditInput(ctx context.Context, input string) (*model.AuditReport, error)
}

// BatchResult is the outcome of auditing one input
type BatchResult struct {
	Input  string
	Report *model.AuditReport
	Error  error
}

// GetError returns the error from the batch result
func (r *BatchResult) GetError() error {
	return r.Error
}

// BatchProcessor audits multiple documents concurrently. All documents share
// the auditor's session guards.
type BatchProcessor struct {
	auditor     Auditor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(auditor Auditor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		auditor:     auditor,
		concurrency: concurrency,
	}
}

// ProcessInputs audits every input and returns results in input order
func (b *BatchProcessor) ProcessInputs(ctx context.Context, inputs []string) []*BatchResult {
	results := Map(ctx, b.concurrency, inputs, func(ctx context.Context, input string) *BatchResult {
		report, err := b.auditor.AuditInput(ctx, input)
		return &BatchResult{Input: input, Report: report, Error: err}
	})

	for i, res := range results {
		if res == nil {
			results[i] = &BatchResult{Input: inputs[i], Error: ctx.Err()}
		}
	}
	return results
}

// ProcessFile reads inputs from a list file and audits them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*BatchResult, error) {
	inputs, err := ReadInputsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	return b.ProcessInputs(ctx, inputs), nil
}

// ReadInputsFromFile reads one input per line, skipping blanks, comments and duplicates
func ReadInputsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var inputs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			inputs = append(inputs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return inputs, nil
}
