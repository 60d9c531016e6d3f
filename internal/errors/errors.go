package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	ErrMalformedDocument  = errors.New("malformed skill document")
	ErrMissingName        = errors.New("missing name")
	ErrMissingDescription = errors.New("missing description")
	ErrUnknownSource      = errors.New("unknown source")
	ErrUnknownAgent       = errors.New("unknown agent")
	ErrIOFailure          = errors.New("io failure")
	ErrLockCorrupt        = errors.New("lock file corrupt")
	ErrProviderRequired   = errors.New("no provider for source kind")
)

// DocumentError reports a skill document that could not be parsed
type DocumentError struct {
	Path string // empty for embedded or in-memory documents
	Err  error
}

func (e *DocumentError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedDocument, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrMalformedDocument, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func (e *DocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// NewDocumentError creates a new document error
func NewDocumentError(path string, err error) *DocumentError {
	return &DocumentError{Path: path, Err: err}
}

// SourceError reports a source description that names no known kind
type SourceError struct {
	Input string
	Known []string
}

func (e *SourceError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("%s: %q", ErrUnknownSource, e.Input)
	}
	return fmt.Sprintf("%s: %q (known: %s)", ErrUnknownSource, e.Input, strings.Join(e.Known, ", "))
}

func (e *SourceError) Unwrap() error {
	return ErrUnknownSource
}

// NewSourceError creates a new source error
func NewSourceError(input string, known []string) *SourceError {
	return &SourceError{Input: input, Known: known}
}

// AgentError reports an agent identifier missing from the agent table
type AgentError struct {
	Agent string
	Known []string
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s: '%s'. Known agents: %s", ErrUnknownAgent, e.Agent, strings.Join(e.Known, ", "))
}

func (e *AgentError) Unwrap() error {
	return ErrUnknownAgent
}

// NewAgentError creates a new agent error
func NewAgentError(agent string, known []string) *AgentError {
	return &AgentError{Agent: agent, Known: known}
}

// IOError wraps filesystem failures with the install step that hit them
type IOError struct {
	Op    string
	Path  string
	Skill string
	Err   error
}

func (e *IOError) Error() string {
	if e.Skill != "" {
		return fmt.Sprintf("skill %s: %s %s: %v", e.Skill, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIOFailure
}

// NewIOError creates a new IO error
func NewIOError(skill, op, path string, err error) *IOError {
	return &IOError{Skill: skill, Op: op, Path: path, Err: err}
}

// LockError reports a lock file that matches none of the accepted shapes
type LockError struct {
	Path string
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrLockCorrupt, e.Path, e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

func (e *LockError) Is(target error) bool {
	return target == ErrLockCorrupt
}

// NewLockError creates a new lock error
func NewLockError(path string, err error) *LockError {
	return &LockError{Path: path, Err: err}
}
