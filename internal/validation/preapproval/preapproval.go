// Package preapproval answers whether an administrator has pre-approved a
// document, overriding a would-be-blocking validation failure.
package preapproval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store is the lookup port used by the validation orchestrator.
type Store interface {
	IsPreApproved(ctx context.Context, docID string) (bool, error)
}

// Memory is a set-backed store for tests and memory-only deployments.
type Memory struct {
	mu       sync.RWMutex
	approved map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{approved: make(map[string]struct{})}
}

func (s *Memory) IsPreApproved(_ context.Context, docID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.approved[docID]
	return ok, nil
}

// Approve marks a document pre-approved.
func (s *Memory) Approve(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approved[docID] = struct{}{}
}

const preApprovalKeyPrefix = "preapproval:doc:"

// Redis shares pre-approvals across instances.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) IsPreApproved(ctx context.Context, docID string) (bool, error) {
	err := s.client.Get(ctx, preApprovalKeyPrefix+docID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read pre-approval for %s: %w", docID, err)
	}
	return true, nil
}

// Approve marks a document pre-approved; used by admin tooling.
func (s *Redis) Approve(ctx context.Context, docID string) error {
	if err := s.client.Set(ctx, preApprovalKeyPrefix+docID, "1", 0).Err(); err != nil {
		return fmt.Errorf("write pre-approval for %s: %w", docID, err)
	}
	return nil
}
