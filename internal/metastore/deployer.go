package metastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
)

// ErrNotDeployer reports a payload that decoded to something other than a deployer.
var ErrNotDeployer = errors.New("meta is not a deployer")

// Deployer returns the deployer described by the payload at metaHash,
// resolving it remotely if needed, and records it.
func (s *Store) Deployer(ctx context.Context, metaHash ir.Hash) (*meta.Deployer, error) {
	if d, ok := s.GetDeployer(metaHash); ok {
		return d, nil
	}
	payload, err := s.UpdateCheck(ctx, metaHash)
	if err != nil {
		return nil, err
	}
	decoded, err := meta.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("deployer %s: %w", metaHash, err)
	}
	d, ok := decoded.(*meta.Deployer)
	if !ok {
		return nil, fmt.Errorf("deployer %s: %w (got %s)", metaHash, ErrNotDeployer, decoded.Kind())
	}
	return s.PutDeployer(metaHash, d), nil
}

// PutDeployer records d as described by metaHash. If a deployer with the
// same bytecode is already known, the existing record is kept and returned.
func (s *Store) PutDeployer(metaHash ir.Hash, d *meta.Deployer) *meta.Deployer {
	bytecodeHash := d.BytecodeHash()

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.deployers[bytecodeHash]
	if !ok {
		s.deployers[bytecodeHash] = d
		existing = d
	}
	if _, ok := s.deployerIndex[metaHash]; !ok {
		s.deployerIndex[metaHash] = bytecodeHash
	}
	return existing
}

// GetDeployer returns the deployer recorded for metaHash.
func (s *Store) GetDeployer(metaHash ir.Hash) (*meta.Deployer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bytecodeHash, ok := s.deployerIndex[metaHash]
	if !ok {
		return nil, false
	}
	d, ok := s.deployers[bytecodeHash]
	return d, ok
}

// DeployerByBytecode returns the deployer whose bytecode hashes to hash.
func (s *Store) DeployerByBytecode(hash ir.Hash) (*meta.Deployer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deployers[hash]
	return d, ok
}
