package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/resolver"
)

// Entry is one registry row.
type Entry struct {
	Hash    ir.Hash
	Kind    meta.Kind
	Payload []byte
	Seq     int64
}

// Put validates payload and inserts it under its content hash.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency.
func (s *Store) Put(ctx context.Context, payload []byte) (ir.Hash, error) {
	decoded, err := meta.Decode(payload)
	if err != nil {
		return ir.Hash{}, fmt.Errorf("put meta: %w", err)
	}
	hash := ir.ContentHash(payload)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metas (hash, kind, payload, seq)
		SELECT ?, ?, ?, COALESCE(MAX(seq), 0) + 1 FROM metas WHERE true
		ON CONFLICT(hash) DO NOTHING
	`,
		hash.String(),
		decoded.Kind().String(),
		payload,
	)
	if err != nil {
		return ir.Hash{}, fmt.Errorf("put meta: %w", err)
	}
	return hash, nil
}

// Get returns the entry stored under hash, or an error wrapping
// resolver.ErrNotFound.
func (s *Store) Get(ctx context.Context, hash ir.Hash) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT hash, kind, payload, seq FROM metas WHERE hash = ?
	`, hash.String())

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("get meta %s: %w", hash, resolver.ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get meta %s: %w", hash, err)
	}
	return e, nil
}

// List returns every entry in insertion order.
// Returns an empty slice (not nil) when the registry is empty.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, kind, payload, seq FROM metas
		ORDER BY seq ASC, hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query metas: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metas: %w", err)
	}
	return entries, nil
}

// Name implements resolver.Source.
func (s *Store) Name() string {
	return "sqlite:" + s.path
}

// Fetch implements resolver.Source.
func (s *Store) Fetch(ctx context.Context, hash ir.Hash) ([]byte, error) {
	e, err := s.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	return e.Payload, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		hashText string
		kindText string
		e        Entry
	)
	if err := row.Scan(&hashText, &kindText, &e.Payload, &e.Seq); err != nil {
		return Entry{}, err
	}
	hash, err := ir.ParseHash(hashText)
	if err != nil {
		return Entry{}, fmt.Errorf("scan meta: %w", err)
	}
	kind, err := meta.ParseKind(kindText)
	if err != nil {
		return Entry{}, fmt.Errorf("scan meta: %w", err)
	}
	e.Hash = hash
	e.Kind = kind
	return e, nil
}

var _ resolver.Source = (*Store)(nil)
