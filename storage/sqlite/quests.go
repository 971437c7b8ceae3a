// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"m4o.io/osmquest/model"
)

const selectQuests = `SELECT quest_id, quest_type, element_type, element_id, geometry FROM osm_quests`

// positionsPerQuery keeps GetAllAt at 800 bind variables, below SQLite's
// historical limit of 999.
const positionsPerQuery = 400

type scanner interface {
	Scan(dest ...any) error
}

func scanQuest(row scanner) (model.Quest, error) {
	var (
		q        model.Quest
		geometry []byte
	)

	if err := row.Scan(&q.ID, &q.TypeName, &q.ElementType, &q.ElementID, &geometry); err != nil {
		return model.Quest{}, err
	}

	g, err := decodeGeometry(geometry)
	if err != nil {
		return model.Quest{}, fmt.Errorf("quest %d: %w", q.ID, err)
	}

	q.Geometry = g

	return q, nil
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (model.Quest, bool, error) {
	if err := s.ready(ctx); err != nil {
		return model.Quest{}, false, err
	}

	q, err := scanQuest(s.sqlDB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Quest{}, false, nil
	}

	if err != nil {
		return model.Quest{}, false, fmt.Errorf("get quest: %w", err)
	}

	return q, true, nil
}

func (s *Store) queryAll(ctx context.Context, query string, args ...any) ([]model.Quest, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quests: %w", err)
	}
	defer rows.Close()

	quests := make([]model.Quest, 0)

	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}

		quests = append(quests, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quests: %w", err)
	}

	return quests, nil
}

// Get returns a quest by id.
func (s *Store) Get(ctx context.Context, id model.QuestID) (model.Quest, bool, error) {
	return s.queryOne(ctx, selectQuests+` WHERE quest_id = ?`, id)
}

// GetByKey returns the quest for an element and quest type.
func (s *Store) GetByKey(ctx context.Context, key model.QuestKey) (model.Quest, bool, error) {
	return s.queryOne(ctx,
		selectQuests+` WHERE element_type = ? AND element_id = ? AND quest_type = ?`,
		key.ElementType, key.ElementID, key.QuestTypeName)
}

// GetAllForElement returns the quests of an element ordered by id.
func (s *Store) GetAllForElement(ctx context.Context, elementType model.ElementType, id model.ID) ([]model.Quest, error) {
	return s.queryAll(ctx,
		selectQuests+` WHERE element_type = ? AND element_id = ? ORDER BY quest_id`,
		elementType, id)
}

func bboxClause(bbox model.BoundingBox) (string, []any) {
	return `latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`,
		[]any{float64(bbox.Bottom), float64(bbox.Top), float64(bbox.Left), float64(bbox.Right)}
}

// GetAllInBBox returns the quests positioned within bbox ordered by id,
// optionally only those of the given quest types.
func (s *Store) GetAllInBBox(ctx context.Context, bbox model.BoundingBox, questTypes ...string) ([]model.Quest, error) {
	where, args := bboxClause(bbox)

	if len(questTypes) > 0 {
		where += ` AND quest_type IN (` + placeholders(len(questTypes)) + `)`

		for _, t := range questTypes {
			args = append(args, t)
		}
	}

	return s.queryAll(ctx, selectQuests+` WHERE `+where+` ORDER BY quest_id`, args...)
}

// GetAllAt returns the quests positioned exactly at one of positions,
// ordered by id.  Positions are queried in chunks of positionsPerQuery to
// stay below the bind variable limit.
func (s *Store) GetAllAt(ctx context.Context, positions []model.LatLon) ([]model.Quest, error) {
	quests := []model.Quest{}
	seen := make(map[model.QuestID]struct{})

	for chunk := range slices.Chunk(positions, positionsPerQuery) {
		clauses := make([]string, len(chunk))
		args := make([]any, 0, 2*len(chunk))

		for i, p := range chunk {
			clauses[i] = `(latitude = ? AND longitude = ?)`
			args = append(args, float64(p.Lat), float64(p.Lon))
		}

		found, err := s.queryAll(ctx, selectQuests+` WHERE `+strings.Join(clauses, ` OR `), args...)
		if err != nil {
			return nil, err
		}

		for _, q := range found {
			if _, ok := seen[q.ID]; !ok {
				seen[q.ID] = struct{}{}
				quests = append(quests, q)
			}
		}
	}

	slices.SortFunc(quests, func(a, b model.Quest) int { return cmp.Compare(a.ID, b.ID) })

	return quests, nil
}

// Count returns the number of quests positioned within bbox.
func (s *Store) Count(ctx context.Context, bbox model.BoundingBox) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}

	where, args := bboxClause(bbox)

	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM osm_quests WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count quests: %w", err)
	}

	return n, nil
}

// Apply deletes and inserts quests in a single transaction.  The returned
// quests carry their newly assigned ids, in the order of add.
func (s *Store) Apply(ctx context.Context, deleteIDs []model.QuestID, add []model.Quest) ([]model.Quest, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	added, err := apply(ctx, tx, deleteIDs, add)
	if err != nil {
		_ = tx.Rollback()

		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return added, nil
}

func apply(ctx context.Context, tx *sql.Tx, deleteIDs []model.QuestID, add []model.Quest) ([]model.Quest, error) {
	for _, id := range deleteIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM osm_quests WHERE quest_id = ?`, id); err != nil {
			return nil, fmt.Errorf("delete quest %d: %w", id, err)
		}
	}

	added := make([]model.Quest, 0, len(add))

	for _, q := range add {
		geometry, err := encodeGeometry(q.Geometry)
		if err != nil {
			return nil, fmt.Errorf("encode quest %s: %w", q.Key(), err)
		}

		p := q.Position()

		res, err := tx.ExecContext(ctx,
			`INSERT INTO osm_quests (quest_type, element_type, element_id, latitude, longitude, geometry)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			q.TypeName, q.ElementType, q.ElementID, float64(p.Lat), float64(p.Lon), geometry)
		if err != nil {
			return nil, fmt.Errorf("insert quest %s: %w", q.Key(), err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert quest %s: %w", q.Key(), err)
		}

		q.ID = model.QuestID(id)
		added = append(added, q)
	}

	return added, nil
}

// Delete removes a quest and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id model.QuestID) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}

	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM osm_quests WHERE quest_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete quest %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete quest %d: %w", id, err)
	}

	return n > 0, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
