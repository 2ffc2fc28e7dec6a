package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/susu3304/partybot/internal/i18n"
	"github.com/susu3304/partybot/internal/ledger"
)

// Load reads every chat with its parties, members and expenses.
func (db *DB) Load(ctx context.Context) (map[string]*ledger.Chat, error) {
	chats := make(map[string]*ledger.Chat)
	current := make(map[string]string)

	rows, err := db.pool.Query(ctx, `SELECT session_id, language, current_party FROM chats`)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	for rows.Next() {
		var (
			id       string
			lang     *string
			selected *string
		)
		if err := rows.Scan(&id, &lang, &selected); err != nil {
			rows.Close()
			return nil, err
		}
		c := &ledger.Chat{}
		if lang != nil {
			if l, ok := i18n.Parse(*lang); ok {
				c.Language = l
			}
		}
		if selected != nil {
			current[id] = *selected
		}
		chats[id] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	type key struct{ session, party string }
	parties := make(map[key]*ledger.Party)

	rows, err = db.pool.Query(ctx, `
		SELECT session_id, name, creator_id
		FROM parties
		ORDER BY session_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query parties: %w", err)
	}
	for rows.Next() {
		var (
			sid, name string
			creator   *int64
		)
		if err := rows.Scan(&sid, &name, &creator); err != nil {
			rows.Close()
			return nil, err
		}
		c, ok := chats[sid]
		if !ok {
			continue
		}
		p := &ledger.Party{Name: name, CreatorID: creator}
		c.Parties = append(c.Parties, p)
		parties[key{sid, name}] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.pool.Query(ctx, `
		SELECT session_id, party_name, name, total::text
		FROM party_members
		ORDER BY session_id, party_name, position`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	for rows.Next() {
		var sid, party, name, total string
		if err := rows.Scan(&sid, &party, &name, &total); err != nil {
			rows.Close()
			return nil, err
		}
		p, ok := parties[key{sid, party}]
		if !ok {
			continue
		}
		amount, err := ledger.ParseAmount(total)
		if err != nil {
			rows.Close()
			return nil, err
		}
		p.Members = append(p.Members, ledger.Member{Name: name, Total: amount})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.pool.Query(ctx, `
		SELECT session_id, party_name, id::text, payer, amount::text, description, created_at
		FROM party_expenses
		ORDER BY session_id, party_name, position`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	for rows.Next() {
		var (
			sid, party, payer, amountText, desc string
			id                                  *string
			createdAt                           time.Time
		)
		if err := rows.Scan(&sid, &party, &id, &payer, &amountText, &desc, &createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		p, ok := parties[key{sid, party}]
		if !ok {
			continue
		}
		amount, err := ledger.ParseAmount(amountText)
		if err != nil {
			rows.Close()
			return nil, err
		}
		e := ledger.Expense{Payer: payer, Amount: amount, Description: desc, Timestamp: createdAt.UTC()}
		if id != nil {
			if e.ID, err = uuid.Parse(*id); err != nil {
				rows.Close()
				return nil, err
			}
		}
		p.Expenses = append(p.Expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for sid, name := range current {
		if _, ok := parties[key{sid, name}]; ok {
			chats[sid].CurrentParty = name
		}
	}
	return chats, nil
}

// Save replaces one chat's rows inside a single transaction.
func (db *DB) Save(ctx context.Context, sessionID string, chat *ledger.Chat) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lang, current *string
	if chat.Language != "" {
		l := string(chat.Language)
		lang = &l
	}
	if chat.CurrentParty != "" {
		c := chat.CurrentParty
		current = &c
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO chats (session_id, language, current_party, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (session_id) DO UPDATE
		SET language = EXCLUDED.language,
		    current_party = EXCLUDED.current_party,
		    updated_at = EXCLUDED.updated_at`,
		sessionID, lang, current,
	); err != nil {
		return fmt.Errorf("upsert chat: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM parties WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear parties: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range chat.Parties {
		batch.Queue(`INSERT INTO parties (session_id, name, position, creator_id) VALUES ($1, $2, $3, $4)`,
			sessionID, p.Name, i, p.CreatorID)
		for j, m := range p.Members {
			batch.Queue(`INSERT INTO party_members (session_id, party_name, position, name, total) VALUES ($1, $2, $3, $4, $5::numeric)`,
				sessionID, p.Name, j, m.Name, ledger.FormatAmount(m.Total))
		}
		for j, e := range p.Expenses {
			var id *string
			if e.ID != uuid.Nil {
				s := e.ID.String()
				id = &s
			}
			batch.Queue(`INSERT INTO party_expenses (session_id, party_name, position, id, payer, amount, description, created_at)
				VALUES ($1, $2, $3, $4::uuid, $5, $6::numeric, $7, $8)`,
				sessionID, p.Name, j, id, e.Payer, ledger.FormatAmount(e.Amount), e.Description, e.Timestamp.UTC())
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert ledger rows: %w", err)
		}
	}

	return tx.Commit(ctx)
}

var _ ledger.Persister = (*DB)(nil)
