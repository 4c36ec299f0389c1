package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"onboarding/internal/types"
)

const recipientColumns = `id, name, email, user_principal_name, service_url, conversation_id, role, enrolled_at, opted_in`

// RecipientRepository is the RecipientDirectory backed by the recipients table.
// Writes are single-row upserts; concurrent writers resolve last-writer-wins.
type RecipientRepository struct {
	db DBTX
}

var _ types.RecipientDirectory = (*RecipientRepository)(nil)

func NewRecipientRepository(db DBTX) *RecipientRepository {
	return &RecipientRepository{db: db}
}

// GetAllByRole returns every recipient with the given role, oldest enrollment first.
func (r *RecipientRepository) GetAllByRole(ctx context.Context, role types.Role) ([]types.Recipient, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recipientColumns+`
		 FROM recipients
		 WHERE role = $1
		 ORDER BY enrolled_at, id`,
		int(role),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query recipients by role", err)
	}
	return collectRecipients(rows)
}

// GetOptedInForPairing returns every recipient who opted in to pair-up meetings.
func (r *RecipientRepository) GetOptedInForPairing(ctx context.Context) ([]types.Recipient, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recipientColumns+`
		 FROM recipients
		 WHERE opted_in
		 ORDER BY enrolled_at, id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query opted-in recipients", err)
	}
	return collectRecipients(rows)
}

// GetByID returns nil, nil when the recipient does not exist.
func (r *RecipientRepository) GetByID(ctx context.Context, id string) (*types.Recipient, error) {
	var rec types.Recipient
	var role int
	err := r.db.QueryRow(ctx,
		`SELECT `+recipientColumns+` FROM recipients WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Name, &rec.Email, &rec.UserPrincipalName, &rec.ServiceURL,
		&rec.ConversationID, &role, &rec.EnrolledAt, &rec.OptedIn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get recipient", err)
	}
	rec.Role = types.Role(role)
	return &rec, nil
}

// Upsert inserts or replaces the recipient row. It reports whether a row was written.
func (r *RecipientRepository) Upsert(ctx context.Context, rec types.Recipient) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO recipients (`+recipientColumns+`, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   email = EXCLUDED.email,
		   user_principal_name = EXCLUDED.user_principal_name,
		   service_url = EXCLUDED.service_url,
		   conversation_id = EXCLUDED.conversation_id,
		   role = EXCLUDED.role,
		   enrolled_at = EXCLUDED.enrolled_at,
		   opted_in = EXCLUDED.opted_in,
		   updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.Name, rec.Email, rec.UserPrincipalName, rec.ServiceURL,
		rec.ConversationID, int(rec.Role), rec.EnrolledAt, rec.OptedIn,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to upsert recipient", err)
	}
	return tag.RowsAffected() > 0, nil
}

func collectRecipients(rows pgx.Rows) ([]types.Recipient, error) {
	defer rows.Close()

	var out []types.Recipient
	for rows.Next() {
		var rec types.Recipient
		var role int
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.UserPrincipalName, &rec.ServiceURL,
			&rec.ConversationID, &role, &rec.EnrolledAt, &rec.OptedIn); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan recipient", err)
		}
		rec.Role = types.Role(role)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating recipients", err)
	}
	return out, nil
}
