package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/joaomferraz/KeyCript/internal/model"
)

// CredentialRepo encapsulates all database queries for vault entries.
// Every read, update and delete carries the owner id in the WHERE clause;
// the repository has no method that can touch another user's rows.  A
// lookup that misses because the row belongs to someone else is
// indistinguishable from one that misses because the row does not exist.
type CredentialRepo struct {
	db *sql.DB
}

// NewCredentialRepo constructs a CredentialRepo with the provided DB
// handle.  The handle is injected so tests and startup code control the
// connection lifetime.
func NewCredentialRepo(db *sql.DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

const credentialColumns = "id, owner_id, title, username, password, folder, created_at, updated_at"

// scanCredential reads one row into a model.Credential, mapping the
// nullable folder column to an empty string.
func scanCredential(row interface{ Scan(...any) error }) (model.Credential, error) {
	var (
		c      model.Credential
		folder sql.NullString
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Title, &c.Username, &c.Password,
		&folder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Credential{}, err
	}
	c.Folder = folder.String
	return c, nil
}

// Create inserts a vault entry for the given owner and returns the stored
// record with its generated id and timestamps.
func (r *CredentialRepo) Create(ctx context.Context, ownerID, title, username, password, folder string) (model.Credential, error) {
	id := uuid.NewString()
	var f any
	if folder != "" {
		f = folder
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO credentials (id, owner_id, title, username, password, folder) VALUES (?,?,?,?,?,?)",
		id, ownerID, title, username, password, f)
	if err != nil {
		return model.Credential{}, err
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// ListByOwner returns all vault entries belonging to the owner.  The order
// is not part of the API contract; created_at plus id keeps it stable.
func (r *CredentialRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+credentialColumns+" FROM credentials WHERE owner_id=? ORDER BY created_at, id",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Credential{}
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByIDAndOwner fetches one entry by id, but only when it belongs to the
// owner.  Missing and foreign rows both yield ErrCredentialNotFound.
func (r *CredentialRepo) GetByIDAndOwner(ctx context.Context, id, ownerID string) (model.Credential, error) {
	c, err := scanCredential(r.db.QueryRowContext(ctx,
		"SELECT "+credentialColumns+" FROM credentials WHERE id=? AND owner_id=?",
		id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Credential{}, ErrCredentialNotFound
	}
	return c, err
}

// Update merges the supplied patch fields into an owned entry and returns
// the updated record.  Fields absent from the patch keep their stored
// values; the owner column is never part of the SET clause.  An empty
// patch is rejected by the handler before it reaches this method, but a
// defensive lookup still enforces ownership first.
func (r *CredentialRepo) Update(ctx context.Context, id, ownerID string, patch model.CredentialPatch) (model.Credential, error) {
	if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return model.Credential{}, err
	}

	set := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if patch.Title != nil {
		set = append(set, "title=?")
		args = append(args, *patch.Title)
	}
	if patch.Username != nil {
		set = append(set, "username=?")
		args = append(args, *patch.Username)
	}
	if patch.Password != nil {
		set = append(set, "password=?")
		args = append(args, *patch.Password)
	}
	if patch.Folder != nil {
		set = append(set, "folder=?")
		if *patch.Folder == "" {
			args = append(args, nil) // clearing the label stores NULL
		} else {
			args = append(args, *patch.Folder)
		}
	}
	if len(set) > 0 {
		q := "UPDATE credentials SET " + strings.Join(set, ", ") +
			", updated_at=CURRENT_TIMESTAMP WHERE id=? AND owner_id=?"
		args = append(args, id, ownerID)
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return model.Credential{}, err
		}
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// DeleteByIDAndOwner permanently removes an owned entry.  Deleting a
// missing or foreign entry yields ErrCredentialNotFound.
func (r *CredentialRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM credentials WHERE id=? AND owner_id=?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}
