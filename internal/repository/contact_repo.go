package repository

import (
	"context"

	"github.com/premkumar3616/junk-chat/internal/models"
)

type ContactRepository struct {
	db DBTX
}

func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

// EnsureSymmetric inserts the edges a->b and b->a where absent. Each
// direction is one atomic check-and-insert, so two simultaneous first
// messages between the same pair cannot create duplicate edges. The return
// values report which edges were newly created.
func (r *ContactRepository) EnsureSymmetric(ctx context.Context, a, b int64) (aAdded bool, bAdded bool, err error) {
	aAdded, err = r.Add(ctx, a, b)
	if err != nil {
		return false, false, err
	}
	bAdded, err = r.Add(ctx, b, a)
	if err != nil {
		return aAdded, false, err
	}
	return aAdded, bAdded, nil
}

// Add inserts the edge owner->contact if absent. Adding an existing contact
// is a no-op, not an error; the return value reports whether the edge is new.
func (r *ContactRepository) Add(ctx context.Context, ownerID, contactID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO contacts (owner_id, contact_id)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, contact_id) DO NOTHING
	`, ownerID, contactID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the edge owner->contact and reports whether it existed.
func (r *ContactRepository) Delete(ctx context.Context, ownerID, contactID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM contacts
		WHERE owner_id = $1 AND contact_id = $2
	`, ownerID, contactID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ContactRepository) Exists(ctx context.Context, ownerID, contactID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM contacts
			WHERE owner_id = $1 AND contact_id = $2
		)
	`, ownerID, contactID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListContactIDs returns the ids on ownerID's contact list.
func (r *ContactRepository) ListContactIDs(ctx context.Context, ownerID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT contact_id FROM contacts
		WHERE owner_id = $1
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// ListContacts returns the full user rows on ownerID's contact list.
func (r *ContactRepository) ListContacts(ctx context.Context, ownerID int64) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.profile_pic, u.created_at, u.updated_at
		FROM contacts c
		JOIN users u ON u.id = c.contact_id
		WHERE c.owner_id = $1
		ORDER BY LOWER(u.username) ASC
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.ProfilePic,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
