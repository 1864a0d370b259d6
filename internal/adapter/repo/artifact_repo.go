package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tdill1980/wrapdash/internal/domain"
)

// ArtifactRepositoryPG implements domain.ArtifactRepository using PostgreSQL.
// One row per version; lineage_id groups the versions of one artifact.
type ArtifactRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewArtifactRepository constructs a new artifact repository instance.
func NewArtifactRepository(pool *pgxpool.Pool) *ArtifactRepositoryPG {
	return &ArtifactRepositoryPG{pool: pool}
}

const artifactColumns = `id, lineage_id, make, model, year, category, title, variant_results, tags, version, change_note, created_at`

// Insert persists a new artifact version row.
func (r *ArtifactRepositoryPG) Insert(ctx context.Context, artifact *domain.Artifact) error {
	results, err := json.Marshal(artifact.VariantResults)
	if err != nil {
		return fmt.Errorf("encode variant results: %w", err)
	}
	query := `
INSERT INTO wrap_artifacts (id, lineage_id, make, model, year, category, title, variant_results, tags, version, change_note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`
	_, err = r.pool.Exec(ctx, query,
		artifact.ID,
		artifact.LineageID,
		artifact.Subject.Make,
		artifact.Subject.Model,
		artifact.Subject.Year,
		artifact.Subject.Category,
		artifact.Title,
		results,
		artifact.Tags,
		artifact.Version,
		artifact.ChangeNote,
	)
	return err
}

// GetByID fetches a single artifact version.
func (r *ArtifactRepositoryPG) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	query := fmt.Sprintf(`SELECT %s FROM wrap_artifacts WHERE id = $1;`, artifactColumns)
	artifact, err := scanArtifact(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return artifact, nil
}

// List returns the newest version of each lineage matching the filter.
func (r *ArtifactRepositoryPG) List(ctx context.Context, filter domain.ArtifactFilter) ([]domain.Artifact, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filter.Make != "" {
		addCondition("make = $%d", filter.Make)
	}
	if filter.Model != "" {
		addCondition("model = $%d", filter.Model)
	}
	if filter.Category != "" {
		addCondition("category = $%d", filter.Category)
	}
	if filter.Tag != "" {
		addCondition("tags @> ARRAY[$%d]::text[]", strings.ToLower(filter.Tag))
	}

	query := fmt.Sprintf(`
SELECT DISTINCT ON (lineage_id) %s
FROM wrap_artifacts
WHERE %s
ORDER BY lineage_id, version DESC;
`, artifactColumns, strings.Join(conditions, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectArtifacts(rows)
}

// MaxVersion returns the highest version recorded for a lineage, zero when
// the lineage has no rows yet.
func (r *ArtifactRepositoryPG) MaxVersion(ctx context.Context, lineageID uuid.UUID) (int, error) {
	query := `
SELECT COALESCE(MAX(version), 0)
FROM wrap_artifacts
WHERE lineage_id = $1;
`
	var max int
	if err := r.pool.QueryRow(ctx, query, lineageID).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

// Versions returns every version of a lineage, newest first.
func (r *ArtifactRepositoryPG) Versions(ctx context.Context, lineageID uuid.UUID) ([]domain.Artifact, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM wrap_artifacts
WHERE lineage_id = $1
ORDER BY version DESC;
`, artifactColumns)

	rows, err := r.pool.Query(ctx, query, lineageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectArtifacts(rows)
}

func collectArtifacts(rows pgx.Rows) ([]domain.Artifact, error) {
	var artifacts []domain.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func scanArtifact(row pgx.Row) (*domain.Artifact, error) {
	var artifact domain.Artifact
	var results []byte
	if err := row.Scan(
		&artifact.ID,
		&artifact.LineageID,
		&artifact.Subject.Make,
		&artifact.Subject.Model,
		&artifact.Subject.Year,
		&artifact.Subject.Category,
		&artifact.Title,
		&results,
		&artifact.Tags,
		&artifact.Version,
		&artifact.ChangeNote,
		&artifact.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &artifact.VariantResults); err != nil {
			return nil, fmt.Errorf("decode variant results: %w", err)
		}
	}
	return &artifact, nil
}
