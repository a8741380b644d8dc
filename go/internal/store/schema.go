// Package store owns the relational schema shared by every repository.
package store

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// The "qwestion" column name is a historical misspelling that shipped with
// the first deployment; it is part of the schema now.
const schema = `
CREATE TABLE IF NOT EXISTS teams (
    team_id bigint NOT NULL,
    updated_at timestamp with time zone NOT NULL,
    login varchar(255) NOT NULL UNIQUE,
    password_hash varchar(255) NOT NULL,
    password_salt varchar(255) NOT NULL,
    created_at timestamp with time zone NOT NULL,
    status varchar(20) DEFAULT 'offline',
    viewed_tasks bigint[] DEFAULT '{}',
    PRIMARY KEY (team_id)
);

CREATE TABLE IF NOT EXISTS task (
    task_id bigint NOT NULL,
    answer jsonb NOT NULL,
    qwestion varchar(255) NOT NULL,
    created_at timestamp with time zone NOT NULL,
    PRIMARY KEY (task_id)
);

CREATE TABLE IF NOT EXISTS solution (
    solution_id bigint NOT NULL,
    condition varchar(255) NOT NULL,
    answer jsonb NOT NULL,
    sent_at timestamp with time zone NOT NULL,
    approved_at timestamp with time zone,
    team_id bigint NOT NULL,
    task_id bigint NOT NULL,
    PRIMARY KEY (solution_id),
    CONSTRAINT solution_fk_team FOREIGN KEY (team_id) REFERENCES teams(team_id),
    CONSTRAINT solution_fk_task FOREIGN KEY (task_id) REFERENCES task(task_id)
);

CREATE INDEX IF NOT EXISTS idx_solution_pair ON solution(team_id, task_id);
CREATE INDEX IF NOT EXISTS idx_solution_condition ON solution(condition);
`
