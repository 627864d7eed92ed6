package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: users must be created BEFORE teams and photos due to foreign key constraints.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    xp INTEGER NOT NULL DEFAULT 0,
    total_photos INTEGER NOT NULL DEFAULT 0,
    total_litter INTEGER NOT NULL DEFAULT 0,
    verification_required INTEGER NOT NULL DEFAULT 1,
    active_team_id TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
    id TEXT PRIMARY KEY,
    level TEXT NOT NULL,
    name TEXT NOT NULL,
    parent_id TEXT NOT NULL DEFAULT '',
    total_photos INTEGER NOT NULL DEFAULT 0,
    total_litter INTEGER NOT NULL DEFAULT 0,
    total_contributors INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    UNIQUE (level, name, parent_id)
);

CREATE TABLE IF NOT EXISTS location_contributors (
    location_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    photos INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (location_id, user_id),
    FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS location_categories (
    location_id TEXT NOT NULL,
    category TEXT NOT NULL,
    total INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (location_id, category),
    FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS location_months (
    location_id TEXT NOT NULL,
    month TEXT NOT NULL,
    photos INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (location_id, month),
    FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS teams (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    leader_id TEXT NOT NULL,
    total_photos INTEGER NOT NULL DEFAULT 0,
    total_litter INTEGER NOT NULL DEFAULT 0,
    total_members INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (leader_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS team_members (
    team_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    total_photos INTEGER NOT NULL DEFAULT 0,
    total_litter INTEGER NOT NULL DEFAULT 0,
    joined_at INTEGER NOT NULL,
    PRIMARY KEY (team_id, user_id),
    FOREIGN KEY (team_id) REFERENCES teams(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS photos (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    blob_key TEXT NOT NULL,
    thumbnail_key TEXT NOT NULL DEFAULT '',
    lat REAL NOT NULL DEFAULT 0,
    lon REAL NOT NULL DEFAULT 0,
    country_id TEXT NOT NULL DEFAULT '',
    state_id TEXT NOT NULL DEFAULT '',
    city_id TEXT NOT NULL DEFAULT '',
    team_id TEXT NOT NULL DEFAULT '',
    verification INTEGER NOT NULL DEFAULT 0,
    total_litter INTEGER NOT NULL DEFAULT 0,
    result_string TEXT NOT NULL DEFAULT '',
    date_taken INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS photo_tags (
    photo_id TEXT NOT NULL,
    category TEXT NOT NULL,
    item TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    PRIMARY KEY (photo_id, category, item),
    FOREIGN KEY (photo_id) REFERENCES photos(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS custom_tags (
    id TEXT PRIMARY KEY,
    photo_id TEXT NOT NULL,
    tag TEXT NOT NULL COLLATE NOCASE,
    created_at INTEGER NOT NULL,
    UNIQUE (photo_id, tag),
    FOREIGN KEY (photo_id) REFERENCES photos(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS user_time_series (
    user_id TEXT NOT NULL,
    month TEXT NOT NULL,
    photos INTEGER NOT NULL DEFAULT 0,
    litter INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, month),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS user_categories (
    user_id TEXT NOT NULL,
    category TEXT NOT NULL,
    total INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, category),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_photos_user_id ON photos(user_id);
CREATE INDEX IF NOT EXISTS idx_photo_tags_photo_id ON photo_tags(photo_id);
CREATE INDEX IF NOT EXISTS idx_custom_tags_photo_id ON custom_tags(photo_id);
CREATE INDEX IF NOT EXISTS idx_location_contributors_location_id ON location_contributors(location_id);
CREATE INDEX IF NOT EXISTS idx_team_members_team_id ON team_members(team_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
