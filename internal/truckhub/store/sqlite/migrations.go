package sqlite

// migration is one schema step. Versions are sequential from 1.
type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id               TEXT PRIMARY KEY,
	email            TEXT NOT NULL,
	first_name       TEXT NOT NULL DEFAULT '',
	home_city        TEXT NOT NULL DEFAULT '',
	food_preferences TEXT NOT NULL DEFAULT '[]',
	role             TEXT NOT NULL DEFAULT 'user',
	driver_info      TEXT NOT NULL DEFAULT '',
	favorites        TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS requests (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	user_name  TEXT NOT NULL DEFAULT '',
	truck_id   TEXT NOT NULL,
	truck_name TEXT NOT NULL DEFAULT '',
	owner_id   TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'pending'
		CHECK(status IN ('pending', 'acknowledged', 'ignored', 'expired')),
	location   TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_requests_owner_id ON requests(owner_id);
CREATE INDEX IF NOT EXISTS idx_requests_user_id ON requests(user_id);
CREATE INDEX IF NOT EXISTS idx_requests_status_created ON requests(status, created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS reviews (
	id         TEXT PRIMARY KEY,
	truck_id   TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	rating     INTEGER NOT NULL CHECK(rating BETWEEN 1 AND 5),
	comment    TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	UNIQUE(truck_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_reviews_truck_id ON reviews(truck_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
